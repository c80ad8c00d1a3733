// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize/english"

	"github.com/bartekus/gitauthors/internal/authorship"
)

// PageText renders a page report for a terminal.
func PageText(rep PageReport, opts Options) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s, %s\n", rep.Path, english.Plural(rep.TotalLines, "line", ""), rep.Outcome)
	for _, s := range rep.Authors {
		b.WriteString("  " + textLine(s, s.Lines, s.Contribution, opts) + "\n")
	}
	return b.String()
}

// SiteText renders a site report for a terminal.
func SiteText(rep SiteReport, opts Options) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s across %s\n", english.Plural(rep.TotalLines, "line", ""),
		english.Plural(len(rep.Pages), "page", ""))
	for _, s := range rep.Authors {
		b.WriteString("  " + textLine(s, s.LinesAllPages, s.ContributionAllPages, opts) + "\n")
	}
	return b.String()
}

func textLine(s authorship.Summary, lines int, contrib string, opts Options) string {
	out := s.Name
	if opts.ShowEmail {
		out += " <" + s.Email + ">"
	}
	if opts.ShowLineCount {
		out += ": " + english.Plural(lines, "line", "")
	}
	if opts.ShowContribution {
		out += " (" + contrib + ")"
	}
	return out
}
