// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"fmt"
	"html"
	"strings"

	"github.com/bartekus/gitauthors/internal/authorship"
)

// PageHTML renders the inline byline of a page. Contributions are only shown
// when the page has more than one author.
func PageHTML(summaries []authorship.Summary, opts Options) string {
	parts := make([]string, 0, len(summaries))
	for _, s := range summaries {
		entry := htmlName(s, opts)
		if opts.ShowContribution && len(summaries) > 1 {
			entry += " (" + s.Contribution + ")"
		}
		parts = append(parts, entry)
	}
	return "<span class='git-page-authors git-authors'>" + strings.Join(parts, ", ") + "</span>"
}

// SiteHTML renders the project contributor list.
func SiteHTML(summaries []authorship.Summary, opts Options) string {
	var b strings.Builder
	b.WriteString("<span class='git-authors'>\n<ul>\n")
	for _, s := range summaries {
		b.WriteString("  <li>")
		b.WriteString(htmlName(s, opts))
		if opts.ShowLineCount {
			fmt.Fprintf(&b, ": %d lines", s.LinesAllPages)
		}
		if opts.ShowContribution {
			b.WriteString(" (" + s.ContributionAllPages + ")")
		}
		b.WriteString("</li>\n")
	}
	b.WriteString("</ul>\n</span>\n")
	return b.String()
}

func htmlName(s authorship.Summary, opts Options) string {
	name := html.EscapeString(s.Name)
	if !opts.ShowEmail {
		return name
	}
	return "<a href='" + html.EscapeString(Link(opts.Href, s)) + "'>" + name + "</a>"
}
