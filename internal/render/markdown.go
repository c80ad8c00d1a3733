// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bartekus/gitauthors/internal/authorship"
)

// PageMarkdown renders a page's authors as a Markdown section.
func PageMarkdown(rep PageReport, opts Options) string {
	var b strings.Builder
	b.WriteString(RenderHeader(2, "Authors of "+rep.Path))
	if len(rep.Authors) == 0 {
		b.WriteString(fmt.Sprintf("_No attributed lines (%s)._\n", rep.Outcome))
		return b.String()
	}
	b.WriteString(RenderTable(columns(opts), rows(rep.Authors, opts, false)))
	return b.String()
}

// SiteMarkdown renders the project contributor list as a Markdown section.
func SiteMarkdown(rep SiteReport, opts Options) string {
	var b strings.Builder
	b.WriteString(RenderHeader(2, "Contributors"))
	b.WriteString(RenderTable(columns(opts), rows(rep.Authors, opts, true)))
	if len(rep.Pages) > 0 {
		b.WriteString("\n")
		b.WriteString(RenderHeader(3, "Pages"))
		items := make([]string, 0, len(rep.Pages))
		for _, p := range rep.Pages {
			items = append(items, fmt.Sprintf("`%s`: %d lines, %d authors", p.Path, p.TotalLines, len(p.Authors)))
		}
		b.WriteString(RenderList(items))
	}
	return b.String()
}

func columns(opts Options) []string {
	cols := []string{"Author"}
	if opts.ShowLineCount {
		cols = append(cols, "Lines")
	}
	if opts.ShowContribution {
		cols = append(cols, "Contribution")
	}
	return append(cols, "Last contribution")
}

func rows(summaries []authorship.Summary, opts Options, projectWide bool) [][]string {
	out := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		lines, contrib := s.Lines, s.Contribution
		if projectWide {
			lines, contrib = s.LinesAllPages, s.ContributionAllPages
		}
		name := escapeCell(s.Name)
		if opts.ShowEmail {
			name = "[" + name + "](" + Link(opts.Href, s) + ")"
		}
		row := []string{name}
		if opts.ShowLineCount {
			row = append(row, strconv.Itoa(lines))
		}
		if opts.ShowContribution {
			row = append(row, contrib)
		}
		row = append(row, s.LastDatetime)
		out = append(out, row)
	}
	return out
}

func escapeCell(s string) string {
	return strings.NewReplacer("|", `\|`, "[", `\[`, "]", `\]`).Replace(s)
}

// RenderTable renders a Markdown table.
// It assumes rows are already sorted if determinism is required.
func RenderTable(headers []string, rows [][]string) string {
	var b strings.Builder

	b.WriteString("| " + strings.Join(headers, " | ") + " |\n")

	b.WriteString("|")
	for range headers {
		b.WriteString(" --- |")
	}
	b.WriteString("\n")

	for _, row := range rows {
		b.WriteString("| " + strings.Join(row, " | ") + " |\n")
	}

	return b.String()
}

// RenderList renders a simple unordered Markdown list.
func RenderList(items []string) string {
	var b strings.Builder
	for _, item := range items {
		b.WriteString(fmt.Sprintf("- %s\n", item))
	}
	return b.String()
}

// RenderHeader renders a Markdown header.
func RenderHeader(level int, text string) string {
	return fmt.Sprintf("%s %s\n\n", strings.Repeat("#", level), text)
}
