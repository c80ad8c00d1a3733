// SPDX-License-Identifier: AGPL-3.0-or-later

// Package render turns authorship summaries into the snippets a
// documentation host embeds: an inline page byline, a site-wide contributor
// list, and machine-readable reports.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/bartekus/gitauthors/internal/authorship"
	"github.com/bartekus/gitauthors/internal/config"
)

// Format selects an output encoding.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
)

// Formats lists every supported format.
func Formats() []Format {
	return []Format{FormatText, FormatMarkdown, FormatHTML, FormatJSON, FormatYAML}
}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats() {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown format %q (want one of text, markdown, html, json, yaml)", s)
}

// Options are the presentation switches taken from configuration.
type Options struct {
	ShowContribution bool
	ShowLineCount    bool
	ShowEmail        bool
	// Href is the link template; {email} and {name} are substituted.
	Href string
	// ThresholdPercent hides authors whose share is below it.
	ThresholdPercent float64
}

// OptionsFrom copies the presentation switches out of cfg.
func OptionsFrom(cfg config.Config) Options {
	return Options{
		ShowContribution: cfg.ShowContribution,
		ShowLineCount:    cfg.ShowLineCount,
		ShowEmail:        cfg.ShowEmail,
		Href:             cfg.Href,
		ThresholdPercent: cfg.AuthorshipThresholdPercent,
	}
}

// AboveThreshold keeps the summaries whose share, in percent, is at least
// threshold. The page share is used unless projectWide is set. A zero
// threshold keeps everyone, including ignored authors.
func AboveThreshold(summaries []authorship.Summary, threshold float64, projectWide bool) []authorship.Summary {
	if threshold <= 0 {
		return summaries
	}
	out := make([]authorship.Summary, 0, len(summaries))
	for _, s := range summaries {
		share := s.Share
		if projectWide {
			share = s.ShareAllPages
		}
		if share*100 >= threshold {
			out = append(out, s)
		}
	}
	return out
}

// Link expands the href template for one author.
func Link(href string, s authorship.Summary) string {
	return strings.NewReplacer("{email}", s.Email, "{name}", s.Name).Replace(href)
}

// PageReport is the machine-readable view of one page.
type PageReport struct {
	Path       string               `json:"path" yaml:"path"`
	Outcome    string               `json:"outcome" yaml:"outcome"`
	TotalLines int                  `json:"total_lines" yaml:"total_lines"`
	Authors    []authorship.Summary `json:"authors" yaml:"authors"`
}

// SiteReport is the machine-readable view of a whole run.
type SiteReport struct {
	TotalLines int                  `json:"total_lines" yaml:"total_lines"`
	Authors    []authorship.Summary `json:"authors" yaml:"authors"`
	Pages      []PageReport         `json:"pages,omitempty" yaml:"pages,omitempty"`
}

// NewPageReport builds the report of p with the threshold applied.
func NewPageReport(p *authorship.Page, opts Options) PageReport {
	return PageReport{
		Path:       p.RelPath(),
		Outcome:    p.Outcome().String(),
		TotalLines: p.TotalLines(),
		Authors:    AboveThreshold(p.Summaries(), opts.ThresholdPercent, false),
	}
}

// NewSiteReport builds the project report of r, including every queried
// page when withPages is set.
func NewSiteReport(r *authorship.Repository, opts Options, withPages bool) SiteReport {
	rep := SiteReport{
		TotalLines: r.TotalLines(),
		Authors:    AboveThreshold(r.Summaries(r.Authors(), nil), opts.ThresholdPercent, true),
	}
	if withPages {
		for _, p := range r.Pages() {
			rep.Pages = append(rep.Pages, NewPageReport(p, opts))
		}
	}
	return rep
}

// Encode writes v as JSON or YAML.
func Encode(w io.Writer, format Format, v any) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("format %q is not a data encoding", format)
	}
}
