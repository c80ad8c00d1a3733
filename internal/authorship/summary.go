// SPDX-License-Identifier: AGPL-3.0-or-later

package authorship

import "time"

// Summary is the host-facing view of one author, relative to a page or to
// the whole project.
type Summary struct {
	Name  string `json:"name" yaml:"name"`
	Email string `json:"email" yaml:"email"`

	LastDatetime     string    `json:"last_datetime" yaml:"last_datetime"`
	LastContribution time.Time `json:"last_contribution" yaml:"last_contribution"`

	Lines         int `json:"lines" yaml:"lines"`
	LinesAllPages int `json:"lines_all_pages" yaml:"lines_all_pages"`

	Contribution         string `json:"contribution" yaml:"contribution"`
	ContributionAllPages string `json:"contribution_all_pages" yaml:"contribution_all_pages"`

	Share         float64 `json:"share" yaml:"share"`
	ShareAllPages float64 `json:"share_all_pages" yaml:"share_all_pages"`

	CoAuthoredCommits int `json:"co_authored_commits,omitempty" yaml:"co_authored_commits,omitempty"`
}

// Summarize describes a relative to page. With a nil page the page-level
// fields repeat the project-wide ones.
func Summarize(a *Author, page *Page) Summary {
	last := a.LastContribution(page)
	s := Summary{
		Name:                 a.Name(),
		Email:                a.Email(),
		LastDatetime:         FormatTime(last),
		LastContribution:     last,
		Lines:                a.Lines(page),
		LinesAllPages:        a.Lines(nil),
		Share:                a.Contribution(page),
		ShareAllPages:        a.Contribution(nil),
		Contribution:         a.Percent(page),
		ContributionAllPages: a.Percent(nil),
	}
	for _, c := range a.repo.commits {
		for _, co := range c.coAuthors {
			if co == a {
				s.CoAuthoredCommits++
				break
			}
		}
	}
	return s
}

// Summaries describes authors, in order, relative to page.
func (r *Repository) Summaries(authors []*Author, page *Page) []Summary {
	out := make([]Summary, 0, len(authors))
	for _, a := range authors {
		out = append(out, Summarize(a, page))
	}
	return out
}

// Summaries is Repository.Summaries of the page's own authors.
func (p *Page) Summaries() []Summary {
	return p.repo.Summaries(p.Authors(), p)
}
