// SPDX-License-Identifier: AGPL-3.0-or-later

package authorship

import (
	"strings"
	"time"
)

// Author is the account of one email address. The display name is the first
// one seen for that address.
type Author struct {
	repo  *Repository
	name  string
	email string
	pages map[string]*pageStats
}

type pageStats struct {
	lines int
	last  time.Time
}

// Author returns the author for email, creating it on first reference.
// Emails are compared after NormalizeEmail; a later name for a known email
// is ignored.
func (r *Repository) Author(name, email string) *Author {
	key := NormalizeEmail(email)
	if a, ok := r.authors[key]; ok {
		return a
	}
	a := &Author{
		repo:  r,
		name:  name,
		email: key,
		pages: make(map[string]*pageStats),
	}
	r.authors[key] = a
	if r.pending != nil {
		r.pending.authors = append(r.pending.authors, key)
	}
	return a
}

// NormalizeEmail strips angle brackets and surrounding space and lowercases.
func NormalizeEmail(email string) string {
	email = strings.NewReplacer("<", "", ">", "").Replace(email)
	return strings.ToLower(strings.TrimSpace(email))
}

func (a *Author) Name() string  { return a.name }
func (a *Author) Email() string { return a.email }

// AddLines credits n lines on page to a, keeping the latest authored time
// of the contributing commits.
func (a *Author) AddLines(page *Page, commit *Commit, n int) {
	st, ok := a.pages[page.path]
	if !ok {
		st = &pageStats{}
		a.pages[page.path] = st
	}
	st.lines += n
	if t := commit.Time(); t.After(st.last) {
		st.last = t
	}
}

// Lines is the author's line count on page, or across all pages when page
// is nil.
func (a *Author) Lines(page *Page) int {
	if page != nil {
		if st, ok := a.pages[page.path]; ok {
			return st.lines
		}
		return 0
	}
	total := 0
	for _, st := range a.pages {
		total += st.lines
	}
	return total
}

// Contribution is the author's share of page's lines, or of the project's
// lines when page is nil. It is 0 when there is nothing to share.
func (a *Author) Contribution(page *Page) float64 {
	total := a.repo.TotalLines()
	if page != nil {
		total = page.TotalLines()
	}
	return Fraction(a.Lines(page), total)
}

// Percent is Contribution formatted with FormatPercent.
func (a *Author) Percent(page *Page) string {
	return FormatPercent(a.Contribution(page))
}

// LastContribution is the authored time of the author's most recent counted
// line on page, or on any page when page is nil. The zero time means no
// counted lines.
func (a *Author) LastContribution(page *Page) time.Time {
	if page != nil {
		if st, ok := a.pages[page.path]; ok {
			return st.last
		}
		return time.Time{}
	}
	var last time.Time
	for _, st := range a.pages {
		if st.last.After(last) {
			last = st.last
		}
	}
	return last
}
