// SPDX-License-Identifier: AGPL-3.0-or-later

package authorship

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/bartekus/gitauthors/internal/blame"
	"github.com/bartekus/gitauthors/internal/gitcmd"
)

// Outcome records how a page came to hold its statistics.
type Outcome int

const (
	// Blamed pages were parsed from git blame output.
	Blamed Outcome = iota
	// NoHistory pages could not be blamed, typically because the file was
	// never committed. They are empty.
	NoHistory
	// Excluded pages matched an exclude pattern and were never blamed.
	Excluded
	// Unavailable pages belong to an inert Repository.
	Unavailable
)

func (o Outcome) String() string {
	switch o {
	case Blamed:
		return "blamed"
	case NoHistory:
		return "no-history"
	case Excluded:
		return "excluded"
	case Unavailable:
		return "unavailable"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Page is the authorship aggregate of one file.
type Page struct {
	repo *Repository
	path string
	rel  string

	outcome Outcome
	cause   error

	total   int
	authors []*Author
	seen    map[*Author]struct{}
	sorted  bool
}

// Path is the page's absolute path.
func (p *Page) Path() string { return p.path }

// RelPath is the page's slash-separated path relative to the repository root.
func (p *Page) RelPath() string { return p.rel }

// TotalLines is the number of counted lines on the page.
func (p *Page) TotalLines() int { return p.total }

// Outcome reports how the page was built.
func (p *Page) Outcome() Outcome { return p.outcome }

// Cause is the git failure behind a NoHistory page, nil otherwise.
func (p *Page) Cause() error { return p.cause }

// Authors returns the page's contributors ordered by the repository's sort
// policy. The order is computed on first call and kept.
func (p *Page) Authors() []*Author {
	if !p.sorted {
		SortAuthors(p.authors, p.repo.sort)
		p.sorted = true
	}
	out := make([]*Author, len(p.authors))
	copy(out, p.authors)
	return out
}

func (p *Page) addAuthor(a *Author) {
	if _, ok := p.seen[a]; ok {
		return
	}
	p.seen[a] = struct{}{}
	p.authors = append(p.authors, a)
}

func (p *Page) process(ctx context.Context, log logrus.FieldLogger) error {
	r := p.repo

	lines, err := blame.File(ctx, r.runner, p.path)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if _, ok := gitcmd.AsCommandError(err); !ok {
			return err
		}
		if r.cfg.Strict {
			return fmt.Errorf("%w: %s: %w", ErrNoHistory, p.rel, err)
		}
		log.WithField("reason", failureReason(err)).
			Warnf("%s has not been committed yet. Lines are not counted", p.rel)
		p.outcome = NoHistory
		p.cause = err
		return nil
	}

	// Every commit is resolved before any line is counted. A failure undoes
	// the commits and authors this page registered.
	reg := &registrations{}
	r.pending = reg
	commits := make([]*Commit, len(lines))
	for i, l := range lines {
		if r.filter.IgnoresCommit(l.SHA) {
			continue
		}
		c, err := r.Commit(ctx, l.SHA, l.Meta)
		if err != nil {
			r.pending = nil
			r.discard(reg)
			return fmt.Errorf("%s: %w", p.rel, err)
		}
		commits[i] = c
	}
	r.pending = nil

	ignoredCommitLines := 0
	for i, l := range lines {
		if !p.countable(l) {
			continue
		}
		c := commits[i]
		if c == nil {
			ignoredCommitLines++
			continue
		}
		a := c.Author()
		p.addAuthor(a)
		if r.filter.IgnoresAuthor(a.Email()) {
			continue
		}
		a.AddLines(p, c, 1)
		p.total++
		r.addTotalLines(1)
	}

	p.outcome = Blamed
	log.WithFields(logrus.Fields{
		"lines":          p.total,
		"authors":        len(p.authors),
		"ignored_commit": ignoredCommitLines,
	}).Debug("page blamed")
	return nil
}

func (p *Page) countable(l blame.Line) bool {
	return l.Content != "" || p.repo.cfg.CountEmptyLines
}

// failureReason is the first line of git's error output, or of err itself.
func failureReason(err error) string {
	msg := err.Error()
	if ce, ok := gitcmd.AsCommandError(err); ok && strings.TrimSpace(ce.Stderr) != "" {
		msg = strings.TrimSpace(ce.Stderr)
	}
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		return msg[:i]
	}
	return msg
}
