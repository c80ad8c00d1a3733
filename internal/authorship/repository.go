// SPDX-License-Identifier: AGPL-3.0-or-later

// Package authorship aggregates git blame output into per-file and
// project-wide authorship statistics.
//
// A Repository owns every registry: commits keyed by SHA, authors keyed by
// normalized email and pages keyed by absolute path. Pages and authors only
// hold back-references into it. A Repository is not safe for concurrent use;
// pages are blamed one at a time on the caller's goroutine.
package authorship

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/bartekus/gitauthors/internal/config"
	"github.com/bartekus/gitauthors/internal/gitcmd"
)

// ErrCoAuthors is wrapped when a commit's log message cannot be read for
// Co-authored-by trailers. It is fatal regardless of strict mode.
var ErrCoAuthors = errors.New("reading co-authors")

// ErrNoHistory is wrapped when strict mode promotes a file without history
// to a failure. The underlying *gitcmd.CommandError stays reachable.
var ErrNoHistory = errors.New("file has no commit history")

// Repository is the aggregate of one authorship run.
type Repository struct {
	root   string
	runner gitcmd.Runner
	cfg    config.Config
	log    logrus.FieldLogger

	filter FilterPolicy
	sort   SortPolicy
	extra  []string

	commits map[string]*Commit
	authors map[string]*Author
	pages   map[string]*Page
	order   []*Page

	totalLines int
	inert      bool

	// pending records what a page in progress has registered.
	pending *registrations
}

type registrations struct {
	commits []string
	authors []string
}

// discard removes the commits and authors a failed page registered. None of
// them has been credited with lines yet.
func (r *Repository) discard(reg *registrations) {
	for _, sha := range reg.commits {
		delete(r.commits, sha)
	}
	for _, key := range reg.authors {
		delete(r.authors, key)
	}
}

// Option configures a Repository.
type Option func(*Repository)

// WithLogger sets the logger. Defaults to logrus.StandardLogger().
func WithLogger(l logrus.FieldLogger) Option {
	return func(r *Repository) {
		if l != nil {
			r.log = l
		}
	}
}

// WithIgnoredCommits adds commit hashes to those read from the
// ignore_commits file.
func WithIgnoredCommits(shas ...string) Option {
	return func(r *Repository) {
		r.extra = append(r.extra, shas...)
	}
}

// Open locates the repository containing the runner's working directory and
// creates a Repository rooted there. When git cannot locate a repository and
// fallback_to_empty is set, an inert Repository is returned instead.
func Open(ctx context.Context, runner gitcmd.Runner, cfg *config.Config, opts ...Option) (*Repository, error) {
	res, err := runner.Run(ctx, "rev-parse", "--show-toplevel")
	if err == nil && len(res.Stdout) == 0 {
		err = errors.New("git rev-parse returned no repository root")
	}
	if err != nil {
		if cfg != nil && cfg.FallbackToEmpty {
			r := Empty(cfg, opts...)
			r.log.WithError(err).Warn("not inside a git repository, continuing without authorship data")
			return r, nil
		}
		return nil, fmt.Errorf("locating repository root: %w", err)
	}
	return New(strings.TrimSpace(res.Stdout[0]), runner, cfg, opts...)
}

// New creates a Repository rooted at root. A relative ignore_commits path is
// resolved against root.
func New(root string, runner gitcmd.Runner, cfg *config.Config, opts ...Option) (*Repository, error) {
	r := newRepository(cfg, opts...)
	r.root = filepath.Clean(root)
	r.runner = runner

	sp, err := NewSortPolicy(&r.cfg)
	if err != nil {
		return nil, err
	}
	r.sort = sp

	ignoreFile := r.cfg.IgnoreCommits
	if ignoreFile != "" && !filepath.IsAbs(ignoreFile) {
		ignoreFile = filepath.Join(r.root, ignoreFile)
	}
	shas, err := config.LoadIgnoredCommits(ignoreFile)
	if err != nil {
		return nil, err
	}
	r.filter = NewFilterPolicy(r.cfg.Exclude, append(shas, r.extra...), r.cfg.IgnoreAuthors)

	r.log.WithFields(logrus.Fields{
		"root":            r.root,
		"ignored_commits": len(r.filter.commits),
		"ignored_authors": len(r.filter.authors),
	}).Debug("authorship repository ready")
	return r, nil
}

// Empty returns an inert Repository: every page is empty and no git command
// is ever run.
func Empty(cfg *config.Config, opts ...Option) *Repository {
	r := newRepository(cfg, opts...)
	r.inert = true
	// An invalid sort key was already reported by config validation.
	r.sort, _ = NewSortPolicy(&r.cfg)
	r.filter = NewFilterPolicy(r.cfg.Exclude, nil, r.cfg.IgnoreAuthors)
	return r
}

func newRepository(cfg *config.Config, opts ...Option) *Repository {
	if cfg == nil {
		cfg = config.Default()
	}
	r := &Repository{
		cfg:     *cfg,
		log:     logrus.StandardLogger(),
		commits: make(map[string]*Commit),
		authors: make(map[string]*Author),
		pages:   make(map[string]*Page),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Root returns the repository's top-level directory. It is empty for an
// inert Repository.
func (r *Repository) Root() string { return r.root }

// Config returns the configuration in effect.
func (r *Repository) Config() config.Config { return r.cfg }

// Filter returns the active filter policy.
func (r *Repository) Filter() FilterPolicy { return r.filter }

// SortPolicy returns the active sort policy.
func (r *Repository) SortPolicy() SortPolicy { return r.sort }

// TotalLines is the number of counted lines across all pages.
func (r *Repository) TotalLines() int { return r.totalLines }

// Pages returns every page queried so far in query order.
func (r *Repository) Pages() []*Page {
	out := make([]*Page, len(r.order))
	copy(out, r.order)
	return out
}

// Authors returns every known author ordered by the sort policy. Unlike a
// page's list it is sorted on every call.
func (r *Repository) Authors() []*Author {
	out := make([]*Author, 0, len(r.authors))
	for _, a := range r.authors {
		out = append(out, a)
	}
	SortAuthors(out, r.sort)
	return out
}

// Page returns the page for path, blaming the file on first request. path
// may be absolute or relative to the repository root.
//
// A file git has no history for yields a page with Outcome NoHistory, or an
// error wrapping ErrNoHistory in strict mode. Malformed blame output and
// co-author lookup failures (ErrCoAuthors) are always returned as errors and
// leave neither a page nor any commit or author registered by it.
func (r *Repository) Page(ctx context.Context, path string) (*Page, error) {
	abs, rel := r.resolve(path)
	if p, ok := r.pages[abs]; ok {
		return p, nil
	}

	p := &Page{repo: r, path: abs, rel: rel, seen: make(map[*Author]struct{})}
	log := r.log.WithField("path", rel)

	switch {
	case r.inert:
		p.outcome = Unavailable
	case r.filter.ExcludesFile(rel):
		log.Debug("page excluded")
		p.outcome = Excluded
	default:
		if err := p.process(ctx, log); err != nil {
			return nil, err
		}
	}

	r.pages[abs] = p
	r.order = append(r.order, p)
	return p, nil
}

func (r *Repository) resolve(path string) (abs, rel string) {
	abs = path
	if !filepath.IsAbs(abs) && r.root != "" {
		abs = filepath.Join(r.root, abs)
	}
	abs = filepath.Clean(abs)

	rel = abs
	if r.root != "" {
		if rp, err := filepath.Rel(r.root, abs); err == nil && !strings.HasPrefix(rp, "..") {
			rel = rp
		}
	}
	return abs, filepath.ToSlash(rel)
}

func (r *Repository) addTotalLines(n int) { r.totalLines += n }
