// SPDX-License-Identifier: AGPL-3.0-or-later

// Package scanner lists the files git tracks in a repository.
package scanner

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/bartekus/gitauthors/internal/gitcmd"
)

// Scanner provides access to the repository's tracked files.
type Scanner struct {
	runner gitcmd.Runner

	mu           sync.Mutex
	trackedCache []string
}

// New creates a Scanner for the repository root using the git binary.
func New(repoRoot string) *Scanner {
	return NewWithRunner(gitcmd.NewExecRunner(repoRoot))
}

// NewWithRunner creates a Scanner over an existing runner.
func NewWithRunner(r gitcmd.Runner) *Scanner {
	return &Scanner{runner: r}
}

// TrackedFiles returns all files tracked by git, relative to the repository
// root, caching the result for the instance lifetime. Ignored and untracked
// files are never listed.
func (s *Scanner) TrackedFiles(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.trackedCache != nil {
		return s.trackedCache, nil
	}

	// -z keeps unusual file names unquoted.
	res, err := s.runner.Run(ctx, "ls-files", "-z", "--full-name")
	if err != nil {
		return nil, fmt.Errorf("git ls-files failed: %w", err)
	}

	out := strings.TrimSuffix(strings.Join(res.Stdout, "\n"), "\x00")
	if out == "" {
		s.trackedCache = []string{}
		return s.trackedCache, nil
	}

	s.trackedCache = strings.Split(out, "\x00")
	return s.trackedCache, nil
}

// TrackedFilesFiltered returns tracked files matching the filter options.
func (s *Scanner) TrackedFilesFiltered(ctx context.Context, opts FilterOptions) ([]string, error) {
	all, err := s.TrackedFiles(ctx)
	if err != nil {
		return nil, err
	}
	return FilterFiles(all, opts), nil
}

// TrackedDocs returns tracked documentation sources, applying the default
// directory excludes.
func (s *Scanner) TrackedDocs(ctx context.Context, skip func(string) bool) ([]string, error) {
	return s.TrackedFilesFiltered(ctx, FilterOptions{
		ExcludeDirs:       DefaultExcludeDirs(),
		IncludeExtensions: DefaultDocExtensions(),
		Skip:              skip,
	})
}
