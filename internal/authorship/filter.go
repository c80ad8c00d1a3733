// SPDX-License-Identifier: AGPL-3.0-or-later

package authorship

import (
	"path"
	"strings"

	"github.com/bmatcuk/doublestar"
)

// FilterPolicy decides which files, commits and authors take part in line
// accounting.
//
// Excluded files are never blamed. Lines of ignored commits are parsed but
// never counted. Ignored authors stay listed on the pages they touched, with
// no lines credited; their lines are left out of every total.
type FilterPolicy struct {
	exclude []string
	commits map[string]struct{}
	authors map[string]struct{}
}

// NewFilterPolicy builds a policy. Commit hashes are matched
// case-insensitively; emails are compared after NormalizeEmail.
func NewFilterPolicy(exclude, ignoredCommits, ignoredAuthors []string) FilterPolicy {
	f := FilterPolicy{
		exclude: append([]string(nil), exclude...),
		commits: make(map[string]struct{}, len(ignoredCommits)),
		authors: make(map[string]struct{}, len(ignoredAuthors)),
	}
	for _, sha := range ignoredCommits {
		if sha = strings.ToLower(strings.TrimSpace(sha)); sha != "" {
			f.commits[sha] = struct{}{}
		}
	}
	for _, e := range ignoredAuthors {
		if e = NormalizeEmail(e); e != "" {
			f.authors[e] = struct{}{}
		}
	}
	return f
}

// ExcludesFile reports whether the slash-separated, root-relative path
// matches an exclude pattern. Patterns support `**`. A pattern without a
// slash is also tried against the base name, so "*.tmp.md" excludes the
// file in any directory. Malformed patterns match nothing.
func (f FilterPolicy) ExcludesFile(rel string) bool {
	rel = strings.TrimPrefix(rel, "./")
	for _, pattern := range f.exclude {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
		if !strings.Contains(pattern, "/") {
			if ok, err := doublestar.Match(pattern, path.Base(rel)); err == nil && ok {
				return true
			}
		}
	}
	return false
}

// IgnoresCommit reports whether lines of sha are left out.
func (f FilterPolicy) IgnoresCommit(sha string) bool {
	_, ok := f.commits[strings.ToLower(sha)]
	return ok
}

// IgnoresAuthor reports whether email's lines are left out.
func (f FilterPolicy) IgnoresAuthor(email string) bool {
	_, ok := f.authors[NormalizeEmail(email)]
	return ok
}
