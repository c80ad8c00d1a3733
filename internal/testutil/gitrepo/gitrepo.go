// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gitrepo creates throwaway git repositories for tests that need the
// real git binary.
package gitrepo

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// Repo is a git repository in a temporary directory.
type Repo struct {
	t   testing.TB
	Dir string
}

// Author identifies who a commit is attributed to.
type Author struct {
	Name  string
	Email string
}

// New initializes an empty repository. The test is skipped when git is not
// installed.
func New(t testing.TB) *Repo {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not available")
	}

	dir := t.TempDir()
	// Resolve symlinked temp dirs so paths match `git rev-parse --show-toplevel`.
	if resolved, err := filepath.EvalSymlinks(dir); err == nil {
		dir = resolved
	}

	r := &Repo{t: t, Dir: dir}
	r.Git("init", "-q")
	r.Git("config", "user.email", "test@example.com")
	r.Git("config", "user.name", "Test User")
	r.Git("config", "commit.gpgsign", "false")
	return r
}

// Git runs a git command in the repository and returns its trimmed stdout.
func (r *Repo) Git(args ...string) string {
	r.t.Helper()
	return r.gitEnv(nil, args...)
}

func (r *Repo) gitEnv(env []string, args ...string) string {
	r.t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = r.Dir
	cmd.Env = append(os.Environ(), env...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		r.t.Fatalf("git %v failed: %v\nOutput: %s", args, err, out)
	}
	return strings.TrimSpace(string(out))
}

// Write creates or replaces a file, creating parent directories.
func (r *Repo) Write(path, content string) string {
	r.t.Helper()
	full := filepath.Join(r.Dir, path)
	require.NoError(r.t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(r.t, os.WriteFile(full, []byte(content), 0o644))
	return full
}

// Commit stages everything and commits it as author at when. It returns the
// new commit's SHA.
func (r *Repo) Commit(author Author, when time.Time, message string) string {
	r.t.Helper()
	r.Git("add", "-A")
	date := fmt.Sprintf("%d %s", when.Unix(), when.Format("-0700"))
	r.gitEnv([]string{
		"GIT_AUTHOR_NAME=" + author.Name,
		"GIT_AUTHOR_EMAIL=" + author.Email,
		"GIT_AUTHOR_DATE=" + date,
		"GIT_COMMITTER_DATE=" + date,
	}, "commit", "-q", "-m", message)
	return r.Git("rev-parse", "HEAD")
}
