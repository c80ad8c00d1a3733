package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bartekus/gitauthors/cmd/gitauthors/internal/clierr"
	"github.com/bartekus/gitauthors/internal/authorship"
	"github.com/bartekus/gitauthors/internal/blame"
	"github.com/bartekus/gitauthors/internal/config"
	"github.com/bartekus/gitauthors/internal/gitcmd"
	"github.com/bartekus/gitauthors/internal/render"
	"github.com/bartekus/gitauthors/internal/testutil/gitrepo"
)

var (
	ann = gitrepo.Author{Name: "Ann", Email: "ann@example.com"}
	bob = gitrepo.Author{Name: "Bob", Email: "Bob@Example.com"}
)

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err = cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

// docsRepo has docs/index.md (Ann 2 lines, Bob 1) and docs/guide.md (Bob 1),
// plus an untracked docs/draft.md and a tracked non-Markdown file.
func docsRepo(t *testing.T) *gitrepo.Repo {
	t.Helper()
	r := gitrepo.New(t)
	r.Write("docs/index.md", "one\ntwo\n")
	r.Write("notes.txt", "not a page\n")
	r.Commit(ann, time.Unix(1500000000, 0).In(time.FixedZone("", 2*3600)), "first")
	r.Write("docs/index.md", "one\ntwo\nthree\n")
	r.Write("docs/guide.md", "guide\n")
	r.Commit(bob, time.Unix(1600000000, 0).In(time.FixedZone("", -5*3600)), "second")
	r.Write("docs/draft.md", "draft\n")
	return r
}

func TestRootHelp(t *testing.T) {
	out, _, err := execute(t, "--help")
	require.NoError(t, err)
	for _, c := range []string{"page", "site", "config", "version", "completion", "help"} {
		assert.Contains(t, out, c)
	}
	for _, f := range []string{"--dir", "--config", "--format", "--output", "--verbose"} {
		assert.Contains(t, out, f)
	}
}

func TestVersion(t *testing.T) {
	t.Setenv("GITAUTHORS_VERSION", "1.2.3")
	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "gitauthors version 1.2.3\n", out)
}

func TestPage_JSON(t *testing.T) {
	r := docsRepo(t)
	out, _, err := execute(t, "page", "-C", r.Dir, "-f", "json", "docs/index.md")
	require.NoError(t, err)

	var rep render.PageReport
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, "docs/index.md", rep.Path)
	assert.Equal(t, "blamed", rep.Outcome)
	assert.Equal(t, 3, rep.TotalLines)
	require.Len(t, rep.Authors, 2)

	assert.Equal(t, "Ann", rep.Authors[0].Name)
	assert.Equal(t, 2, rep.Authors[0].Lines)
	assert.Equal(t, "66.67%", rep.Authors[0].Contribution)
	assert.Equal(t, "Fri Jul 14 04:40:00 2017 +0200", rep.Authors[0].LastDatetime)

	assert.Equal(t, "bob@example.com", rep.Authors[1].Email)
	assert.Equal(t, 1, rep.Authors[1].Lines)
	assert.Equal(t, 1, rep.Authors[1].LinesAllPages)
	assert.Equal(t, "33.33%", rep.Authors[1].Contribution)
}

func TestPage_Uncommitted(t *testing.T) {
	r := docsRepo(t)
	out, logs, err := execute(t, "page", "-C", r.Dir, "docs/draft.md")
	require.NoError(t, err)
	assert.Equal(t, "docs/draft.md: 0 lines, no-history\n", out)
	assert.Contains(t, logs, "docs/draft.md has not been committed yet. Lines are not counted")
}

func TestPage_StrictFailsOnUncommitted(t *testing.T) {
	r := docsRepo(t)
	t.Setenv("GITAUTHORS_STRICT", "true")
	_, _, err := execute(t, "page", "-C", r.Dir, "docs/draft.md")
	require.Error(t, err)
	assert.Equal(t, clierr.Runtime, clierr.ExitCodeOf(err))
	assert.Contains(t, err.Error(), "blaming docs/draft.md")
}

func TestPage_HTMLToFile(t *testing.T) {
	r := docsRepo(t)
	target := filepath.Join(t.TempDir(), "byline.html")
	out, _, err := execute(t, "page", "-C", r.Dir, "-f", "html", "-o", target, "docs/guide.md")
	require.NoError(t, err)
	assert.Empty(t, out)

	got, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "<span class='git-page-authors git-authors'><a href='mailto:bob@example.com'>Bob</a></span>\n", string(got))
}

func TestSite_Text(t *testing.T) {
	r := docsRepo(t)
	out, _, err := execute(t, "site", "-C", r.Dir)
	require.NoError(t, err)
	assert.Equal(t, "4 lines across 2 pages\n  Ann <ann@example.com>\n  Bob <bob@example.com>\n", out)
}

func TestSite_ExcludeAndLineCount(t *testing.T) {
	r := docsRepo(t)
	r.Write(".gitauthors.yaml", "exclude:\n  - docs/guide.md\nshow_line_count: true\nshow_email_address: false\n")
	out, _, err := execute(t, "site", "-C", r.Dir)
	require.NoError(t, err)
	assert.Equal(t, "3 lines across 1 page\n  Ann: 2 lines\n  Bob: 1 line\n", out)
}

func TestSite_Disabled(t *testing.T) {
	r := docsRepo(t)
	cfgPath := r.Write("off.yaml", "enabled: false\n")
	out, logs, err := execute(t, "site", "-C", r.Dir, "--config", cfgPath)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Contains(t, logs, "disabled")
}

func TestSite_NotARepository(t *testing.T) {
	dir := t.TempDir()
	_, _, err := execute(t, "site", "-C", dir)
	require.Error(t, err)
	assert.Equal(t, clierr.Runtime, clierr.ExitCodeOf(err))

	t.Setenv("GITAUTHORS_FALLBACK_TO_EMPTY", "true")
	out, _, err := execute(t, "site", "-C", dir)
	require.NoError(t, err)
	assert.Equal(t, "0 lines across 0 pages\n", out)
}

func TestUsageErrors(t *testing.T) {
	_, _, err := execute(t, "site", "-f", "xml")
	require.Error(t, err)
	assert.Equal(t, clierr.Usage, clierr.ExitCodeOf(err))

	_, _, err = execute(t, "config", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Equal(t, clierr.Usage, clierr.ExitCodeOf(err))
}

func TestConfig_Print(t *testing.T) {
	out, _, err := execute(t, "config", "-C", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "sort_authors_by: name\n")
	assert.Contains(t, out, "mailto:{email}")
	assert.Contains(t, out, "count_empty_lines: true\n")
}

// failingRunner wraps a real runner and fails the subcommands it names.
type failingRunner struct {
	gitcmd.Runner
	fail    string
	garbage string
}

func (f failingRunner) Run(ctx context.Context, sub string, args ...string) (*gitcmd.Result, error) {
	switch {
	case sub == f.fail:
		return nil, &gitcmd.CommandError{Args: append([]string{"git", sub}, args...), ExitCode: 128, Stderr: "fatal: bad object"}
	case sub == "blame" && f.garbage != "" && strings.HasSuffix(args[len(args)-1], f.garbage):
		return &gitcmd.Result{Stdout: []string{"\tcontent without a header"}}, nil
	}
	return f.Runner.Run(ctx, sub, args...)
}

func TestBlamePages(t *testing.T) {
	r := docsRepo(t)
	logger, hook := logtest.NewNullLogger()
	open := func(runner gitcmd.Runner, mutate func(*config.Config)) *authorship.Repository {
		cfg := config.Default()
		mutate(cfg)
		repo, err := authorship.New(r.Dir, runner, cfg, authorship.WithLogger(logger))
		require.NoError(t, err)
		return repo
	}
	pages := []string{"docs/guide.md", "docs/index.md"}

	t.Run("malformed page is skipped", func(t *testing.T) {
		hook.Reset()
		repo := open(failingRunner{Runner: gitcmd.NewExecRunner(r.Dir), garbage: "guide.md"}, func(*config.Config) {})
		require.NoError(t, blamePages(context.Background(), repo, pages, false, logger))
		assert.Equal(t, 3, repo.TotalLines())
		require.NotNil(t, hook.LastEntry())
		assert.Equal(t, "skipping page", hook.LastEntry().Message)
	})

	t.Run("malformed page fails in strict mode", func(t *testing.T) {
		repo := open(failingRunner{Runner: gitcmd.NewExecRunner(r.Dir), garbage: "guide.md"}, func(*config.Config) {})
		err := blamePages(context.Background(), repo, pages, true, logger)
		require.ErrorIs(t, err, blame.ErrMalformedRecord)
	})

	t.Run("co-author failure aborts outside strict mode", func(t *testing.T) {
		repo := open(failingRunner{Runner: gitcmd.NewExecRunner(r.Dir), fail: "log"}, func(c *config.Config) {
			c.AddCoAuthors = true
		})
		err := blamePages(context.Background(), repo, pages, false, logger)
		require.ErrorIs(t, err, authorship.ErrCoAuthors)
		assert.Equal(t, clierr.Runtime, clierr.ExitCodeOf(err))
		assert.Contains(t, err.Error(), "blaming docs/guide.md")
		assert.Empty(t, repo.Authors())
		assert.Empty(t, repo.Pages())
	})
}
