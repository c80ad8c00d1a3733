package authorship

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/bartekus/gitauthors/internal/blame"
	"github.com/bartekus/gitauthors/internal/config"
	"github.com/bartekus/gitauthors/internal/gitcmd"
)

const testRoot = "/repo"

// line is one line of a fake blame: the commit that last touched it and
// its content.
type line struct {
	c       fakeCommit
	content string
}

type fakeCommit struct {
	sha     string
	name    string
	mail    string
	time    int64
	tz      string
	summary string
}

func sha(n int) string { return fmt.Sprintf("%040x", n) }

var (
	tim = fakeCommit{sha: sha(1), name: "Tim", mail: "abc@abc.com", time: 1500000000, tz: "+0200", summary: "first"}
	// tim2 reuses Tim's email under another display name.
	tim2 = fakeCommit{sha: sha(2), name: "Tim2", mail: "ABC@abc.com", time: 1600000000, tz: "+0200", summary: "second"}
	john = fakeCommit{sha: sha(3), name: "John", mail: "john@abc.com", time: 1700000000, tz: "-0500", summary: "third"}

	uncommitted = fakeCommit{sha: blame.UncommittedSHA, name: "Not Committed Yet", mail: "not.committed.yet", time: 1800000000, tz: "+0000", summary: "Version of page.md from page.md"}
)

// porcelain renders lines the way `git blame --porcelain` does: metadata
// only on the first sighting of each commit.
func porcelain(lines ...line) string {
	var b strings.Builder
	seen := map[string]bool{}
	for i, l := range lines {
		fmt.Fprintf(&b, "%s %d %d 1\n", l.c.sha, i+1, i+1)
		if !seen[l.c.sha] {
			seen[l.c.sha] = true
			fmt.Fprintf(&b, "author %s\n", l.c.name)
			fmt.Fprintf(&b, "author-mail <%s>\n", l.c.mail)
			fmt.Fprintf(&b, "author-time %d\n", l.c.time)
			fmt.Fprintf(&b, "author-tz %s\n", l.c.tz)
			fmt.Fprintf(&b, "committer %s\n", l.c.name)
			fmt.Fprintf(&b, "committer-mail <%s>\n", l.c.mail)
			fmt.Fprintf(&b, "summary %s\n", l.c.summary)
			fmt.Fprintf(&b, "filename page.md\n")
		}
		fmt.Fprintf(&b, "\t%s\n", l.content)
	}
	return b.String()
}

// fakeRunner serves canned git output keyed by blamed path and logged SHA.
type fakeRunner struct {
	toplevel string
	blames   map[string]string
	logs     map[string]string
	logErr   error
	logErrs  map[string]error
	calls    []string
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		toplevel: testRoot,
		blames:   map[string]string{},
		logs:     map[string]string{},
		logErrs:  map[string]error{},
	}
}

func (f *fakeRunner) file(rel string, lines ...line) *fakeRunner {
	f.blames[testRoot+"/"+rel] = porcelain(lines...)
	return f
}

func (f *fakeRunner) Run(_ context.Context, sub string, args ...string) (*gitcmd.Result, error) {
	argv := append([]string{sub}, args...)
	f.calls = append(f.calls, strings.Join(argv, " "))

	fail := func(code int, stderr string) (*gitcmd.Result, error) {
		return nil, &gitcmd.CommandError{
			Args:     append([]string{"git"}, argv...),
			ExitCode: code,
			Stderr:   stderr,
			Err:      fmt.Errorf("exit status %d", code),
		}
	}

	switch sub {
	case "rev-parse":
		if f.toplevel == "" {
			return fail(128, "fatal: not a git repository (or any of the parent directories): .git\n")
		}
		return &gitcmd.Result{Stdout: []string{f.toplevel}}, nil
	case "blame":
		path := args[len(args)-1]
		out, ok := f.blames[path]
		if !ok {
			return fail(128, fmt.Sprintf("fatal: no such path '%s' in HEAD\n", path))
		}
		return &gitcmd.Result{Stdout: gitcmd.SplitLines(out)}, nil
	case "log":
		if f.logErr != nil {
			return nil, f.logErr
		}
		if err := f.logErrs[args[len(args)-1]]; err != nil {
			return nil, err
		}
		return &gitcmd.Result{Stdout: gitcmd.SplitLines(f.logs[args[len(args)-1]])}, nil
	}
	return fail(1, "unexpected subcommand "+sub)
}

func (f *fakeRunner) count(prefix string) int {
	n := 0
	for _, c := range f.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

// newTestRepo builds a Repository over runner with a silent logger. mutate
// adjusts the default configuration.
func newTestRepo(t *testing.T, runner gitcmd.Runner, mutate func(*config.Config), opts ...Option) (*Repository, *logtest.Hook) {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(cfg)
	}
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	r, err := New(testRoot, runner, cfg, append([]Option{WithLogger(logger)}, opts...)...)
	require.NoError(t, err)
	return r, hook
}

func names(authors []*Author) []string {
	out := make([]string, len(authors))
	for i, a := range authors {
		out[i] = a.Name()
	}
	return out
}
