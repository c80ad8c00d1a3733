package blame

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bartekus/gitauthors/internal/gitcmd"
)

const (
	shaA = "1111111111111111111111111111111111111111"
	shaB = "2222222222222222222222222222222222222222"
)

const twoCommits = shaA + ` 1 1 2
author Tim
author-mail <ABC@abc.com>
author-time 1500000000
author-tz +0200
committer Tim
committer-mail <abc@abc.com>
committer-time 1500000000
committer-tz +0200
summary first commit
boundary
filename docs/page.md
	# Title
` + shaA + " 2 2\n\t\n" + shaB + ` 3 3 1
author John
author-mail <john@abc.com>
author-time 1600000000
author-tz -0130
committer John
committer-mail <john@abc.com>
committer-time 1600000000
committer-tz -0130
summary add line
previous ` + shaA + ` docs/page.md
filename docs/page.md
	John's line
`

func TestParse_GroupsAndContinuations(t *testing.T) {
	lines, err := Parse(strings.NewReader(twoCommits))
	require.NoError(t, err)
	require.Len(t, lines, 3)

	assert.Equal(t, shaA, lines[0].SHA)
	assert.Equal(t, "# Title", lines[0].Content)
	assert.Equal(t, 1, lines[0].FinalLine)
	assert.Equal(t, "Tim", lines[0].Meta.Author)
	assert.Equal(t, "<ABC@abc.com>", lines[0].Meta.AuthorMail)
	assert.Equal(t, "1500000000", lines[0].Meta.AuthorTime)
	assert.Equal(t, "+0200", lines[0].Meta.AuthorTZ)
	assert.Equal(t, "first commit", lines[0].Meta.Summary)

	// Continuation carries the metadata of the first sighting.
	assert.Equal(t, shaA, lines[1].SHA)
	assert.Equal(t, "", lines[1].Content)
	assert.Equal(t, lines[0].Meta, lines[1].Meta)

	assert.Equal(t, shaB, lines[2].SHA)
	assert.Equal(t, "John's line", lines[2].Content)
	assert.Equal(t, "John", lines[2].Meta.Author)
	assert.Equal(t, "-0130", lines[2].Meta.AuthorTZ)
}

func TestParse_RepeatedMetadataIgnored(t *testing.T) {
	// --line-porcelain style output repeats metadata; the first sighting wins.
	in := shaA + ` 1 1 1
author Tim
author-mail <abc@abc.com>
author-time 1500000000
author-tz +0000
summary one
	a
` + shaA + ` 2 2 1
author Someone Else
author-mail <else@abc.com>
author-time 1
author-tz +0000
summary two
	b
`
	lines, err := Parse(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "Tim", lines[1].Meta.Author)
	assert.Equal(t, "one", lines[1].Meta.Summary)
}

func TestParse_Uncommitted(t *testing.T) {
	in := UncommittedSHA + ` 1 1 1
author Not Committed Yet
author-mail <not.committed.yet>
author-time 1700000000
author-tz +0000
committer Not Committed Yet
committer-mail <not.committed.yet>
committer-time 1700000000
committer-tz +0000
summary Version of docs/new.md from docs/new.md
filename docs/new.md
	draft
`
	lines, err := Parse(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.True(t, IsUncommitted(lines[0].SHA))
	assert.Equal(t, "<not.committed.yet>", lines[0].Meta.AuthorMail)
}

func TestParse_Empty(t *testing.T) {
	lines, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestParse_SHA256(t *testing.T) {
	sha := strings.Repeat("ab", 32)
	in := sha + " 1 1 1\nauthor A\nauthor-mail <a@x>\nauthor-time 1\nauthor-tz +0000\nsummary s\n\tx\n"
	lines, err := Parse(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, sha, lines[0].SHA)
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "missing fields on first sighting",
			in:   shaA + " 1 1 1\nauthor Tim\nsummary s\n\tline\n",
			want: "author-mail, author-time, author-tz",
		},
		{
			name: "content without header",
			in:   "\tline\n",
			want: "content line without header",
		},
		{
			name: "header without content",
			in:   shaA + " 1 1 1\nauthor Tim\n" + shaB + " 2 2 1\n",
			want: "has no content line",
		},
		{
			name: "truncated output",
			in:   shaA + " 1 1 1\nauthor Tim\n",
			want: "ends inside record",
		},
		{
			name: "bad line number",
			in:   shaA + " x 1 1\n",
			want: "original line number",
		},
		{
			name: "short header",
			in:   shaA + " 1\n",
			want: "short header",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.in))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedRecord))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestIsUncommitted(t *testing.T) {
	assert.True(t, IsUncommitted(UncommittedSHA))
	assert.True(t, IsUncommitted(strings.Repeat("0", 64)))
	assert.False(t, IsUncommitted(shaA))
	assert.False(t, IsUncommitted(""))
}

type stubRunner struct {
	calls [][]string
	out   string
	err   error
}

func (s *stubRunner) Run(_ context.Context, sub string, args ...string) (*gitcmd.Result, error) {
	s.calls = append(s.calls, append([]string{sub}, args...))
	if s.err != nil {
		return nil, s.err
	}
	return &gitcmd.Result{Stdout: gitcmd.SplitLines(s.out)}, nil
}

func TestFile(t *testing.T) {
	r := &stubRunner{out: twoCommits}
	lines, err := File(context.Background(), r, "/repo/docs/page.md")
	require.NoError(t, err)
	assert.Len(t, lines, 3)
	require.Len(t, r.calls, 1)
	assert.Equal(t, []string{"blame", "--porcelain", "--", "/repo/docs/page.md"}, r.calls[0])
}

func TestFile_PropagatesCommandError(t *testing.T) {
	ce := &gitcmd.CommandError{Args: []string{"git", "blame"}, ExitCode: 128}
	_, err := File(context.Background(), &stubRunner{err: ce}, "x.md")
	got, ok := gitcmd.AsCommandError(err)
	require.True(t, ok)
	assert.Same(t, ce, got)
}

func TestFile_WrapsParseError(t *testing.T) {
	_, err := File(context.Background(), &stubRunner{out: "\torphan\n"}, "x.md")
	require.ErrorIs(t, err, ErrMalformedRecord)
	assert.Contains(t, err.Error(), "x.md")
}
