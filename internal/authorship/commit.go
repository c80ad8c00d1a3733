// SPDX-License-Identifier: AGPL-3.0-or-later

package authorship

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/bartekus/gitauthors/internal/blame"
)

// TimeLayout renders commit times the way `date` does in the C locale,
// followed by the numeric UTC offset.
const TimeLayout = "Mon Jan _2 15:04:05 2006 -0700"

var coAuthorRe = regexp.MustCompile(`Co-authored-by: (.*) <(.*)>`)

// Commit is the metadata of one commit. It is immutable once created.
type Commit struct {
	sha       string
	author    *Author
	when      time.Time
	summary   string
	coAuthors []*Author
}

func (c *Commit) SHA() string { return c.sha }

// Author is the commit's primary author.
func (c *Commit) Author() *Author { return c.author }

func (c *Commit) Summary() string { return c.summary }

// Time is the authored time in the author's UTC offset.
func (c *Commit) Time() time.Time { return c.when }

// TimeString is Time rendered with TimeLayout.
func (c *Commit) TimeString() string { return FormatTime(c.when) }

// CoAuthors lists the authors named in Co-authored-by trailers. It is empty
// unless add_co_authors is set.
func (c *Commit) CoAuthors() []*Author { return append([]*Author(nil), c.coAuthors...) }

// IsUncommitted reports whether c stands for working tree changes.
func (c *Commit) IsUncommitted() bool { return blame.IsUncommitted(c.sha) }

// Commit returns the commit for sha, creating it from meta on first sight.
// meta is ignored for known commits.
//
// With add_co_authors set, a new commit's log message is scanned for
// Co-authored-by trailers. A failing log lookup returns an error wrapping
// ErrCoAuthors and registers nothing.
// Co-authors never receive line credit.
func (r *Repository) Commit(ctx context.Context, sha string, meta blame.Meta) (*Commit, error) {
	sha = strings.ToLower(sha)
	if c, ok := r.commits[sha]; ok {
		return c, nil
	}

	when, err := commitTime(meta.AuthorTime, meta.AuthorTZ)
	if err != nil {
		return nil, fmt.Errorf("%w: commit %s: %v", blame.ErrMalformedRecord, sha, err)
	}

	var trailers [][2]string
	if r.cfg.AddCoAuthors && !blame.IsUncommitted(sha) {
		trailers, err = r.coAuthors(ctx, sha)
		if err != nil {
			return nil, err
		}
	}

	// Nothing is registered until the log lookup has succeeded.
	c := &Commit{
		sha:     sha,
		author:  r.Author(meta.Author, meta.AuthorMail),
		when:    when,
		summary: meta.Summary,
	}
	for _, tr := range trailers {
		c.coAuthors = append(c.coAuthors, r.Author(tr[0], tr[1]))
	}

	r.commits[sha] = c
	if r.pending != nil {
		r.pending.commits = append(r.pending.commits, sha)
	}
	return c, nil
}

// coAuthors runs `git log -1 <sha>` and returns the name and email of every
// Co-authored-by trailer. Failures wrap ErrCoAuthors.
func (r *Repository) coAuthors(ctx context.Context, sha string) ([][2]string, error) {
	res, err := r.runner.Run(ctx, "log", "-1", sha)
	if err != nil {
		return nil, fmt.Errorf("%w of %s: %w", ErrCoAuthors, sha, err)
	}
	if len(res.Stdout) == 0 {
		return nil, fmt.Errorf("%w of %s: empty log output", ErrCoAuthors, sha)
	}

	var out [][2]string
	for _, line := range res.Stdout {
		if strings.HasPrefix(line, "Author: ") {
			continue
		}
		m := coAuthorRe.FindStringSubmatch(line)
		if m == nil || m[1] == "" || m[2] == "" {
			continue
		}
		out = append(out, [2]string{m[1], m[2]})
	}
	return out, nil
}

// commitTime converts a unix timestamp and a ±hhmm offset into a time in
// that offset.
func commitTime(unix, tz string) (time.Time, error) {
	secs, err := strconv.ParseInt(strings.TrimSpace(unix), 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("author-time %q: %w", unix, err)
	}
	offset, err := parseOffset(strings.TrimSpace(tz))
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(secs, 0).In(time.FixedZone("", offset)), nil
}

// parseOffset returns the offset in seconds east of UTC. Hours and minutes
// both carry the sign, so "-0130" is one and a half hours west.
func parseOffset(tz string) (int, error) {
	if len(tz) != 5 || (tz[0] != '+' && tz[0] != '-') {
		return 0, fmt.Errorf("author-tz %q: want ±hhmm", tz)
	}
	hours, err := strconv.Atoi(tz[:3])
	if err != nil {
		return 0, fmt.Errorf("author-tz %q: %w", tz, err)
	}
	minutes, err := strconv.Atoi(tz[:1] + tz[3:])
	if err != nil {
		return 0, fmt.Errorf("author-tz %q: %w", tz, err)
	}
	return hours*3600 + minutes*60, nil
}

// FormatTime renders t with TimeLayout. The zero time renders as "".
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(TimeLayout)
}
