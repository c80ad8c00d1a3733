// SPDX-License-Identifier: AGPL-3.0-or-later

// Package blame runs `git blame --porcelain` and parses its output.
//
// Porcelain output emits one record per line of the file's current revision:
//
//	<sha> <orig-line> <final-line> [<group-size>]
//	author <name>                  (first sighting of <sha> only)
//	author-mail <<email>>
//	author-time <unix-seconds>
//	author-tz <+hhmm>
//	summary <text>
//	...                            (committer-*, previous, filename, boundary)
//	\t<line content>
//
// Metadata is only repeated the first time a commit appears in the output, so
// the parser remembers it per SHA and attaches it to every later line.
package blame

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/bartekus/gitauthors/internal/gitcmd"
)

// UncommittedSHA marks lines that exist only in the working tree.
const UncommittedSHA = "0000000000000000000000000000000000000000"

// ErrMalformedRecord is returned when a record cannot be attributed, e.g. the
// first sighting of a commit lacks one of the required metadata fields.
var ErrMalformedRecord = errors.New("malformed blame record")

// Meta is the raw commit metadata carried by a porcelain record.
type Meta struct {
	Author     string
	AuthorMail string
	AuthorTime string
	AuthorTZ   string
	Summary    string
}

// Line is one line of the blamed file.
type Line struct {
	SHA       string
	OrigLine  int
	FinalLine int
	// Meta is the metadata recorded for SHA on its first sighting.
	Meta    Meta
	Content string
}

// IsUncommitted reports whether sha is the all-zero working tree marker.
func IsUncommitted(sha string) bool {
	return sha != "" && strings.Trim(sha, "0") == ""
}

// File blames path and returns its parsed lines.
func File(ctx context.Context, r gitcmd.Runner, path string) ([]Line, error) {
	res, err := r.Run(ctx, "blame", "--porcelain", "--", path)
	if err != nil {
		return nil, err
	}
	lines, err := ParseLines(res.Stdout)
	if err != nil {
		return nil, fmt.Errorf("parsing blame of %s: %w", path, err)
	}
	return lines, nil
}

// Parse reads porcelain output from r.
func Parse(r io.Reader) ([]Line, error) {
	s := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	s.Buffer(buf, 10*1024*1024)

	p := newParser()
	for s.Scan() {
		if err := p.feed(s.Text()); err != nil {
			return nil, err
		}
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return p.finish()
}

// ParseLines parses porcelain output that has already been split into lines.
func ParseLines(lines []string) ([]Line, error) {
	p := newParser()
	for _, l := range lines {
		if err := p.feed(l); err != nil {
			return nil, err
		}
	}
	return p.finish()
}

const (
	hasAuthor = 1 << iota
	hasMail
	hasTime
	hasTZ
	hasSummary

	hasAll = hasAuthor | hasMail | hasTime | hasTZ | hasSummary
)

type parser struct {
	seen map[string]Meta

	lineNo  int
	pending bool
	cur     Line
	scratch Meta
	fields  int

	out []Line
}

func newParser() *parser {
	return &parser{seen: make(map[string]Meta)}
}

func (p *parser) feed(line string) error {
	p.lineNo++

	if strings.HasPrefix(line, "\t") {
		return p.content(line[1:])
	}
	if line == "" {
		return nil
	}

	key, value, _ := strings.Cut(line, " ")
	if isSHA(key) {
		return p.header(key, value)
	}
	if !p.pending {
		// Stray metadata outside of a record.
		return nil
	}

	switch key {
	case "author":
		p.scratch.Author = value
		p.fields |= hasAuthor
	case "author-mail":
		p.scratch.AuthorMail = value
		p.fields |= hasMail
	case "author-time":
		p.scratch.AuthorTime = value
		p.fields |= hasTime
	case "author-tz":
		p.scratch.AuthorTZ = value
		p.fields |= hasTZ
	case "summary":
		p.scratch.Summary = value
		p.fields |= hasSummary
	}
	return nil
}

func (p *parser) header(sha, rest string) error {
	if p.pending {
		return fmt.Errorf("%w: line %d: record for %s has no content line", ErrMalformedRecord, p.lineNo, p.cur.SHA)
	}
	parts := strings.Fields(rest)
	if len(parts) < 2 {
		return fmt.Errorf("%w: line %d: short header %q", ErrMalformedRecord, p.lineNo, sha+" "+rest)
	}
	orig, err := strconv.Atoi(parts[0])
	if err != nil {
		return fmt.Errorf("%w: line %d: original line number: %v", ErrMalformedRecord, p.lineNo, err)
	}
	final, err := strconv.Atoi(parts[1])
	if err != nil {
		return fmt.Errorf("%w: line %d: final line number: %v", ErrMalformedRecord, p.lineNo, err)
	}

	p.pending = true
	p.cur = Line{SHA: strings.ToLower(sha), OrigLine: orig, FinalLine: final}
	p.scratch = Meta{}
	p.fields = 0
	return nil
}

func (p *parser) content(text string) error {
	if !p.pending {
		return fmt.Errorf("%w: line %d: content line without header", ErrMalformedRecord, p.lineNo)
	}
	p.pending = false

	meta, ok := p.seen[p.cur.SHA]
	if !ok {
		if p.fields&hasAll != hasAll {
			return fmt.Errorf("%w: line %d: first record for %s lacks %s",
				ErrMalformedRecord, p.lineNo, p.cur.SHA, missingFields(p.fields))
		}
		meta = p.scratch
		p.seen[p.cur.SHA] = meta
	}

	p.cur.Meta = meta
	p.cur.Content = text
	p.out = append(p.out, p.cur)
	return nil
}

func (p *parser) finish() ([]Line, error) {
	if p.pending {
		return nil, fmt.Errorf("%w: output ends inside record for %s", ErrMalformedRecord, p.cur.SHA)
	}
	return p.out, nil
}

func missingFields(fields int) string {
	var missing []string
	for _, f := range []struct {
		bit  int
		name string
	}{
		{hasAuthor, "author"},
		{hasMail, "author-mail"},
		{hasTime, "author-time"},
		{hasTZ, "author-tz"},
		{hasSummary, "summary"},
	} {
		if fields&f.bit == 0 {
			missing = append(missing, f.name)
		}
	}
	return strings.Join(missing, ", ")
}

// isSHA accepts SHA-1 and SHA-256 object names.
func isSHA(s string) bool {
	if len(s) != 40 && len(s) != 64 {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') && (c < 'A' || c > 'F') {
			return false
		}
	}
	return true
}
