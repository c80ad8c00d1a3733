// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ci warns when authorship is computed on a CI runner whose shallow
// checkout hides most of the history, which skews every blame towards the
// few commits that were fetched.
package ci

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-git/go-git/v5"

	"github.com/bartekus/gitauthors/internal/gitcmd"
)

// LookupEnv matches os.LookupEnv.
type LookupEnv func(key string) (string, bool)

// Warning is one advisory about the checkout depth.
type Warning struct {
	Provider string
	Message  string
}

func (w Warning) String() string { return w.Provider + ": " + w.Message }

// IsShallow reports whether the repository containing path is a shallow
// clone.
func IsShallow(path string) (bool, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return false, fmt.Errorf("opening repository: %w", err)
	}
	shallow, err := repo.Storer.Shallow()
	if err != nil {
		return false, fmt.Errorf("reading shallow commits: %w", err)
	}
	return len(shallow) > 0, nil
}

// CommitCount returns the number of commits reachable from HEAD.
func CommitCount(ctx context.Context, r gitcmd.Runner) (int, error) {
	res, err := r.Run(ctx, "rev-list", "--count", "HEAD")
	if err != nil {
		return 0, err
	}
	if len(res.Stdout) == 0 {
		return 0, errors.New("git rev-list --count returned nothing")
	}
	n, err := strconv.Atoi(strings.TrimSpace(res.Stdout[0]))
	if err != nil {
		return 0, fmt.Errorf("parsing commit count: %w", err)
	}
	return n, nil
}

// Warnings inspects the checkout at root. It returns nothing for a full
// clone; for a shallow one it returns the advisories for every CI provider
// detected through lookup whose default depth is likely in effect.
func Warnings(ctx context.Context, root string, r gitcmd.Runner, lookup LookupEnv) ([]Warning, error) {
	shallow, err := IsShallow(root)
	if err != nil || !shallow {
		return nil, err
	}
	n, err := CommitCount(ctx, r)
	if err != nil {
		return nil, err
	}
	return evaluate(n, lookup), nil
}

func evaluate(commits int, lookup LookupEnv) []Warning {
	var out []Warning
	set := func(key string) bool {
		_, ok := lookup(key)
		return ok
	}

	// GitLab fetches 50 commits by default.
	if set("GITLAB_CI") && commits < 50 {
		out = append(out, Warning{
			Provider: "gitlab",
			Message:  "shallow git fetch depth may attribute lines to the wrong authors; set GIT_DEPTH to 1000 in .gitlab-ci.yml",
		})
	}
	// actions/checkout fetches a single commit by default.
	if set("GITHUB_ACTIONS") && commits == 1 {
		out = append(out, Warning{
			Provider: "github",
			Message:  "shallow git fetch depth may attribute lines to the wrong authors; set fetch-depth: 0 on actions/checkout",
		})
	}
	// Bitbucket Pipelines fetch 50 commits by default.
	if set("CI") && commits < 50 {
		out = append(out, Warning{
			Provider: "bitbucket",
			Message:  "shallow git fetch depth may attribute lines to the wrong authors; set clone depth to full in bitbucket-pipelines.yml",
		})
	}
	// Azure does not limit depth unless configured to.
	for _, key := range []string{"Agent.Source.Git.ShallowFetchDepth", "AGENT_SOURCE_GIT_SHALLOWFETCHDEPTH"} {
		v, ok := lookup(key)
		if !ok {
			continue
		}
		if depth, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && depth < commits {
			out = append(out, Warning{
				Provider: "azure",
				Message:  "limited fetch depth may attribute lines to the wrong authors; remove the shallow fetch setting",
			})
		}
		break
	}
	return out
}
