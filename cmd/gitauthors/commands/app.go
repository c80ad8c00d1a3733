// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bartekus/gitauthors/cmd/gitauthors/internal/clierr"
	"github.com/bartekus/gitauthors/internal/authorship"
	"github.com/bartekus/gitauthors/internal/ci"
	"github.com/bartekus/gitauthors/internal/config"
	"github.com/bartekus/gitauthors/internal/gitcmd"
	"github.com/bartekus/gitauthors/internal/render"
)

// session is what a reporting command needs once flags are parsed.
type session struct {
	g      *globals
	cfg    *config.Config
	format render.Format
	opts   render.Options
	runner *gitcmd.ExecRunner
}

func (g *globals) newSession() (*session, error) {
	format, err := render.ParseFormat(g.format)
	if err != nil {
		return nil, clierr.Wrap(clierr.Usage, "invalid --format", err)
	}
	cfg, err := config.Load(g.configPath, g.dir)
	if err != nil {
		return nil, clierr.Wrap(clierr.Usage, "loading configuration", err)
	}
	return &session{
		g:      g,
		cfg:    cfg,
		format: format,
		opts:   render.OptionsFrom(*cfg),
		runner: gitcmd.NewExecRunner(g.dir),
	}, nil
}

func (s *session) open(ctx context.Context) (*authorship.Repository, error) {
	repo, err := authorship.Open(ctx, s.runner, s.cfg, authorship.WithLogger(s.g.log))
	if err != nil {
		return nil, clierr.Wrap(clierr.Runtime, "opening repository", err)
	}
	s.warnShallow(ctx, repo.Root())
	return repo, nil
}

func (s *session) warnShallow(ctx context.Context, root string) {
	if root == "" {
		return
	}
	warnings, err := ci.Warnings(ctx, root, s.runner, os.LookupEnv)
	if err != nil {
		s.g.log.WithError(err).Debug("skipping shallow clone check")
		return
	}
	for _, w := range warnings {
		s.g.log.WithField("provider", w.Provider).Warn(w.Message)
	}
}

// abs resolves a command-line path against --dir.
func (s *session) abs(path string) (string, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.g.dir, path)
	}
	return filepath.Abs(path)
}

// emit renders through fn and sends the result to --output or stdout.
func (s *session) emit(cmd *cobra.Command, fn func(w io.Writer) error) error {
	if s.g.output == "" {
		return fn(cmd.OutOrStdout())
	}
	var buf bytes.Buffer
	if err := fn(&buf); err != nil {
		return err
	}
	if err := render.AtomicWrite(s.g.output, buf.Bytes()); err != nil {
		return clierr.Wrap(clierr.Runtime, "writing output", err)
	}
	s.g.log.WithField("path", s.g.output).Debug("report written")
	return nil
}

func (s *session) disabled() bool {
	if s.cfg.Enabled {
		return false
	}
	s.g.log.Info("authorship is disabled by configuration")
	return true
}
