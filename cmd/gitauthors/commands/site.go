// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"errors"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/bartekus/gitauthors/cmd/gitauthors/internal/clierr"
	"github.com/bartekus/gitauthors/internal/authorship"
	"github.com/bartekus/gitauthors/internal/render"
	"github.com/bartekus/gitauthors/internal/scanner"
)

func newSiteCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "site",
		Short: "Report project-wide authorship over every tracked page",
		Long: `Blame every tracked Markdown page that is not excluded and report the
project-wide contributor list.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := g.newSession()
			if err != nil {
				return err
			}
			if s.disabled() {
				return nil
			}
			repo, err := s.open(ctx)
			if err != nil {
				return err
			}

			if repo.Root() != "" {
				docs, err := scanner.New(repo.Root()).TrackedDocs(ctx, repo.Filter().ExcludesFile)
				if err != nil {
					return clierr.Wrap(clierr.Runtime, "listing tracked pages", err)
				}
				g.log.WithField("pages", len(docs)).Debug("blaming tracked pages")

				if err := blamePages(ctx, repo, docs, s.cfg.Strict, g.log); err != nil {
					return err
				}
			}

			rep := render.NewSiteReport(repo, s.opts, true)
			return s.emit(cmd, func(w io.Writer) error {
				var out string
				switch s.format {
				case render.FormatJSON, render.FormatYAML:
					return render.Encode(w, s.format, rep)
				case render.FormatHTML:
					out = render.SiteHTML(rep.Authors, s.opts)
				case render.FormatMarkdown:
					out = render.SiteMarkdown(rep, s.opts)
				default:
					out = render.SiteText(rep, s.opts)
				}
				_, err := io.WriteString(w, out)
				return err
			})
		},
	}
}

// blamePages blames every path. Outside strict mode a page that fails is
// logged and skipped, except for co-author lookup failures which always
// abort.
func blamePages(ctx context.Context, repo *authorship.Repository, paths []string, strict bool, log logrus.FieldLogger) error {
	for _, rel := range paths {
		_, err := repo.Page(ctx, rel)
		if err == nil {
			continue
		}
		if strict || ctx.Err() != nil || errors.Is(err, authorship.ErrCoAuthors) {
			return clierr.Wrapf(clierr.Runtime, err, "blaming %s", rel)
		}
		log.WithError(err).WithField("path", rel).Warn("skipping page")
	}
	return nil
}
