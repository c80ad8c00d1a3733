// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bartekus/gitauthors/cmd/gitauthors/internal/clierr"
	"github.com/bartekus/gitauthors/internal/render"
)

func newPageCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "page <path>...",
		Short: "Report the authors of individual pages",
		Long: `Blame each page and report its authors. A page git has no history for is
reported without authors, or fails the command when strict is set.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.newSession()
			if err != nil {
				return err
			}
			if s.disabled() {
				return nil
			}
			repo, err := s.open(cmd.Context())
			if err != nil {
				return err
			}

			reports := make([]render.PageReport, 0, len(args))
			for _, arg := range args {
				path, err := s.abs(arg)
				if err != nil {
					return clierr.Wrapf(clierr.Runtime, err, "resolving %s", arg)
				}
				p, err := repo.Page(cmd.Context(), path)
				if err != nil {
					return clierr.Wrapf(clierr.Runtime, err, "blaming %s", arg)
				}
				reports = append(reports, render.NewPageReport(p, s.opts))
			}

			return s.emit(cmd, func(w io.Writer) error {
				return writePages(w, s.format, reports, s.opts)
			})
		},
	}
}

func writePages(w io.Writer, format render.Format, reports []render.PageReport, opts render.Options) error {
	switch format {
	case render.FormatJSON, render.FormatYAML:
		if len(reports) == 1 {
			return render.Encode(w, format, reports[0])
		}
		return render.Encode(w, format, reports)
	}

	parts := make([]string, 0, len(reports))
	for _, rep := range reports {
		switch format {
		case render.FormatHTML:
			parts = append(parts, render.PageHTML(rep.Authors, opts)+"\n")
		case render.FormatMarkdown:
			parts = append(parts, render.PageMarkdown(rep, opts))
		default:
			parts = append(parts, render.PageText(rep, opts))
		}
	}
	sep := ""
	if format == render.FormatMarkdown {
		sep = "\n"
	}
	_, err := io.WriteString(w, strings.Join(parts, sep))
	return err
}
