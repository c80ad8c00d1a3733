// SPDX-License-Identifier: AGPL-3.0-or-later

/*
gitauthors - per-page and project-wide authorship statistics from git blame.

Copyright (C) 2025  Bartek Kus

This program is free software licensed under the terms of the GNU AGPL v3 or later.

See https://www.gnu.org/licenses/ for license details.

*/

package commands

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// globals holds the persistent flags and the logger they configure.
type globals struct {
	dir        string
	configPath string
	format     string
	output     string
	verbose    bool

	log *logrus.Logger
}

// NewRootCmd constructs the gitauthors root Cobra command.
func NewRootCmd() *cobra.Command {
	version := os.Getenv("GITAUTHORS_VERSION")
	if version == "" {
		version = "0.0.0-dev"
	}

	g := &globals{log: logrus.New()}

	cmd := &cobra.Command{
		Use:   "gitauthors",
		Short: "Authorship statistics from git blame",
		Long: `gitauthors blames documentation pages and reports who wrote how many of
their lines, per page and across the whole project.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			g.log.SetOutput(cmd.ErrOrStderr())
			g.log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
			g.log.SetLevel(logrus.InfoLevel)
			if g.verbose {
				g.log.SetLevel(logrus.DebugLevel)
			}
			return nil
		},
	}

	// Global flags
	pf := cmd.PersistentFlags()
	pf.StringVarP(&g.dir, "dir", "C", ".", "directory inside the git repository")
	pf.StringVarP(&g.configPath, "config", "c", "", "config file (default: .gitauthors.yaml in --dir)")
	pf.StringVarP(&g.format, "format", "f", "text", "output format: text, markdown, html, json or yaml")
	pf.StringVarP(&g.output, "output", "o", "", "write output to this file instead of stdout")
	pf.BoolVarP(&g.verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number of gitauthors",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "gitauthors version %s\n", version)
		},
	})

	cmd.AddCommand(newPageCmd(g))
	cmd.AddCommand(newSiteCmd(g))
	cmd.AddCommand(newConfigCmd(g))

	return cmd
}
