// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli wires together the hopline root Cobra command and its
// single `--config` flag (spec §6, expansion §6: a cobra-based entry
// point even though there is only one subcommand-less command, matching
// the teacher's own CLI construction style).
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"hopline/pkg/config"
)

// NewRootCommand constructs the hopline root Cobra command: load
// Configuration, wire its Producer and collaborators, and drive the
// Engine Loop until the Producer is exhausted.
func NewRootCommand() *cobra.Command {
	version := os.Getenv("HOPLINE_VERSION")
	if version == "" {
		version = "0.0.0-dev"
	}

	var cfgPath string

	cmd := &cobra.Command{
		Use:           "hopline",
		Short:         "hopline – distributed message-driven pipeline runtime",
		Long:          "hopline consumes messages carrying their own processing plan, runs each step's command against localized assets, and dispatches the result onward.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cfgPath)
		},
	}

	cmd.Flags().StringVarP(&cfgPath, "config", "c", config.DefaultConfigPath, "path to the hopline config file")

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number of hopline",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := cmd.OutOrStdout().Write([]byte("hopline version " + version + "\n"))
			return err
		},
	})

	return cmd
}
