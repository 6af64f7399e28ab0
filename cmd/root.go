// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "literary-wheel",
		Short: "Spin a wheel of literary cards and rate what it lands on",
		Long: `Literary Wheel serves the bucket, rating and wheel API.

Buckets hold a handful of literary cards. Visitors spin a wheel to pick one,
read it and rate it; the server keeps one rating per visitor per card and
reports running averages.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
		SilenceUsage: true,
	}

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newSimulateCmd())
	cmd.AddCommand(newClearRatingsCmd())
	cmd.AddCommand(newExportRatingsCmd())

	return cmd
}
