package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/precheck-dev/precheck/internal/config"
	"github.com/precheck-dev/precheck/internal/store"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove cached repositories and environments",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		settings, err := config.LoadSettings()
		if err != nil {
			return err
		}
		st, err := store.New(settings.CacheDir)
		if err != nil {
			return err
		}
		if err := st.Clean(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Cleaned %s\n", settings.CacheDir)
		return nil
	},
}
