package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/precheck-dev/precheck/internal/config"
	ierr "github.com/precheck-dev/precheck/internal/errors"
)

var validateConfigCmd = &cobra.Command{
	Use:   "validate-config [path...]",
	Short: "Check project configuration files for errors",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return validateAll(cmd, args, config.ConfigFileName, func(path string) error {
			_, err := config.ReadConfig(path)
			return err
		})
	},
}

var validateManifestCmd = &cobra.Command{
	Use:   "validate-manifest [path...]",
	Short: "Check hook manifest files for errors",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return validateAll(cmd, args, config.ManifestFileName, func(path string) error {
			_, err := config.ReadManifest(path)
			return err
		})
	},
}

// validateAll checks every given path, reporting all failures instead of
// stopping at the first.
func validateAll(cmd *cobra.Command, paths []string, defaultPath string, check func(string) error) error {
	if len(paths) == 0 {
		paths = []string{defaultPath}
	}

	var errs ierr.MultiError
	for _, path := range paths {
		if err := check(path); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, err)
			errs.Append(err)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", path)
	}
	return errs.ErrorOrNil()
}
