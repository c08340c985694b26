package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/precheck-dev/precheck/internal/logger"
)

// Version set via ldflags during build
var version = "dev"

// exitCode carries the hook-run outcome out of cobra; a failing hook is not a
// command error, so it is not routed through RunE's error return.
var exitCode int

func main() {
	if err := fang.Execute(context.Background(), rootCmd, fang.WithVersion(version)); err != nil {
		logger.Error("Command execution failed: %v", err)
		_ = logger.Close()
		os.Exit(1)
	}
	_ = logger.Close()
	os.Exit(exitCode)
}

var rootCmd = &cobra.Command{
	Use:   "precheck",
	Short: "Fast, language-aware git hook runner",
	Long: `precheck runs the hooks configured in a project's .precheck.yaml.

Hook definitions live in the repositories that publish them; the project
config pins each repo to a revision and may override individual hook fields.
Repositories and language environments are cached under the precheck cache
directory and reused across runs.`,
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateConfigCmd)
	rootCmd.AddCommand(validateManifestCmd)
	rootCmd.AddCommand(cleanCmd)
}
