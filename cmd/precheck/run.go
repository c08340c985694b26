package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/precheck-dev/precheck/internal/config"
	"github.com/precheck-dev/precheck/internal/git"
	"github.com/precheck-dev/precheck/internal/hook"
	"github.com/precheck-dev/precheck/internal/logger"
	"github.com/precheck-dev/precheck/internal/orchestrator"
	"github.com/precheck-dev/precheck/internal/runner"
	"github.com/precheck-dev/precheck/internal/store"
)

var runFlags struct {
	config   string
	files    []string
	allFiles bool
	stage    string
	verbose  bool
}

var runCmd = &cobra.Command{
	Use:   "run [hook-id...]",
	Short: "Run configured hooks against the staged files",
	Long: `Run the project's hooks.

By default hooks run against the files staged in git at the pre-commit stage.
Pass hook ids or aliases to run a subset; --all-files widens the file set to
the whole tree.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVarP(&runFlags.config, "config", "c", "", "Project config path (default: discover "+config.ConfigFileName+")")
	runCmd.Flags().StringSliceVar(&runFlags.files, "files", nil, "Explicit file list instead of staged files")
	runCmd.Flags().BoolVarP(&runFlags.allFiles, "all-files", "a", false, "Run against every tracked file")
	runCmd.Flags().StringVar(&runFlags.stage, "hook-stage", hook.StagePreCommit, "Stage to run hooks for")
	runCmd.Flags().BoolVarP(&runFlags.verbose, "verbose", "v", false, "Show hook output and diffs for every hook")
}

func runRun(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	ctx := cmd.Context()

	settings, err := config.LoadSettings()
	if err != nil {
		return err
	}

	configPath, err := config.FindConfig(".", runFlags.config)
	if err != nil {
		return err
	}
	project, err := config.ReadConfig(configPath)
	if err != nil {
		return err
	}

	files, err := resolveFiles(cmd)
	if err != nil {
		return err
	}

	st, err := store.New(settings.CacheDir)
	if err != nil {
		return err
	}

	hooks, err := orchestrator.New(st, project, settings.Parallelism).Prepare(ctx)
	if err != nil {
		return err
	}
	hooks = selectHooks(hooks, args)
	if len(args) > 0 && len(hooks) == 0 {
		return fmt.Errorf("no configured hook matches %v", args)
	}

	r := runner.New(settings.Parallelism, runFlags.verbose)
	results, exit, err := r.RunAll(ctx, hooks, files, runFlags.stage)

	color := settings.Color == "always" || (settings.Color == "auto" && isTerminal(os.Stdout))
	runner.NewPrinter(os.Stdout, color, runFlags.verbose).PrintAll(results)

	if err != nil {
		return err
	}
	exitCode = exit
	return nil
}

// resolveFiles picks the candidate file set: explicit --files, the whole
// tracked tree with --all-files, or the staged files.
func resolveFiles(cmd *cobra.Command) ([]string, error) {
	ctx := cmd.Context()
	switch {
	case len(runFlags.files) > 0:
		return runFlags.files, nil
	case runFlags.allFiles:
		return git.LsFiles(ctx, ".")
	default:
		files, err := git.StagedFiles(ctx, ".")
		if err != nil {
			return nil, fmt.Errorf("listing staged files (not a git repository?): %w", err)
		}
		return files, nil
	}
}

// selectHooks keeps hooks whose id or alias matches one of the requested
// names; an empty request keeps everything.
func selectHooks(hooks []*hook.Hook, names []string) []*hook.Hook {
	if len(names) == 0 {
		return hooks
	}
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}
	var out []*hook.Hook
	for _, hk := range hooks {
		if wanted[hk.ID] || (hk.Alias != "" && wanted[hk.Alias]) {
			out = append(out, hk)
		}
	}
	logger.Debug("Selected %d of %d hooks", len(out), len(hooks))
	return out
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
