package language

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"unicode"

	"github.com/precheck-dev/precheck/internal/hook"
	"github.com/precheck-dev/precheck/internal/logger"
)

func init() {
	Register(Python{})
}

// Python installs hooks into per-version virtualenvs and runs them with the
// venv's bin directory authoritative on PATH. It is the reference
// environment-backed backend.
type Python struct{}

func (Python) Name() string           { return "python" }
func (Python) NeedsInstall() bool     { return true }
func (Python) DefaultVersion() string { return "python3" }

// EnvironmentDir is a pure function of the install root and version; repeated
// calls never race or duplicate installs.
func (Python) EnvironmentDir(root, version string) string {
	return filepath.Join(root, "py_env-"+version)
}

// Install creates the virtualenv and installs the hook repository plus any
// additional dependencies into it.
func (p Python) Install(ctx context.Context, env Env) error {
	python := pythonExecutable(env.Version)

	logger.Debug("Creating virtualenv at %s with %s", env.Path, python)
	if err := runQuiet(ctx, "", nil, python, "-m", "venv", env.Path); err != nil {
		return fmt.Errorf("failed to create virtualenv: %w", err)
	}

	pip := []string{filepath.Join(binDir(env.Path), "python"), "-m", "pip", "install", "--quiet"}
	pipEnv := []string{"VIRTUAL_ENV=" + env.Path}

	switch {
	case env.RepoPath != "":
		args := append(pip[1:], ".")
		args = append(args, env.Dependencies...)
		if err := runQuiet(ctx, env.RepoPath, pipEnv, pip[0], args...); err != nil {
			return fmt.Errorf("failed to install hook repo: %w", err)
		}
	case len(env.Dependencies) > 0:
		args := append(pip[1:], env.Dependencies...)
		if err := runQuiet(ctx, "", pipEnv, pip[0], args...); err != nil {
			return fmt.Errorf("failed to install dependencies: %w", err)
		}
	default:
		logger.Debug("No dependencies to install")
	}

	return nil
}

// CheckHealth verifies the venv's interpreter still answers.
func (p Python) CheckHealth(ctx context.Context, env Env) error {
	python := filepath.Join(binDir(env.Path), "python")
	if err := runQuiet(ctx, "", nil, python, "--version"); err != nil {
		return fmt.Errorf("environment at %s is unhealthy: %w", env.Path, err)
	}
	return nil
}

// Run executes the hook's entry in the environment, batching the filenames.
func (p Python) Run(ctx context.Context, hk *hook.Hook, files []string, opts RunOptions) (int, []byte, error) {
	argv, err := splitEntry(hk.Entry)
	if err != nil {
		return 1, nil, err
	}

	environ := buildEnviron(environSpec{
		set:         map[string]string{"VIRTUAL_ENV": hk.EnvPath},
		remove:      []string{"PYTHONHOME"},
		prependPath: binDir(hk.EnvPath),
	}, opts.ExtraEnv)

	return runByBatch(ctx, hk, files, opts, func(ctx context.Context, batch []string) (int, []byte) {
		return runEntry(ctx, hk, argv, batch, environ, "")
	})
}

// pythonExecutable maps a resolved language version to an interpreter name.
// "python3" and "default" use the ambient python3; a bare version like "3.12"
// becomes python3.12; anything else is taken as an executable name or path.
func pythonExecutable(version string) string {
	switch version {
	case "", "default", "python3", "system":
		return "python3"
	}
	if unicode.IsDigit(rune(version[0])) {
		return "python" + version
	}
	return version
}

func binDir(envPath string) string {
	if runtime.GOOS == "windows" {
		return filepath.Join(envPath, "Scripts")
	}
	return filepath.Join(envPath, "bin")
}

// runQuiet runs a command discarding stdout, folding stderr into the error.
func runQuiet(ctx context.Context, dir string, extraEnv []string, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	if len(extraEnv) > 0 {
		cmd.Env = append(cmd.Environ(), extraEnv...)
	}

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return fmt.Errorf("%s: %s: %w", name, msg, err)
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}
