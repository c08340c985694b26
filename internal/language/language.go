// Package language implements the per-language backend abstraction. Every
// supported language provides install/health/run behind one interface,
// selected through a registry keyed by language name. Adding a language means
// adding one implementation and registering it; nothing in the orchestration
// layers changes.
package language

import (
	"context"
	"fmt"
	"sort"

	"github.com/precheck-dev/precheck/internal/hook"
)

// Env describes the environment a backend installs into or runs from.
type Env struct {
	// Path is the environment directory, computed by EnvironmentDir.
	Path string
	// Version is the resolved language version.
	Version string
	// Dependencies are the hook's additional dependencies.
	Dependencies []string
	// RepoPath is the cloned repository, empty for local hooks.
	RepoPath string
	// ToolsDir is the store's directory for language-runtime downloads.
	ToolsDir string
}

// RunOptions carries per-run parameters shared by all backends.
type RunOptions struct {
	// ExtraEnv is injected into the hook process environment.
	ExtraEnv map[string]string
	// Parallelism bounds concurrent batch execution; 0 means the number of
	// CPUs.
	Parallelism int
}

// Language is the capability interface implemented once per supported
// language.
type Language interface {
	// Name returns the language tag used in configuration.
	Name() string

	// NeedsInstall reports whether the language requires an isolated
	// environment at all.
	NeedsInstall() bool

	// DefaultVersion is the built-in language version used when no
	// configuration layer specifies one.
	DefaultVersion() string

	// EnvironmentDir returns the environment directory for a version under
	// the given install root. It is a pure function: repeated calls with
	// identical inputs return identical paths and never race. Languages that
	// need no install return "".
	EnvironmentDir(root, version string) string

	// Install provisions the environment. It must be idempotent given
	// identical inputs.
	Install(ctx context.Context, env Env) error

	// CheckHealth verifies a previously installed environment is usable.
	CheckHealth(ctx context.Context, env Env) error

	// Run executes the hook's entry against the given files, batching as
	// needed. Stdout and stderr are concatenated (output then error) into the
	// returned buffer. A missing or unknown exit status normalizes to 1.
	Run(ctx context.Context, hk *hook.Hook, files []string, opts RunOptions) (int, []byte, error)
}

var registry = map[string]Language{}

// Register adds a backend to the registry. Called from backend init funcs.
func Register(l Language) {
	registry[l.Name()] = l
}

// Get returns the backend for a language name.
func Get(name string) (Language, error) {
	l, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unsupported language: %s (known: %v)", name, Names())
	}
	return l, nil
}

// Names returns the registered language names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
