package language

import (
	"context"

	"github.com/precheck-dev/precheck/internal/hook"
)

func init() {
	Register(System{})
}

// System runs hooks with whatever the ambient environment provides. No
// environment is ever installed.
type System struct{}

func (System) Name() string           { return "system" }
func (System) NeedsInstall() bool     { return false }
func (System) DefaultVersion() string { return "system" }

func (System) EnvironmentDir(root, version string) string { return "" }

func (System) Install(ctx context.Context, env Env) error { return nil }

func (System) CheckHealth(ctx context.Context, env Env) error { return nil }

func (s System) Run(ctx context.Context, hk *hook.Hook, files []string, opts RunOptions) (int, []byte, error) {
	argv, err := splitEntry(hk.Entry)
	if err != nil {
		return 1, nil, err
	}

	environ := buildEnviron(environSpec{}, opts.ExtraEnv)

	return runByBatch(ctx, hk, files, opts, func(ctx context.Context, batch []string) (int, []byte) {
		return runEntry(ctx, hk, argv, batch, environ, "")
	})
}
