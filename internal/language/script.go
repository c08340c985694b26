package language

import (
	"context"
	"path/filepath"

	"github.com/precheck-dev/precheck/internal/hook"
)

func init() {
	Register(Script{})
}

// Script runs an executable shipped inside the hook repository. The entry's
// first word is resolved relative to the cloned repo; no environment is
// installed.
type Script struct{}

func (Script) Name() string           { return "script" }
func (Script) NeedsInstall() bool     { return false }
func (Script) DefaultVersion() string { return "system" }

func (Script) EnvironmentDir(root, version string) string { return "" }

func (Script) Install(ctx context.Context, env Env) error { return nil }

func (Script) CheckHealth(ctx context.Context, env Env) error { return nil }

func (s Script) Run(ctx context.Context, hk *hook.Hook, files []string, opts RunOptions) (int, []byte, error) {
	argv, err := splitEntry(hk.Entry)
	if err != nil {
		return 1, nil, err
	}
	if hk.RepoPath != "" && !filepath.IsAbs(argv[0]) {
		argv[0] = filepath.Join(hk.RepoPath, argv[0])
	}

	environ := buildEnviron(environSpec{}, opts.ExtraEnv)

	return runByBatch(ctx, hk, files, opts, func(ctx context.Context, batch []string) (int, []byte) {
		return runEntry(ctx, hk, argv, batch, environ, "")
	})
}
