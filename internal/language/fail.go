package language

import (
	"context"
	"strings"

	"github.com/precheck-dev/precheck/internal/hook"
)

func init() {
	Register(Fail{})
}

// Fail unconditionally fails, printing the entry as the message followed by
// the offending filenames. Used to forbid files entirely.
type Fail struct{}

func (Fail) Name() string           { return "fail" }
func (Fail) NeedsInstall() bool     { return false }
func (Fail) DefaultVersion() string { return "system" }

func (Fail) EnvironmentDir(root, version string) string { return "" }

func (Fail) Install(ctx context.Context, env Env) error { return nil }

func (Fail) CheckHealth(ctx context.Context, env Env) error { return nil }

func (f Fail) Run(ctx context.Context, hk *hook.Hook, files []string, opts RunOptions) (int, []byte, error) {
	var b strings.Builder
	b.WriteString(hk.Entry)
	b.WriteString("\n\n")
	if hk.PassFilenames {
		for _, file := range files {
			b.WriteString(file)
			b.WriteByte('\n')
		}
	}
	return 1, []byte(b.String()), nil
}
