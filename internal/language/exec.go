package language

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	shellwords "github.com/mattn/go-shellwords"

	"github.com/precheck-dev/precheck/internal/hook"
	"github.com/precheck-dev/precheck/internal/logger"
)

// splitEntry parses a hook's entry command into an argv slice.
func splitEntry(entry string) ([]string, error) {
	argv, err := shellwords.Parse(entry)
	if err != nil {
		return nil, fmt.Errorf("failed to parse entry command %q: %w", entry, err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("empty entry command")
	}
	return argv, nil
}

// environSpec describes how a backend shapes the process environment of a
// hook invocation.
type environSpec struct {
	// set overrides or adds variables.
	set map[string]string
	// remove clears ambient variables that would conflict with the
	// environment's runtime.
	remove []string
	// prependPath is put in front of PATH so the environment's executables
	// are authoritative.
	prependPath string
}

// buildEnviron assembles the process environment from the ambient one.
func buildEnviron(spec environSpec, extra map[string]string) []string {
	drop := make(map[string]bool, len(spec.remove)+len(spec.set)+len(extra))
	for _, key := range spec.remove {
		drop[key] = true
	}
	for key := range spec.set {
		drop[key] = true
	}
	for key := range extra {
		drop[key] = true
	}

	var environ []string
	path := os.Getenv("PATH")
	for _, kv := range os.Environ() {
		key, _, ok := strings.Cut(kv, "=")
		if !ok || drop[key] || key == "PATH" {
			continue
		}
		environ = append(environ, kv)
	}

	for key, value := range spec.set {
		environ = append(environ, key+"="+value)
	}
	for key, value := range extra {
		environ = append(environ, key+"="+value)
	}

	if spec.prependPath != "" {
		if path == "" {
			path = spec.prependPath
		} else {
			path = spec.prependPath + string(os.PathListSeparator) + path
		}
	}
	environ = append(environ, "PATH="+path)

	return environ
}

// runEntry executes one invocation of the hook's entry command with the given
// batch of filenames appended. Stdout and stderr are concatenated, output
// then error. A process that fails to report an exit status normalizes to 1.
func runEntry(ctx context.Context, hk *hook.Hook, argv, batch, environ []string, dir string) (int, []byte) {
	args := make([]string, 0, len(argv)-1+len(hk.Args)+len(batch))
	args = append(args, argv[1:]...)
	args = append(args, hk.Args...)
	args = append(args, batch...)

	cmd := exec.CommandContext(ctx, argv[0], args...)
	cmd.Env = environ
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	output := stdout.Bytes()
	output = append(output, stderr.Bytes()...)

	if err != nil {
		code := 1
		if cmd.ProcessState != nil && cmd.ProcessState.ExitCode() > 0 {
			code = cmd.ProcessState.ExitCode()
		}
		if cmd.ProcessState == nil {
			// The process never started; surface the spawn error.
			output = append(output, []byte(err.Error()+"\n")...)
		}
		logger.Debug("Hook %s invocation exited %d", hk.ID, code)
		return code, output
	}

	return 0, output
}
