// Package errors defines the error taxonomy used across precheck.
//
// Preparation-phase errors (ConfigError, InvalidURLError, HookNotFoundError,
// StoreError) are fatal: a half-prepared hook set is never executed.
// ExecutionError is non-fatal to the orchestrator; a failing hook never stops
// its siblings.
package errors

import (
	"fmt"
	"runtime/debug"
	"strings"
)

// ConfigError indicates malformed project configuration input.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("failed to read config file %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// InvalidURLError indicates a malformed remote repository reference.
type InvalidURLError struct {
	URL string
	Err error
}

func (e *InvalidURLError) Error() string {
	return fmt.Sprintf("failed to parse URL %q: %v", e.URL, e.Err)
}

func (e *InvalidURLError) Unwrap() error { return e.Err }

// HookNotFoundError indicates a configured hook id that is absent from the
// repository's manifest.
type HookNotFoundError struct {
	Hook string // hook id from the project config
	Repo string // repo descriptor, e.g. "https://example.com/repo@v1.0" or "local"
}

func (e *HookNotFoundError) Error() string {
	return fmt.Sprintf("hook not found: %s in repo %s", e.Hook, e.Repo)
}

// StoreError indicates a clone or environment install failure, wrapped with
// the identity of the failing repository or dependency set.
type StoreError struct {
	Op   string // "clone" or "install"
	Key  string // repo descriptor or environment key
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s failed for %s: %v", e.Op, e.Key, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// ExecutionError indicates a nonzero or abnormal exit from a hook run.
// It is reported but never aborts sibling hooks.
type ExecutionError struct {
	Hook string
	Code int
	Err  error // set when the run failed before producing an exit code
}

func (e *ExecutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("hook %s failed: %v", e.Hook, e.Err)
	}
	return fmt.Sprintf("hook %s exited with code %d", e.Hook, e.Code)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// MultiError collects multiple errors, typically during shutdown or cleanup.
type MultiError struct {
	errs []error
}

// Append adds an error to the collection. Nil errors are ignored.
func (m *MultiError) Append(err error) {
	if err != nil {
		m.errs = append(m.errs, err)
	}
}

// ErrorOrNil returns nil if no errors were collected, otherwise the combined
// error.
func (m *MultiError) ErrorOrNil() error {
	if len(m.errs) == 0 {
		return nil
	}
	return m
}

func (m *MultiError) Error() string {
	if len(m.errs) == 1 {
		return m.errs[0].Error()
	}
	parts := make([]string, len(m.errs))
	for i, err := range m.errs {
		parts[i] = err.Error()
	}
	return fmt.Sprintf("%d errors occurred: %s", len(m.errs), strings.Join(parts, "; "))
}

// Unwrap returns the collected errors for errors.Is/As traversal.
func (m *MultiError) Unwrap() []error { return m.errs }

// PanicError wraps a recovered panic with its stack trace.
type PanicError struct {
	Value      interface{}
	StackTrace string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Recover runs fn and converts any panic into a PanicError.
func Recover(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{
				Value:      r,
				StackTrace: string(debug.Stack()),
			}
		}
	}()
	return fn()
}
