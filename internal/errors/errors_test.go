package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestHookNotFoundError_Message(t *testing.T) {
	err := &HookNotFoundError{Hook: "missing-hook", Repo: "https://example.com/repo@v1.0"}

	msg := err.Error()
	if !strings.Contains(msg, "missing-hook") {
		t.Errorf("error message should name the hook id, got %q", msg)
	}
	if !strings.Contains(msg, "https://example.com/repo@v1.0") {
		t.Errorf("error message should name the repo descriptor, got %q", msg)
	}
}

func TestStoreError_Unwrap(t *testing.T) {
	inner := stderrors.New("connection refused")
	err := &StoreError{Op: "clone", Key: "https://example.com/repo@main", Err: inner}

	if !stderrors.Is(err, inner) {
		t.Error("StoreError should unwrap to the inner error")
	}
	if !strings.Contains(err.Error(), "clone") {
		t.Errorf("error message should carry the operation, got %q", err.Error())
	}
}

func TestInvalidURLError_Unwrap(t *testing.T) {
	inner := stderrors.New("missing scheme")
	err := &InvalidURLError{URL: "not-a-url", Err: inner}

	if !stderrors.Is(err, inner) {
		t.Error("InvalidURLError should unwrap to the inner error")
	}

	var urlErr *InvalidURLError
	wrapped := fmt.Errorf("preparing: %w", err)
	if !stderrors.As(wrapped, &urlErr) {
		t.Error("errors.As should find InvalidURLError through wrapping")
	}
}

func TestMultiError_Empty(t *testing.T) {
	m := &MultiError{}
	if m.ErrorOrNil() != nil {
		t.Error("empty MultiError should return nil")
	}

	m.Append(nil)
	if m.ErrorOrNil() != nil {
		t.Error("appending nil should not create an error")
	}
}

func TestMultiError_Multiple(t *testing.T) {
	m := &MultiError{}
	first := stderrors.New("first failure")
	second := stderrors.New("second failure")
	m.Append(first)
	m.Append(second)

	err := m.ErrorOrNil()
	if err == nil {
		t.Fatal("expected combined error")
	}
	if !strings.Contains(err.Error(), "2 errors occurred") {
		t.Errorf("expected count prefix, got %q", err.Error())
	}
	if !stderrors.Is(err, first) || !stderrors.Is(err, second) {
		t.Error("MultiError should unwrap to all collected errors")
	}
}

func TestRecover_Panic(t *testing.T) {
	err := Recover(func() error {
		panic("something broke")
	})

	var panicErr *PanicError
	if !stderrors.As(err, &panicErr) {
		t.Fatalf("expected PanicError, got %v", err)
	}
	if panicErr.StackTrace == "" {
		t.Error("PanicError should carry a stack trace")
	}
}

func TestRecover_NoPanic(t *testing.T) {
	want := stderrors.New("plain error")
	got := Recover(func() error { return want })
	if got != want {
		t.Errorf("Recover should pass through plain errors, got %v", got)
	}

	if err := Recover(func() error { return nil }); err != nil {
		t.Errorf("Recover should return nil on success, got %v", err)
	}
}
