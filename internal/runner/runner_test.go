package runner

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/precheck-dev/precheck/internal/hook"
)

func systemHook(id, entry string) *hook.Hook {
	return &hook.Hook{
		ID:            id,
		Name:          id,
		Entry:         entry,
		Language:      "system",
		Types:         []string{"file"},
		Stages:        hook.AllStages(),
		PassFilenames: true,
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRun_SkipsWithoutFiles(t *testing.T) {
	hk := systemHook("check", "true")
	hk.Files = `\.nomatch$`

	res, err := New(1, false).Run(context.Background(), hk, []string{"a.go"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !res.Skipped {
		t.Error("hook with no matching files must be skipped")
	}
	if res.Failed() {
		t.Error("skipped result must not count as failed")
	}
}

func TestRun_AlwaysRunWithoutFiles(t *testing.T) {
	hk := systemHook("check", "echo ran")
	hk.AlwaysRun = true
	hk.PassFilenames = false

	res, err := New(1, false).Run(context.Background(), hk, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Skipped {
		t.Error("always_run hook must execute with no files")
	}
	if !strings.Contains(string(res.Output), "ran") {
		t.Errorf("output missing, got %q", res.Output)
	}
}

func TestRun_EnvironmentMarker(t *testing.T) {
	hk := systemHook("env", `sh -c "echo marker=$PRECHECK"`)
	hk.AlwaysRun = true
	hk.PassFilenames = false

	res, err := New(1, false).Run(context.Background(), hk, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !strings.Contains(string(res.Output), "marker=1") {
		t.Errorf("PRECHECK=1 not visible to the hook: %q", res.Output)
	}
}

func TestRun_DetectsModifiedFiles(t *testing.T) {
	dir := t.TempDir()
	target := writeFile(t, dir, "data.txt", "before\n")

	hk := systemHook("fixer", "sh -c 'echo after > "+target+"'")
	hk.PassFilenames = false

	res, err := New(1, true).Run(context.Background(), hk, []string{target})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Code != 0 {
		t.Fatalf("fixer exited %d: %s", res.Code, res.Output)
	}
	if !res.Failed() {
		t.Error("a hook that modifies files must fail")
	}
	if len(res.ModifiedFiles) != 1 || res.ModifiedFiles[0] != target {
		t.Errorf("modified files = %v, want [%s]", res.ModifiedFiles, target)
	}
	if len(res.Diffs) != 1 {
		t.Fatalf("expected one diff, got %d", len(res.Diffs))
	}
	if !strings.Contains(res.Diffs[0], "-before") || !strings.Contains(res.Diffs[0], "+after") {
		t.Errorf("diff content wrong:\n%s", res.Diffs[0])
	}
}

func TestRun_UnmodifiedFilePasses(t *testing.T) {
	dir := t.TempDir()
	target := writeFile(t, dir, "data.txt", "stable\n")

	hk := systemHook("reader", "cat")

	res, err := New(1, false).Run(context.Background(), hk, []string{target})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Failed() {
		t.Errorf("reading a file must not fail: code=%d modified=%v", res.Code, res.ModifiedFiles)
	}
}

func TestRun_LogFile(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "hook.log")

	hk := systemHook("loud", "echo hello")
	hk.AlwaysRun = true
	hk.PassFilenames = false
	hk.LogFile = logPath

	if _, err := New(1, false).Run(context.Background(), hk, nil); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if !strings.Contains(string(data), "hello") {
		t.Errorf("log file content wrong: %q", data)
	}
}

func TestRunAll_StageFiltering(t *testing.T) {
	push := systemHook("push-only", "echo push")
	push.Stages = []string{hook.StagePrePush}
	push.AlwaysRun = true
	push.PassFilenames = false

	commit := systemHook("commit-only", "echo commit")
	commit.Stages = []string{hook.StagePreCommit}
	commit.AlwaysRun = true
	commit.PassFilenames = false

	results, exit, err := New(1, false).RunAll(context.Background(), []*hook.Hook{push, commit}, nil, hook.StagePreCommit)
	if err != nil {
		t.Fatalf("RunAll failed: %v", err)
	}
	if exit != 0 {
		t.Errorf("exit = %d, want 0", exit)
	}
	if len(results) != 1 || results[0].Hook.ID != "commit-only" {
		t.Errorf("stage filtering wrong: %d results", len(results))
	}
}

func TestRunAll_FailFastStops(t *testing.T) {
	failing := systemHook("gate", "false")
	failing.AlwaysRun = true
	failing.PassFilenames = false
	failing.FailFast = true

	dir := t.TempDir()
	marker := filepath.Join(dir, "ran")
	second := systemHook("after", "sh -c 'touch "+marker+"'")
	second.AlwaysRun = true
	second.PassFilenames = false

	results, exit, err := New(1, false).RunAll(context.Background(), []*hook.Hook{failing, second}, nil, "")
	if err != nil {
		t.Fatalf("RunAll failed: %v", err)
	}
	if exit == 0 {
		t.Error("exit must be nonzero after a failure")
	}
	if len(results) != 1 {
		t.Errorf("fail_fast must stop the sequence, got %d results", len(results))
	}
	if _, err := os.Stat(marker); err == nil {
		t.Error("second hook must not have run")
	}
}

func TestRunAll_BrokenHookDoesNotStopSiblings(t *testing.T) {
	broken := systemHook("broken", `unclosed "quote`)
	broken.AlwaysRun = true
	broken.PassFilenames = false

	ok := systemHook("healthy", "echo ok")
	ok.AlwaysRun = true
	ok.PassFilenames = false

	results, exit, err := New(1, false).RunAll(context.Background(), []*hook.Hook{broken, ok}, nil, "")
	if err != nil {
		t.Fatalf("a broken hook must not abort the sequence: %v", err)
	}
	if exit == 0 {
		t.Error("exit must be nonzero when a hook cannot run")
	}
	if len(results) != 2 {
		t.Fatalf("both hooks should produce results, got %d", len(results))
	}
	if !results[0].Failed() || results[0].Code != 1 {
		t.Errorf("broken hook should report failure, got code %d", results[0].Code)
	}
	if len(results[0].Output) == 0 {
		t.Error("broken hook's result should carry the error text")
	}
	if results[1].Failed() {
		t.Error("sibling hook should still pass")
	}
}

func TestRunAll_FailureWithoutFailFastContinues(t *testing.T) {
	failing := systemHook("first", "false")
	failing.AlwaysRun = true
	failing.PassFilenames = false

	ok := systemHook("second", "echo ok")
	ok.AlwaysRun = true
	ok.PassFilenames = false

	results, exit, err := New(1, false).RunAll(context.Background(), []*hook.Hook{failing, ok}, nil, "")
	if err != nil {
		t.Fatalf("RunAll failed: %v", err)
	}
	if exit == 0 {
		t.Error("exit must be nonzero when any hook fails")
	}
	if len(results) != 2 {
		t.Errorf("both hooks should have run, got %d results", len(results))
	}
}

func TestPrinter(t *testing.T) {
	pass := &Result{Hook: systemHook("tidy", "true")}
	fail := &Result{Hook: systemHook("lint", "false"), Code: 1, Output: []byte("bad line\n")}
	skip := &Result{Hook: systemHook("docs", "true"), Skipped: true}

	var buf bytes.Buffer
	NewPrinter(&buf, false, false).PrintAll([]*Result{pass, fail, skip})
	out := buf.String()

	for _, want := range []string{"tidy", "Passed", "lint", "Failed", "bad line", "docs", "Skipped"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if !strings.Contains(out, "...") {
		t.Error("expected dot padding in result lines")
	}
	if strings.Contains(out, "exit code") && !strings.Contains(out, "exit code: 1") {
		t.Errorf("exit code line wrong:\n%s", out)
	}
}
