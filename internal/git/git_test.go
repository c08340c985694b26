package git

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// initTestRepo creates a git repository with one committed file.
func initTestRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	run := func(args ...string) {
		t.Helper()
		cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@test",
			"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@test",
		)
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v failed: %v\n%s", args, err, out)
		}
	}

	run("init", "--quiet")
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hello\n"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	run("add", "a.txt")
	run("commit", "--quiet", "-m", "initial")
	return dir
}

func TestLsFiles(t *testing.T) {
	dir := initTestRepo(t)

	files, err := LsFiles(context.Background(), dir)
	if err != nil {
		t.Fatalf("LsFiles failed: %v", err)
	}
	if len(files) != 1 || files[0] != "a.txt" {
		t.Errorf("expected [a.txt], got %v", files)
	}
}

func TestStagedFiles(t *testing.T) {
	dir := initTestRepo(t)

	if err := os.WriteFile(filepath.Join(dir, "b.txt"), []byte("new\n"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	cmd := exec.Command("git", "-C", dir, "add", "b.txt")
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git add failed: %v\n%s", err, out)
	}

	files, err := StagedFiles(context.Background(), dir)
	if err != nil {
		t.Fatalf("StagedFiles failed: %v", err)
	}
	if len(files) != 1 || files[0] != "b.txt" {
		t.Errorf("expected [b.txt], got %v", files)
	}
}

func TestHeadRev(t *testing.T) {
	dir := initTestRepo(t)

	rev, err := HeadRev(context.Background(), dir)
	if err != nil {
		t.Fatalf("HeadRev failed: %v", err)
	}
	if len(rev) != 40 {
		t.Errorf("expected 40-char hash, got %q", rev)
	}
}

func TestInitFetchCheckout(t *testing.T) {
	upstream := initTestRepo(t)
	rev, err := HeadRev(context.Background(), upstream)
	if err != nil {
		t.Fatalf("HeadRev failed: %v", err)
	}

	dest := filepath.Join(t.TempDir(), "clone")
	ctx := context.Background()

	if err := Init(ctx, dest, upstream); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	direct, err := FetchRev(ctx, dest, rev)
	if err != nil {
		t.Fatalf("FetchRev failed: %v", err)
	}
	if err := Checkout(ctx, dest, rev, direct); err != nil {
		t.Fatalf("Checkout failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dest, "a.txt")); err != nil {
		t.Errorf("checked-out tree should contain a.txt: %v", err)
	}
}

func TestFetchRev_UnknownRev(t *testing.T) {
	upstream := initTestRepo(t)

	dest := filepath.Join(t.TempDir(), "clone")
	ctx := context.Background()

	if err := Init(ctx, dest, upstream); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if _, err := FetchRev(ctx, dest, "no-such-rev"); err == nil {
		t.Fatal("fetching an unknown rev must fail, not land on the default branch")
	}
}

func TestRunGit_ErrorIncludesStderr(t *testing.T) {
	_, err := runGit(context.Background(), t.TempDir(), "rev-parse", "HEAD")
	if err == nil {
		t.Fatal("expected error in non-repo directory")
	}
}
