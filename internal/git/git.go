// Package git wraps the git commands the store and CLI rely on. It shells out
// to the system git binary; repository internals are never inspected directly.
package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/precheck-dev/precheck/internal/logger"
)

// gitArgs prepends -C <dir> to args if dir is non-empty.
func gitArgs(dir string, args []string) []string {
	if dir == "" {
		return args
	}
	return append([]string{"-C", dir}, args...)
}

// runGit executes a git command, returning stdout. Stderr is folded into the
// error on failure.
func runGit(ctx context.Context, dir string, args ...string) ([]byte, error) {
	full := gitArgs(dir, args)
	logger.Debug("Running git %s", strings.Join(full, " "))

	cmd := exec.CommandContext(ctx, "git", full...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return nil, fmt.Errorf("git %s: %w", args[0], err)
		}
		return nil, fmt.Errorf("git %s: %s: %w", args[0], msg, err)
	}
	return stdout.Bytes(), nil
}

// Init initializes an empty repository at dir with the given origin URL.
func Init(ctx context.Context, dir, url string) error {
	if _, err := runGit(ctx, "", "init", "--quiet", dir); err != nil {
		return err
	}
	_, err := runGit(ctx, dir, "remote", "add", "origin", url)
	return err
}

// FetchRev fetches the given revision from origin into dir. It first tries a
// direct fetch of the rev, which most servers allow for tags and branch
// heads, and falls back to a full fetch for bare commit hashes. The returned
// flag reports whether the direct fetch succeeded, meaning FETCH_HEAD names
// the rev. After the fallback the rev must resolve locally: an unknown rev is
// an error, never a silent default-branch state.
func FetchRev(ctx context.Context, dir, rev string) (bool, error) {
	if _, err := runGit(ctx, dir, "fetch", "--quiet", "origin", rev); err == nil {
		return true, nil
	}
	if _, err := runGit(ctx, dir, "fetch", "--quiet", "--tags", "origin"); err != nil {
		return false, err
	}
	if _, err := runGit(ctx, dir, "rev-parse", "--verify", "--quiet", rev+"^{commit}"); err != nil {
		return false, fmt.Errorf("revision %s not found in origin", rev)
	}
	return false, nil
}

// Checkout checks out the given revision in dir. fetchedDirect tells whether
// FETCH_HEAD names the rev (the direct fetch in FetchRev succeeded).
func Checkout(ctx context.Context, dir, rev string, fetchedDirect bool) error {
	target := rev
	if fetchedDirect {
		target = "FETCH_HEAD"
	}
	_, err := runGit(ctx, dir, "checkout", "--quiet", target)
	return err
}

// HeadRev returns the full hash of HEAD in dir.
func HeadRev(ctx context.Context, dir string) (string, error) {
	out, err := runGit(ctx, dir, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// LsFiles returns all files tracked in dir.
func LsFiles(ctx context.Context, dir string) ([]string, error) {
	out, err := runGit(ctx, dir, "ls-files", "-z")
	if err != nil {
		return nil, err
	}
	return splitZ(out), nil
}

// StagedFiles returns the files staged for commit in dir. Deleted files are
// excluded; hooks only ever see paths that exist.
func StagedFiles(ctx context.Context, dir string) ([]string, error) {
	out, err := runGit(ctx, dir, "diff", "--staged", "--name-only", "-z", "--diff-filter=ACMR")
	if err != nil {
		return nil, err
	}
	return splitZ(out), nil
}

func splitZ(out []byte) []string {
	var files []string
	for _, f := range bytes.Split(out, []byte{0}) {
		if len(f) > 0 {
			files = append(files, string(f))
		}
	}
	return files
}
