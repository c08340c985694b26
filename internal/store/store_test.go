package store

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	ierr "github.com/precheck-dev/precheck/internal/errors"
	"github.com/precheck-dev/precheck/internal/hook"
	"github.com/precheck-dev/precheck/internal/language"
)

// fakeBackend counts installs so caching behavior is observable.
type fakeBackend struct {
	installs  atomic.Int32
	healthy   atomic.Bool
	needsEnv  bool
	installMu sync.Mutex
}

func newFakeBackend() *fakeBackend {
	b := &fakeBackend{needsEnv: true}
	b.healthy.Store(true)
	return b
}

func (b *fakeBackend) Name() string           { return "fake" }
func (b *fakeBackend) NeedsInstall() bool     { return b.needsEnv }
func (b *fakeBackend) DefaultVersion() string { return "default" }

func (b *fakeBackend) EnvironmentDir(root, version string) string {
	return filepath.Join(root, "fake_env-"+version)
}

func (b *fakeBackend) Install(ctx context.Context, env language.Env) error {
	b.installMu.Lock()
	defer b.installMu.Unlock()
	b.installs.Add(1)
	return os.MkdirAll(env.Path, 0755)
}

func (b *fakeBackend) CheckHealth(ctx context.Context, env language.Env) error {
	if !b.healthy.Load() {
		return os.ErrNotExist
	}
	if _, err := os.Stat(env.Path); err != nil {
		return err
	}
	return nil
}

func (b *fakeBackend) Run(ctx context.Context, hk *hook.Hook, files []string, opts language.RunOptions) (int, []byte, error) {
	return 0, nil, nil
}

func envHook(mods ...func(*hook.Hook)) *hook.Hook {
	hk := &hook.Hook{
		ID:              "fake-hook",
		Name:            "Fake Hook",
		Entry:           "fake",
		Language:        "fake",
		LanguageVersion: "default",
	}
	for _, mod := range mods {
		mod(hk)
	}
	return hk
}

func TestInstallEnvironment_CachedByKey(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	backend := newFakeBackend()
	ctx := context.Background()

	first, err := s.InstallEnvironment(ctx, backend, envHook(), "")
	if err != nil {
		t.Fatalf("InstallEnvironment failed: %v", err)
	}
	second, err := s.InstallEnvironment(ctx, backend, envHook(), "")
	if err != nil {
		t.Fatalf("InstallEnvironment failed: %v", err)
	}

	if first != second {
		t.Errorf("identical keys should map to one environment: %q != %q", first, second)
	}
	if n := backend.installs.Load(); n != 1 {
		t.Errorf("identical key should never reinstall, got %d installs", n)
	}
}

func TestInstallEnvironment_DistinctKeysDistinctEnvs(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	backend := newFakeBackend()
	ctx := context.Background()

	plain, err := s.InstallEnvironment(ctx, backend, envHook(), "")
	if err != nil {
		t.Fatalf("InstallEnvironment failed: %v", err)
	}
	withDeps, err := s.InstallEnvironment(ctx, backend, envHook(func(h *hook.Hook) {
		h.AdditionalDependencies = []string{"pkgA"}
	}), "")
	if err != nil {
		t.Fatalf("InstallEnvironment failed: %v", err)
	}

	if plain == withDeps {
		t.Error("additional_dependencies must produce a distinct environment path")
	}
	if n := backend.installs.Load(); n != 2 {
		t.Errorf("expected 2 installs for 2 keys, got %d", n)
	}
}

func TestInstallEnvironment_ConcurrentSameKey(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	backend := newFakeBackend()
	ctx := context.Background()

	var wg sync.WaitGroup
	paths := make([]string, 8)
	for i := range paths {
		wg.Add(1)
		go func() {
			defer wg.Done()
			path, err := s.InstallEnvironment(ctx, backend, envHook(), "")
			if err != nil {
				t.Errorf("InstallEnvironment failed: %v", err)
			}
			paths[i] = path
		}()
	}
	wg.Wait()

	for _, path := range paths {
		if path != paths[0] {
			t.Errorf("concurrent requesters must get the same environment: %q != %q", path, paths[0])
		}
	}
	if n := backend.installs.Load(); n != 1 {
		t.Errorf("concurrent requesters must share one install, got %d", n)
	}
}

func TestInstallEnvironment_ReinstallsUnhealthy(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	backend := newFakeBackend()
	ctx := context.Background()

	if _, err := s.InstallEnvironment(ctx, backend, envHook(), ""); err != nil {
		t.Fatalf("InstallEnvironment failed: %v", err)
	}

	backend.healthy.Store(false)
	if _, err := s.InstallEnvironment(ctx, backend, envHook(), ""); err == nil {
		// Reinstall happened but health still fails; expect an error.
		t.Fatal("expected install error when environment cannot become healthy")
	}
	if n := backend.installs.Load(); n != 2 {
		t.Errorf("unhealthy environment should be reinstalled, got %d installs", n)
	}
}

func TestInstallEnvironment_NoEnvLanguage(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	backend := newFakeBackend()
	backend.needsEnv = false

	path, err := s.InstallEnvironment(context.Background(), backend, envHook(), "")
	if err != nil {
		t.Fatalf("InstallEnvironment failed: %v", err)
	}
	if path != "" {
		t.Errorf("env-less language should get no environment path, got %q", path)
	}
	if n := backend.installs.Load(); n != 0 {
		t.Errorf("env-less language should trigger zero installs, got %d", n)
	}
}

func initUpstream(t *testing.T) string {
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

	run("init", "--quiet", "-b", "main")
	manifest := "- id: sample\n  name: Sample\n  entry: echo sample\n  language: system\n"
	if err := os.WriteFile(filepath.Join(dir, ".precheck-hooks.yaml"), []byte(manifest), 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}
	run("add", ".")
	run("commit", "--quiet", "-m", "initial")
	return dir
}

func TestCloneOrFetch_AndManifest(t *testing.T) {
	upstream := initUpstream(t)
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	ctx := context.Background()

	path, err := s.CloneOrFetch(ctx, upstream, "main")
	if err != nil {
		t.Fatalf("CloneOrFetch failed: %v", err)
	}

	// Second call is a cache hit on the same path.
	again, err := s.CloneOrFetch(ctx, upstream, "main")
	if err != nil {
		t.Fatalf("CloneOrFetch failed on cache hit: %v", err)
	}
	if path != again {
		t.Errorf("cache hit should return the same path: %q != %q", path, again)
	}

	manifest, err := s.Manifest(path)
	if err != nil {
		t.Fatalf("Manifest failed: %v", err)
	}
	if manifest.Lookup("sample") == nil {
		t.Error("manifest should contain the sample hook")
	}

	// Cached parse returns the identical manifest.
	cached, err := s.Manifest(path)
	if err != nil {
		t.Fatalf("Manifest failed: %v", err)
	}
	if cached != manifest {
		t.Error("manifest should be served from cache")
	}
}

func TestCloneOrFetch_BadRev(t *testing.T) {
	upstream := initUpstream(t)
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	_, err = s.CloneOrFetch(context.Background(), upstream, "no-such-rev")
	if err == nil {
		t.Fatal("expected error for unknown rev")
	}
	var storeErr *ierr.StoreError
	if !errors.As(err, &storeErr) {
		t.Errorf("expected StoreError, got %T: %v", err, err)
	}
}

func TestCloneOrFetch_InvalidURL(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	_, err = s.CloneOrFetch(context.Background(), "not a url", "main")
	if err == nil {
		t.Fatal("expected error for invalid URL")
	}
	var urlErr *ierr.InvalidURLError
	if !errors.As(err, &urlErr) {
		t.Errorf("expected InvalidURLError, got %T: %v", err, err)
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		url   string
		valid bool
	}{
		{"https://github.com/psf/black", true},
		{"git@github.com:psf/black.git", true},
		{"/absolute/local/path", true},
		{"./relative/path", true},
		{"no-scheme-no-path", false},
		{"not a url", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			err := validateURL(tt.url)
			if tt.valid && err != nil {
				t.Errorf("expected %q to be valid, got %v", tt.url, err)
			}
			if !tt.valid && err == nil {
				t.Errorf("expected %q to be rejected", tt.url)
			}
		})
	}
}

func TestToolsPath(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	dir := s.ToolsPath("python")
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Errorf("ToolsPath should create the directory, got %v", err)
	}
	if dir != s.ToolsPath("python") {
		t.Error("ToolsPath should be stable")
	}
}
