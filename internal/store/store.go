// Package store manages precheck's on-disk cache of cloned hook repositories
// and installed language environments. All operations are idempotent and safe
// under concurrent callers requesting the same key; callers never inspect the
// cache layout themselves.
package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gosimple/slug"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/precheck-dev/precheck/internal/config"
	ierr "github.com/precheck-dev/precheck/internal/errors"
	"github.com/precheck-dev/precheck/internal/git"
	"github.com/precheck-dev/precheck/internal/hook"
	"github.com/precheck-dev/precheck/internal/language"
	"github.com/precheck-dev/precheck/internal/logger"
)

const (
	repoMarker = ".precheck-repo.json"
	envMarker  = ".precheck-env.json"

	manifestCacheSize = 64
)

// Store is the on-disk cache handle. One Store is created per run and passed
// explicitly to every component that needs it.
type Store struct {
	root string

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	manifests *lru.Cache[string, *config.Manifest]
}

// New opens (creating if necessary) the store rooted at root.
func New(root string) (*Store, error) {
	for _, dir := range []string{root, filepath.Join(root, "repos"), filepath.Join(root, "envs"), filepath.Join(root, "tools")} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	manifests, err := lru.New[string, *config.Manifest](manifestCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create manifest cache: %w", err)
	}

	return &Store{
		root:      root,
		locks:     map[string]*sync.Mutex{},
		manifests: manifests,
	}, nil
}

// Root returns the store's root directory.
func (s *Store) Root() string { return s.root }

// keyLock returns the mutex serializing work on one cache key. Concurrent
// requests for the same key wait; different keys proceed in parallel.
func (s *Store) keyLock(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	return l
}

type repoState struct {
	URL string `json:"url"`
	Rev string `json:"rev"`
}

// CloneOrFetch ensures the repository at url@rev is present in the cache and
// returns its local path. Validates the URL before touching the network. A
// repo that was fully cloned before is returned as-is; a partial previous
// attempt is discarded and retried.
func (s *Store) CloneOrFetch(ctx context.Context, rawURL, rev string) (string, error) {
	if err := validateURL(rawURL); err != nil {
		return "", err
	}

	descriptor := rawURL + "@" + rev
	lock := s.keyLock("repo:" + descriptor)
	lock.Lock()
	defer lock.Unlock()

	dir := s.repoDir(rawURL, rev)
	markerPath := filepath.Join(dir, repoMarker)

	if _, err := os.Stat(markerPath); err == nil {
		logger.Debug("Repo %s already cloned at %s", descriptor, dir)
		return dir, nil
	}

	// A directory without a marker is a leftover partial clone.
	if err := os.RemoveAll(dir); err != nil {
		return "", &ierr.StoreError{Op: "clone", Key: descriptor, Err: err}
	}

	logger.Info("Cloning %s into %s", descriptor, dir)
	if err := git.Init(ctx, dir, rawURL); err != nil {
		return "", &ierr.StoreError{Op: "clone", Key: descriptor, Err: err}
	}
	direct, err := git.FetchRev(ctx, dir, rev)
	if err != nil {
		return "", &ierr.StoreError{Op: "clone", Key: descriptor, Err: err}
	}
	if err := git.Checkout(ctx, dir, rev, direct); err != nil {
		return "", &ierr.StoreError{Op: "clone", Key: descriptor, Err: err}
	}

	if err := writeJSON(markerPath, repoState{URL: rawURL, Rev: rev}); err != nil {
		return "", &ierr.StoreError{Op: "clone", Key: descriptor, Err: err}
	}
	return dir, nil
}

// Manifest loads the hook manifest of a cloned repository, caching parsed
// manifests per path.
func (s *Store) Manifest(repoPath string) (*config.Manifest, error) {
	if manifest, ok := s.manifests.Get(repoPath); ok {
		return manifest, nil
	}

	manifest, err := config.ReadManifest(filepath.Join(repoPath, config.ManifestFileName))
	if err != nil {
		return nil, err
	}
	s.manifests.Add(repoPath, manifest)
	return manifest, nil
}

type envState struct {
	Language     string   `json:"language"`
	Version      string   `json:"version"`
	Dependencies []string `json:"dependencies,omitempty"`
}

// InstallEnvironment provisions (or reuses) the environment for the hook and
// returns its path. Environments are cached by the composite key of language,
// version and dependency-set hash; the dependency set includes the hook
// repository being installed, so distinct repos never share an environment.
// An identical key is never reinstalled.
func (s *Store) InstallEnvironment(ctx context.Context, backend language.Language, hk *hook.Hook, repoPath string) (string, error) {
	if !backend.NeedsInstall() {
		return "", nil
	}

	key := envKey(hk.Language, hk.LanguageVersion, hk.AdditionalDependencies, repoPath)
	lock := s.keyLock("env:" + key)
	lock.Lock()
	defer lock.Unlock()

	envRoot := filepath.Join(s.root, "envs", key)
	envPath := backend.EnvironmentDir(envRoot, hk.LanguageVersion)
	markerPath := filepath.Join(envRoot, envMarker)

	env := language.Env{
		Path:         envPath,
		Version:      hk.LanguageVersion,
		Dependencies: hk.AdditionalDependencies,
		RepoPath:     repoPath,
		ToolsDir:     s.ToolsPath(hk.Language),
	}

	if _, err := os.Stat(markerPath); err == nil {
		if err := backend.CheckHealth(ctx, env); err == nil {
			logger.Debug("Reusing environment %s for hook %s", envPath, hk.ID)
			return envPath, nil
		}
		logger.Warn("Environment %s failed health check, reinstalling", envPath)
	}

	if err := os.RemoveAll(envRoot); err != nil {
		return "", &ierr.StoreError{Op: "install", Key: installIdentity(hk), Err: err}
	}
	if err := os.MkdirAll(envRoot, 0755); err != nil {
		return "", &ierr.StoreError{Op: "install", Key: installIdentity(hk), Err: err}
	}

	logger.Info("Installing %s environment for hook %s at %s", hk.Language, hk.ID, envPath)
	if err := backend.Install(ctx, env); err != nil {
		return "", &ierr.StoreError{Op: "install", Key: installIdentity(hk), Err: err}
	}
	if err := backend.CheckHealth(ctx, env); err != nil {
		return "", &ierr.StoreError{Op: "install", Key: installIdentity(hk), Err: err}
	}

	state := envState{Language: hk.Language, Version: hk.LanguageVersion, Dependencies: hk.AdditionalDependencies}
	if err := writeJSON(markerPath, state); err != nil {
		return "", &ierr.StoreError{Op: "install", Key: installIdentity(hk), Err: err}
	}
	return envPath, nil
}

// ToolsPath returns the directory for a language's runtime downloads,
// creating it if needed.
func (s *Store) ToolsPath(lang string) string {
	dir := filepath.Join(s.root, "tools", lang)
	_ = os.MkdirAll(dir, 0755)
	return dir
}

// Clean removes the entire cache.
func (s *Store) Clean() error {
	logger.Info("Removing store at %s", s.root)
	return os.RemoveAll(s.root)
}

// repoDir maps url@rev to a stable cache directory. The slugified repo name
// keeps paths readable; the hash keeps them unique.
func (s *Store) repoDir(rawURL, rev string) string {
	name := slug.Make(path.Base(strings.TrimSuffix(rawURL, ".git")))
	sum := sha256.Sum256([]byte(rawURL + "@" + rev))
	return filepath.Join(s.root, "repos", fmt.Sprintf("%s-%s", name, hex.EncodeToString(sum[:6])))
}

func envKey(lang, version string, deps []string, repoPath string) string {
	h := sha256.New()
	h.Write([]byte(lang))
	h.Write([]byte{0})
	h.Write([]byte(version))
	h.Write([]byte{0})
	h.Write([]byte(repoPath))
	for _, dep := range deps {
		h.Write([]byte{0})
		h.Write([]byte(dep))
	}
	return fmt.Sprintf("%s-%s", lang, hex.EncodeToString(h.Sum(nil)[:8]))
}

func installIdentity(hk *hook.Hook) string {
	if len(hk.AdditionalDependencies) > 0 {
		return fmt.Sprintf("%s (%s %s, deps %v)", hk.ID, hk.Language, hk.LanguageVersion, hk.AdditionalDependencies)
	}
	return fmt.Sprintf("%s (%s %s)", hk.ID, hk.Language, hk.LanguageVersion)
}

// validateURL rejects malformed remote references before any store work.
func validateURL(rawURL string) error {
	// Local paths and scp-style remotes are valid for git; only URL-shaped
	// refs are parsed.
	if strings.HasPrefix(rawURL, "/") || strings.HasPrefix(rawURL, ".") {
		return nil
	}
	if at := strings.IndexByte(rawURL, '@'); at > 0 && strings.IndexByte(rawURL[at:], ':') > 0 && !strings.Contains(rawURL, "://") {
		return nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return &ierr.InvalidURLError{URL: rawURL, Err: err}
	}
	if u.Scheme == "" {
		return &ierr.InvalidURLError{URL: rawURL, Err: fmt.Errorf("missing scheme")}
	}
	return nil
}

func writeJSON(path string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
