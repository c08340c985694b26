// Package orchestrator prepares a project's configured hooks for execution:
// it clones every remote repository, resolves each configured hook against
// its manifest, and installs whatever environments the resolved hooks need,
// with as much of that work in flight concurrently as the worker limit
// allows.
package orchestrator

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/precheck-dev/precheck/internal/config"
	ierr "github.com/precheck-dev/precheck/internal/errors"
	"github.com/precheck-dev/precheck/internal/hook"
	"github.com/precheck-dev/precheck/internal/language"
	"github.com/precheck-dev/precheck/internal/logger"
)

// Store is the repository-cache contract the orchestrator depends on. The
// store synchronizes concurrent requests for identical keys internally; the
// orchestrator performs no locking of its own around it.
type Store interface {
	CloneOrFetch(ctx context.Context, url, rev string) (string, error)
	Manifest(repoPath string) (*config.Manifest, error)
	InstallEnvironment(ctx context.Context, backend language.Language, hk *hook.Hook, repoPath string) (string, error)
}

// Preparer turns a project configuration into a fully resolved,
// environment-ready hook list.
type Preparer struct {
	store       Store
	project     *config.Project
	parallelism int
}

// New creates a Preparer. parallelism bounds concurrent repository and
// install work; 0 means the number of CPUs.
func New(store Store, project *config.Project, parallelism int) *Preparer {
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}
	return &Preparer{
		store:       store,
		project:     project,
		parallelism: parallelism,
	}
}

// repoResult is one remote repository, cloned and with its manifest loaded.
type repoResult struct {
	cfg      *config.Repo
	path     string
	manifest *config.Manifest
}

// Prepare resolves and installs every configured hook.
//
// Remote repositories are cloned concurrently and consumed in completion
// order, so cross-repository hook ordering in the result is not guaranteed to
// match configuration order; within one repository, hooks keep their declared
// order. Any clone, resolution or install failure aborts the whole
// preparation: there is no partial-success mode.
func (p *Preparer) Prepare(ctx context.Context) ([]*hook.Hook, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Stage one: clone every distinct remote repo and load its manifest.
	clones, clonesCtx := errgroup.WithContext(ctx)
	clones.SetLimit(p.parallelism)
	results := make(chan *repoResult)

	remotes := 0
	for i := range p.project.Repos {
		repo := &p.project.Repos[i]
		if !repo.IsRemote() {
			continue
		}
		remotes++

		clones.Go(func() error {
			path, err := p.store.CloneOrFetch(clonesCtx, repo.Repo, repo.Rev)
			if err != nil {
				return err
			}
			manifest, err := p.store.Manifest(path)
			if err != nil {
				return fmt.Errorf("failed to load manifest of %s: %w", repo.Descriptor(), err)
			}

			select {
			case results <- &repoResult{cfg: repo, path: path, manifest: manifest}:
				return nil
			case <-clonesCtx.Done():
				return clonesCtx.Err()
			}
		})
	}

	go func() {
		// Wait is called again below; the second call returns the same result.
		_ = clones.Wait()
		close(results)
	}()

	logger.Debug("Preparing %d remote repos with parallelism %d", remotes, p.parallelism)

	// Stage two: as clones complete, resolve the repo's hooks and install
	// their environments. A repo's hooks join the result only once all of its
	// installs are done, keeping the repo's declared hook order intact.
	var (
		mu       sync.Mutex
		prepared []*hook.Hook
	)
	installs, installsCtx := errgroup.WithContext(ctx)

	// One shared semaphore bounds install concurrency across all repos; the
	// per-repo groups inherit it instead of multiplying the limit.
	sem := semaphore.NewWeighted(int64(p.parallelism))

	var resolveErr error
	for res := range results {
		hooks, err := p.resolveRepoHooks(res)
		if err != nil {
			resolveErr = err
			cancel()
			break
		}

		installs.Go(func() error {
			if err := p.installRepoHooks(installsCtx, res, hooks, sem); err != nil {
				return err
			}
			mu.Lock()
			prepared = append(prepared, hooks...)
			mu.Unlock()
			return nil
		})
	}

	// Drain so the producer goroutine can finish after a resolve failure.
	for range results {
	}

	cloneErr := clones.Wait()
	installErr := installs.Wait()

	switch {
	case resolveErr != nil:
		return nil, resolveErr
	case cloneErr != nil:
		return nil, cloneErr
	case installErr != nil:
		return nil, installErr
	}

	// Stage three: local and meta repos, after all remote work completes.
	for i := range p.project.Repos {
		repo := &p.project.Repos[i]
		switch {
		case repo.IsLocal():
			hooks, err := p.prepareLocalHooks(ctx, repo)
			if err != nil {
				return nil, err
			}
			prepared = append(prepared, hooks...)
		case repo.IsMeta():
			// Meta hooks check the precheck config itself; none are defined
			// yet, so a configured meta repo is a no-op.
			logger.Debug("Skipping meta repo")
		}
	}

	logger.Info("Prepared %d hooks from %d repos", len(prepared), len(p.project.Repos))
	return prepared, nil
}

// resolveRepoHooks resolves every hook configured against one remote repo,
// in declared order. An override naming an id absent from the manifest is
// fatal.
func (p *Preparer) resolveRepoHooks(res *repoResult) ([]*hook.Hook, error) {
	hooks := make([]*hook.Hook, 0, len(res.cfg.Hooks))
	for i := range res.cfg.Hooks {
		override := &res.cfg.Hooks[i]

		manifestHook := res.manifest.Lookup(override.ID)
		if manifestHook == nil {
			return nil, &ierr.HookNotFoundError{Hook: override.ID, Repo: res.cfg.Descriptor()}
		}

		hk, err := p.resolve(res.cfg.Descriptor(), *manifestHook, override)
		if err != nil {
			return nil, err
		}
		hk.RepoPath = res.path
		hooks = append(hooks, hk)
	}
	return hooks, nil
}

// installRepoHooks installs the environments of one repo's hooks
// concurrently, within the slots the shared semaphore grants. Hooks with
// additional dependencies get an environment distinct from the repo's shared
// one; the store caches both by key.
func (p *Preparer) installRepoHooks(ctx context.Context, res *repoResult, hooks []*hook.Hook, sem *semaphore.Weighted) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, hk := range hooks {
		backend, err := language.Get(hk.Language)
		if err != nil {
			return err
		}
		if !backend.NeedsInstall() {
			continue
		}

		g.Go(func() error {
			if err := sem.Acquire(ctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)

			envPath, err := p.store.InstallEnvironment(ctx, backend, hk, res.path)
			if err != nil {
				return err
			}
			// Deferred assignment; each hook is owned by exactly one task.
			hk.EnvPath = envPath
			return nil
		})
	}
	return g.Wait()
}

// prepareLocalHooks resolves a local repo's inline hook definitions. Only
// languages that need an environment touch the store; everything else is
// ready immediately.
func (p *Preparer) prepareLocalHooks(ctx context.Context, repo *config.Repo) ([]*hook.Hook, error) {
	hooks := make([]*hook.Hook, 0, len(repo.Hooks))
	for i := range repo.Hooks {
		def := &repo.Hooks[i]

		// The definition doubles as its own override so alias and log_file,
		// which only exist at the project layer, are picked up.
		hk, err := p.resolve(repo.Descriptor(), def.AsManifestHook(), def)
		if err != nil {
			return nil, err
		}

		backend, err := language.Get(hk.Language)
		if err != nil {
			return nil, err
		}
		if backend.NeedsInstall() {
			envPath, err := p.store.InstallEnvironment(ctx, backend, hk, "")
			if err != nil {
				return nil, err
			}
			hk.EnvPath = envPath
		}
		hooks = append(hooks, hk)
	}
	return hooks, nil
}

// resolve runs the layered resolution pipeline for one hook occurrence.
func (p *Preparer) resolve(src string, manifestHook config.ManifestHook, override *config.HookOverride) (*hook.Hook, error) {
	r := hook.NewResolver(src, manifestHook)
	r.ApplyOverride(override)
	r.ApplyProjectDefaults(p.project)

	backend, err := language.Get(r.Language())
	if err != nil {
		return nil, fmt.Errorf("hook %s (%s): %w", manifestHook.ID, src, err)
	}

	r.FillDefaults(backend.DefaultVersion())
	r.Validate(backend.NeedsInstall())
	return r.Build()
}
