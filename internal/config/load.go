// Package config provides the project configuration and manifest model for
// precheck, plus global settings management using Viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	ierr "github.com/precheck-dev/precheck/internal/errors"
	"github.com/precheck-dev/precheck/internal/logger"
)

// ReadConfig loads and validates the project configuration file.
func ReadConfig(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ierr.ConfigError{Path: path, Err: err}
	}

	var project Project
	if err := yaml.Unmarshal(data, &project); err != nil {
		return nil, &ierr.ConfigError{Path: path, Err: err}
	}

	if err := validateProject(&project); err != nil {
		return nil, &ierr.ConfigError{Path: path, Err: err}
	}

	logger.Debug("Loaded project config from %s (%d repos)", path, len(project.Repos))
	return &project, nil
}

// FindConfig returns the path of the project config file in dir, or the
// explicit path if one was given.
func FindConfig(dir, explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	path := filepath.Join(dir, ConfigFileName)
	if _, err := os.Stat(path); err != nil {
		return "", &ierr.ConfigError{Path: path, Err: err}
	}
	return path, nil
}

// ReadManifest loads a repository's hook manifest. The manifest is either a
// bare YAML list of hooks or a mapping with a top-level "hooks" key.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ierr.ConfigError{Path: path, Err: err}
	}

	var hooks []ManifestHook
	if err := yaml.Unmarshal(data, &hooks); err != nil {
		// Fall back to the mapping form.
		var wrapped struct {
			Hooks []ManifestHook `yaml:"hooks"`
		}
		if err2 := yaml.Unmarshal(data, &wrapped); err2 != nil {
			return nil, &ierr.ConfigError{Path: path, Err: err}
		}
		hooks = wrapped.Hooks
	}

	manifest := &Manifest{Hooks: hooks}
	if err := validateManifest(manifest); err != nil {
		return nil, &ierr.ConfigError{Path: path, Err: err}
	}

	logger.Debug("Loaded manifest from %s (%d hooks)", path, len(hooks))
	return manifest, nil
}

func validateProject(project *Project) error {
	for i := range project.Repos {
		repo := &project.Repos[i]
		switch {
		case repo.Repo == "":
			return fmt.Errorf("repos[%d]: missing repo location", i)
		case repo.IsRemote() && repo.Rev == "":
			return fmt.Errorf("repo %s: remote repos require a rev", repo.Repo)
		case repo.IsRemote() && len(repo.Hooks) == 0:
			return fmt.Errorf("repo %s: no hooks configured", repo.Descriptor())
		}

		for j := range repo.Hooks {
			h := &repo.Hooks[j]
			if h.ID == "" {
				return fmt.Errorf("repo %s: hooks[%d]: missing id", repo.Descriptor(), j)
			}
			if repo.IsLocal() {
				if h.Entry == nil || *h.Entry == "" {
					return fmt.Errorf("repo local: hook %s: local hooks require an entry", h.ID)
				}
				if h.Language == nil || *h.Language == "" {
					return fmt.Errorf("repo local: hook %s: local hooks require a language", h.ID)
				}
			}
		}
	}
	return nil
}

func validateManifest(manifest *Manifest) error {
	seen := make(map[string]bool, len(manifest.Hooks))
	for i := range manifest.Hooks {
		h := &manifest.Hooks[i]
		switch {
		case h.ID == "":
			return fmt.Errorf("hooks[%d]: missing id", i)
		case h.Entry == "":
			return fmt.Errorf("hook %s: missing entry", h.ID)
		case h.Language == "":
			return fmt.Errorf("hook %s: missing language", h.ID)
		case seen[h.ID]:
			return fmt.Errorf("hook %s: duplicate id in manifest", h.ID)
		}
		seen[h.ID] = true
	}
	return nil
}
