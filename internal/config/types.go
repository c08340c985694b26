package config

import "fmt"

// ConfigFileName is the name of the project configuration file.
const ConfigFileName = ".precheck.yaml"

// ManifestFileName is the name of the hook manifest published by a repository.
const ManifestFileName = ".precheck-hooks.yaml"

// Sentinel repo locations that are not remote URLs.
const (
	LocalRepo = "local"
	MetaRepo  = "meta"
)

// Project is the top-level project configuration loaded from .precheck.yaml.
// It is read once and treated as read-only afterwards.
type Project struct {
	Repos                  []Repo            `yaml:"repos"`
	DefaultLanguageVersion map[string]string `yaml:"default_language_version"`
	DefaultStages          []string          `yaml:"default_stages"`
	MinimumVersion         string            `yaml:"minimum_precheck_version"`
}

// Repo is one entry of the project's repos list. Repo is either a remote URL,
// "local", or "meta".
type Repo struct {
	Repo  string         `yaml:"repo"`
	Rev   string         `yaml:"rev"`
	Hooks []HookOverride `yaml:"hooks"`
}

// IsLocal reports whether this entry defines hooks inline instead of sourcing
// them from a remote manifest.
func (r *Repo) IsLocal() bool { return r.Repo == LocalRepo }

// IsMeta reports whether this entry refers to the built-in meta hooks.
func (r *Repo) IsMeta() bool { return r.Repo == MetaRepo }

// IsRemote reports whether this entry refers to a remote repository.
func (r *Repo) IsRemote() bool { return !r.IsLocal() && !r.IsMeta() }

// Descriptor returns the human-readable identity of the repo, "url@rev" for
// remote repositories and the bare location otherwise. Error messages and log
// lines use this form.
func (r *Repo) Descriptor() string {
	if r.IsRemote() {
		return fmt.Sprintf("%s@%s", r.Repo, r.Rev)
	}
	return r.Repo
}

// ManifestHook is the full default definition of a hook as published by a
// repository's manifest. Optional fields are pointers (or nil slices) so that
// an absent field is distinguishable from an explicitly empty one.
type ManifestHook struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Entry       string `yaml:"entry"`
	Language    string `yaml:"language"`
	Description string `yaml:"description"`

	LanguageVersion        *string  `yaml:"language_version"`
	Files                  *string  `yaml:"files"`
	Exclude                *string  `yaml:"exclude"`
	Types                  []string `yaml:"types"`
	TypesOr                []string `yaml:"types_or"`
	ExcludeTypes           []string `yaml:"exclude_types"`
	Stages                 []string `yaml:"stages"`
	Args                   []string `yaml:"args"`
	AlwaysRun              *bool    `yaml:"always_run"`
	FailFast               *bool    `yaml:"fail_fast"`
	PassFilenames          *bool    `yaml:"pass_filenames"`
	RequireSerial          *bool    `yaml:"require_serial"`
	Verbose                *bool    `yaml:"verbose"`
	AdditionalDependencies []string `yaml:"additional_dependencies"`
	MinimumVersion         *string  `yaml:"minimum_precheck_version"`
}

// HookOverride is a project-level partial hook definition. Every field is
// optional; a present field replaces the manifest value entirely, even when
// it is empty. For local repos the same shape carries a complete definition,
// in which case Entry and Language must be present.
type HookOverride struct {
	ID    string  `yaml:"id"`
	Alias *string `yaml:"alias"`

	Name            *string  `yaml:"name"`
	Entry           *string  `yaml:"entry"`
	Language        *string  `yaml:"language"`
	LanguageVersion *string  `yaml:"language_version"`
	Files           *string  `yaml:"files"`
	Exclude         *string  `yaml:"exclude"`
	Types           []string `yaml:"types"`
	TypesOr         []string `yaml:"types_or"`
	ExcludeTypes    []string `yaml:"exclude_types"`
	Stages          []string `yaml:"stages"`
	Args            []string `yaml:"args"`
	AlwaysRun       *bool    `yaml:"always_run"`
	FailFast        *bool    `yaml:"fail_fast"`
	PassFilenames   *bool    `yaml:"pass_filenames"`
	RequireSerial   *bool    `yaml:"require_serial"`
	Verbose         *bool    `yaml:"verbose"`

	AdditionalDependencies []string `yaml:"additional_dependencies"`
	LogFile                *string  `yaml:"log_file"`
}

// AsManifestHook converts a local repo's inline hook definition into the
// manifest shape, so local hooks flow through the same resolution pipeline as
// remote ones. Validation guarantees Entry and Language are present.
func (o *HookOverride) AsManifestHook() ManifestHook {
	mh := ManifestHook{ID: o.ID}
	if o.Name != nil {
		mh.Name = *o.Name
	}
	if o.Entry != nil {
		mh.Entry = *o.Entry
	}
	if o.Language != nil {
		mh.Language = *o.Language
	}
	mh.LanguageVersion = o.LanguageVersion
	mh.Files = o.Files
	mh.Exclude = o.Exclude
	mh.Types = o.Types
	mh.TypesOr = o.TypesOr
	mh.ExcludeTypes = o.ExcludeTypes
	mh.Stages = o.Stages
	mh.Args = o.Args
	mh.AlwaysRun = o.AlwaysRun
	mh.FailFast = o.FailFast
	mh.PassFilenames = o.PassFilenames
	mh.RequireSerial = o.RequireSerial
	mh.Verbose = o.Verbose
	mh.AdditionalDependencies = o.AdditionalDependencies
	return mh
}

// Manifest is the hook catalog published by a repository.
type Manifest struct {
	Hooks []ManifestHook
}

// Lookup returns the manifest hook with the given id, or nil if absent.
func (m *Manifest) Lookup(id string) *ManifestHook {
	for i := range m.Hooks {
		if m.Hooks[i].ID == id {
			return &m.Hooks[i]
		}
	}
	return nil
}
