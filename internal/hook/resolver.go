package hook

import (
	"fmt"

	"github.com/precheck-dev/precheck/internal/config"
	"github.com/precheck-dev/precheck/internal/logger"
)

// Resolver turns one (source, manifest hook) pair into a resolved Hook by
// applying the override layers in order:
//
//	manifest default < override < project default (language_version, stages
//	only) < built-in default
//
// where later layers only fill fields that are still absent, except the
// override layer which replaces any field it carries. One Resolver is built
// per hook occurrence; resolvers are never shared across tasks.
type Resolver struct {
	src     string
	hook    config.ManifestHook
	alias   string
	deps    []string
	logFile string

	// Whether language_version was set by manifest, override or project
	// defaults, as opposed to the built-in fallback. Validate only warns
	// about explicit values.
	versionExplicit bool
}

// NewResolver creates a resolver seeded with the manifest definition of the
// hook, published by the repo identified by src.
func NewResolver(src string, manifest config.ManifestHook) *Resolver {
	return &Resolver{
		src:             src,
		hook:            manifest,
		versionExplicit: manifest.LanguageVersion != nil,
	}
}

// ApplyOverride replaces every manifest field the override carries. Absent
// fields are untouched; present-but-empty fields replace like any other.
func (r *Resolver) ApplyOverride(o *config.HookOverride) {
	if o == nil {
		return
	}

	if o.Alias != nil {
		r.alias = *o.Alias
	}
	if o.Name != nil {
		r.hook.Name = *o.Name
	}
	if o.Entry != nil {
		r.hook.Entry = *o.Entry
	}
	if o.Language != nil {
		r.hook.Language = *o.Language
	}
	if o.LanguageVersion != nil {
		r.hook.LanguageVersion = o.LanguageVersion
		r.versionExplicit = true
	}
	if o.Files != nil {
		r.hook.Files = o.Files
	}
	if o.Exclude != nil {
		r.hook.Exclude = o.Exclude
	}
	if o.Types != nil {
		r.hook.Types = o.Types
	}
	if o.TypesOr != nil {
		r.hook.TypesOr = o.TypesOr
	}
	if o.ExcludeTypes != nil {
		r.hook.ExcludeTypes = o.ExcludeTypes
	}
	if o.Stages != nil {
		r.hook.Stages = o.Stages
	}
	if o.Args != nil {
		r.hook.Args = o.Args
	}
	if o.AlwaysRun != nil {
		r.hook.AlwaysRun = o.AlwaysRun
	}
	if o.FailFast != nil {
		r.hook.FailFast = o.FailFast
	}
	if o.PassFilenames != nil {
		r.hook.PassFilenames = o.PassFilenames
	}
	if o.RequireSerial != nil {
		r.hook.RequireSerial = o.RequireSerial
	}
	if o.Verbose != nil {
		r.hook.Verbose = o.Verbose
	}
	if o.AdditionalDependencies != nil {
		r.deps = o.AdditionalDependencies
	}
	if o.LogFile != nil {
		r.logFile = *o.LogFile
	}
}

// Language reports the hook's language after the layers applied so far. The
// caller needs it to pick a backend before finishing resolution.
func (r *Resolver) Language() string {
	return r.hook.Language
}

// ApplyProjectDefaults fills language_version and stages from the project
// configuration, only when they are still absent after overrides.
func (r *Resolver) ApplyProjectDefaults(project *config.Project) {
	if project == nil {
		return
	}

	if r.hook.LanguageVersion == nil {
		if v, ok := project.DefaultLanguageVersion[r.hook.Language]; ok {
			r.hook.LanguageVersion = &v
			r.versionExplicit = true
		}
	}
	if r.hook.Stages == nil {
		r.hook.Stages = project.DefaultStages
	}
}

// FillDefaults sets any still-absent optional field to its built-in value.
// defaultLanguageVersion is the language's built-in default, used when no
// other layer set a version.
func (r *Resolver) FillDefaults(defaultLanguageVersion string) {
	if r.hook.Name == "" {
		r.hook.Name = r.hook.ID
	}
	if r.hook.LanguageVersion == nil {
		r.hook.LanguageVersion = &defaultLanguageVersion
	}
	if r.hook.Stages == nil {
		r.hook.Stages = AllStages()
	}
	if r.hook.Types == nil {
		r.hook.Types = []string{"file"}
	}
	if r.hook.AlwaysRun == nil {
		r.hook.AlwaysRun = boolPtr(false)
	}
	if r.hook.FailFast == nil {
		r.hook.FailFast = boolPtr(false)
	}
	if r.hook.PassFilenames == nil {
		r.hook.PassFilenames = boolPtr(true)
	}
	if r.hook.RequireSerial == nil {
		r.hook.RequireSerial = boolPtr(false)
	}
	if r.hook.Verbose == nil {
		r.hook.Verbose = boolPtr(false)
	}
	if r.hook.AdditionalDependencies != nil && r.deps == nil {
		r.deps = r.hook.AdditionalDependencies
	}
}

// Validate warns about configuration that is legal but meaningless, such as a
// language version on a language that never installs an environment. It never
// aborts resolution.
func (r *Resolver) Validate(needsEnv bool) {
	if needsEnv {
		return
	}
	if r.versionExplicit && r.hook.LanguageVersion != nil && *r.hook.LanguageVersion != "" {
		logger.Warn("Hook %s (%s): language %s runs without an environment, language_version is ignored",
			r.hook.ID, r.src, r.hook.Language)
	}
	if len(r.deps) > 0 || len(r.hook.AdditionalDependencies) > 0 {
		logger.Warn("Hook %s (%s): language %s runs without an environment, additional_dependencies are ignored",
			r.hook.ID, r.src, r.hook.Language)
	}
}

// Build returns the resolved hook. A still-unset required field at this point
// is a resolver bug, not a user error, and fails loudly.
func (r *Resolver) Build() (*Hook, error) {
	if err := r.checkComplete(); err != nil {
		return nil, fmt.Errorf("internal resolver error for hook %q (%s): %w", r.hook.ID, r.src, err)
	}

	return &Hook{
		ID:                     r.hook.ID,
		Name:                   r.hook.Name,
		Alias:                  r.alias,
		Entry:                  r.hook.Entry,
		Language:               r.hook.Language,
		LanguageVersion:        *r.hook.LanguageVersion,
		Files:                  strOrEmpty(r.hook.Files),
		Exclude:                strOrEmpty(r.hook.Exclude),
		Types:                  r.hook.Types,
		TypesOr:                r.hook.TypesOr,
		ExcludeTypes:           r.hook.ExcludeTypes,
		Stages:                 r.hook.Stages,
		Args:                   r.hook.Args,
		AlwaysRun:              *r.hook.AlwaysRun,
		FailFast:               *r.hook.FailFast,
		PassFilenames:          *r.hook.PassFilenames,
		RequireSerial:          *r.hook.RequireSerial,
		Verbose:                *r.hook.Verbose,
		AdditionalDependencies: r.deps,
		MinimumVersion:         strOrEmpty(r.hook.MinimumVersion),
		LogFile:                r.logFile,
		Src:                    r.src,
	}, nil
}

func (r *Resolver) checkComplete() error {
	switch {
	case r.hook.ID == "":
		return fmt.Errorf("id is unset")
	case r.hook.Name == "":
		return fmt.Errorf("name is unset")
	case r.hook.Entry == "":
		return fmt.Errorf("entry is unset")
	case r.hook.Language == "":
		return fmt.Errorf("language is unset")
	case r.hook.LanguageVersion == nil:
		return fmt.Errorf("language_version is unset")
	case r.hook.Stages == nil:
		return fmt.Errorf("stages are unset")
	case r.hook.Types == nil:
		return fmt.Errorf("types are unset")
	case r.hook.AlwaysRun == nil, r.hook.FailFast == nil, r.hook.PassFilenames == nil,
		r.hook.RequireSerial == nil, r.hook.Verbose == nil:
		return fmt.Errorf("flags are unset")
	}
	return nil
}

func boolPtr(b bool) *bool { return &b }

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
