// Package hook defines the resolved hook model and the layered configuration
// resolver that produces it.
package hook

// Stage identifiers at which a hook may run.
const (
	StagePreCommit      = "pre-commit"
	StagePreMergeCommit = "pre-merge-commit"
	StagePrePush        = "pre-push"
	StagePrepareCommit  = "prepare-commit-msg"
	StageCommitMsg      = "commit-msg"
	StagePostCheckout   = "post-checkout"
	StagePostCommit     = "post-commit"
	StagePostMerge      = "post-merge"
	StagePostRewrite    = "post-rewrite"
	StagePreRebase      = "pre-rebase"
	StageManual         = "manual"
)

// AllStages returns the full catalog of known stages. Hooks without an
// explicit stage list are eligible at every stage.
func AllStages() []string {
	return []string{
		StagePreCommit,
		StagePreMergeCommit,
		StagePrePush,
		StagePrepareCommit,
		StageCommitMsg,
		StagePostCheckout,
		StagePostCommit,
		StagePostMerge,
		StagePostRewrite,
		StagePreRebase,
		StageManual,
	}
}

// Hook is a fully resolved hook, ready to prepare and run. All override
// layers and defaults have been applied; every field holds a concrete value.
// A Hook is built once per configured occurrence and is not mutated after
// preparation completes, except for the deferred EnvPath assignment once the
// hook's environment install finishes.
type Hook struct {
	ID       string
	Name     string
	Alias    string
	Entry    string
	Language string

	LanguageVersion string
	Files           string
	Exclude         string
	Types           []string
	TypesOr         []string
	ExcludeTypes    []string
	Stages          []string
	Args            []string

	AlwaysRun     bool
	FailFast      bool
	PassFilenames bool
	RequireSerial bool
	Verbose       bool

	AdditionalDependencies []string
	MinimumVersion         string
	LogFile                string

	// Src is the descriptor of the defining repo: "url@rev", "local" or "meta".
	Src string
	// RepoPath is the cloned repository path, empty for local hooks.
	RepoPath string
	// EnvPath is the hook's environment directory, assigned after install.
	// Empty for languages that need no environment.
	EnvPath string
}

// RunsAtStage reports whether the hook is eligible at the given stage.
func (h *Hook) RunsAtStage(stage string) bool {
	for _, s := range h.Stages {
		if s == stage {
			return true
		}
	}
	return false
}
