package model

import (
	"github.com/m-mizutani/goerr/v2"
)

// Flavor is the kind of release a run performs.
type Flavor string

const (
	FlavorNormal Flavor = "normal"
	FlavorHotfix Flavor = "hotfix"
)

// MergeOrder decides which long-lived branch receives a hotfix first.
type MergeOrder string

const (
	// MergeOrderMasterFirst merges the hotfix into master, tags, then merges master into develop.
	MergeOrderMasterFirst MergeOrder = "master-first"
	// MergeOrderDevelopFirst merges the hotfix into develop, then into master, then tags.
	MergeOrderDevelopFirst MergeOrder = "develop-first"
)

// Default values of ReleaseConfig
const (
	DefaultChangelogFile       = "./CHANGELOG.md"
	DefaultChangelogPreset     = "angular"
	DefaultCommitMessage       = "bump version number "
	DefaultMasterBranch        = "master"
	DefaultDevelopBranch       = "develop"
	DefaultOrigin              = "origin"
	DefaultReleaseBranchPrefix = "release/"
)

// DefaultBumpFiles is the manifest list used when none is configured.
func DefaultBumpFiles() []string {
	return []string{"package.json", "bower.json"}
}

// ReleaseConfig is the immutable configuration of one release run.
type ReleaseConfig struct {
	VersionNumber       string
	HotfixBranch        string
	BumpFiles           []string
	ChangelogFile       string
	ChangelogPreset     string
	CommitMessage       string
	TagPrefix           string
	MasterBranch        string
	DevelopBranch       string
	Origin              string
	ReleaseBranchPrefix string
	Push                bool

	SkipPull             bool
	AllowNothingToCommit bool
	HotfixMergeOrder     MergeOrder
	// PushBranches overrides the branches pushed when Push is enabled.
	// Empty means develop and master.
	PushBranches []string
}

// DefaultReleaseConfig returns a configuration with every default applied.
func DefaultReleaseConfig() ReleaseConfig {
	return ReleaseConfig{
		BumpFiles:           DefaultBumpFiles(),
		ChangelogFile:       DefaultChangelogFile,
		ChangelogPreset:     DefaultChangelogPreset,
		CommitMessage:       DefaultCommitMessage,
		MasterBranch:        DefaultMasterBranch,
		DevelopBranch:       DefaultDevelopBranch,
		Origin:              DefaultOrigin,
		ReleaseBranchPrefix: DefaultReleaseBranchPrefix,
		HotfixMergeOrder:    MergeOrderMasterFirst,
	}
}

// Flavor returns FlavorHotfix when a hotfix branch is configured.
func (c ReleaseConfig) Flavor() Flavor {
	if c.HotfixBranch != "" {
		return FlavorHotfix
	}
	return FlavorNormal
}

// SourceBranch is the branch checked out and pulled before bumping.
func (c ReleaseConfig) SourceBranch() string {
	if c.Flavor() == FlavorHotfix {
		return c.HotfixBranch
	}
	return c.DevelopBranch
}

// ReleaseBranch derives the branch that carries the release commit.
func (c ReleaseConfig) ReleaseBranch(v ResolvedVersion) BranchRef {
	if c.Flavor() == FlavorHotfix {
		return BranchRef{Name: c.HotfixBranch}
	}
	return BranchRef{Name: c.ReleaseBranchPrefix + v.String(), Synthesized: true}
}

// TagName returns the tag created on master for v.
func (c ReleaseConfig) TagName(v ResolvedVersion) string {
	return c.TagPrefix + v.String()
}

// CommitMessageFor returns the release commit message for v.
func (c ReleaseConfig) CommitMessageFor(v ResolvedVersion) string {
	return c.CommitMessage + v.String()
}

// PushTargets returns the branches pushed when Push is enabled.
func (c ReleaseConfig) PushTargets() []string {
	if len(c.PushBranches) > 0 {
		return append([]string{}, c.PushBranches...)
	}
	return []string{c.DevelopBranch, c.MasterBranch}
}

// CommitFiles returns the files staged in the release commit.
func (c ReleaseConfig) CommitFiles(bumped []string) []string {
	files := make([]string, 0, len(bumped)+1)
	files = append(files, bumped...)
	return append(files, c.ChangelogFile)
}

// Validate checks the configuration before any repository operation.
func (c ReleaseConfig) Validate() error {
	required := map[string]string{
		"master_branch":         c.MasterBranch,
		"develop_branch":        c.DevelopBranch,
		"origin":                c.Origin,
		"changelog_file":        c.ChangelogFile,
		"changelog_preset":      c.ChangelogPreset,
		"release_branch_prefix": c.ReleaseBranchPrefix,
	}
	for key, value := range required {
		if value == "" {
			return goerr.New("required configuration is empty",
				goerr.T(ErrTagInvalidConfig), goerr.V("key", key))
		}
	}

	if len(c.BumpFiles) == 0 {
		return goerr.New("no bump files configured", goerr.T(ErrTagInvalidConfig))
	}
	if c.MasterBranch == c.DevelopBranch {
		return goerr.New("master and develop branches must differ",
			goerr.T(ErrTagInvalidConfig), goerr.V("branch", c.MasterBranch))
	}
	if c.HotfixBranch != "" && (c.HotfixBranch == c.MasterBranch || c.HotfixBranch == c.DevelopBranch) {
		return goerr.New("hotfix branch must not be a long-lived branch",
			goerr.T(ErrTagInvalidConfig), goerr.V("hotfix_branch", c.HotfixBranch))
	}

	switch c.HotfixMergeOrder {
	case MergeOrderMasterFirst, MergeOrderDevelopFirst:
	default:
		return goerr.New("unknown hotfix merge order",
			goerr.T(ErrTagInvalidConfig), goerr.V("hotfix_merge_order", string(c.HotfixMergeOrder)))
	}

	// an explicit version must be rejected before the first checkout
	if c.VersionNumber != "" {
		if _, err := ParseVersion(c.VersionNumber, VersionSourceExplicit); err != nil {
			return err
		}
	}

	return nil
}

// BranchRef names the release or hotfix branch of a run.
type BranchRef struct {
	Name string
	// Synthesized is true when the tool creates the branch itself (normal releases).
	Synthesized bool
}

func (r BranchRef) String() string { return r.Name }
