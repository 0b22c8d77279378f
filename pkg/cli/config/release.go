package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/gitflow-release/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFiles are looked up in the working directory when --config is not given
var DefaultConfigFiles = []string{
	".gitflow-release.toml",
	".gitflow-release.yaml",
	".gitflow-release.yml",
}

// Release holds release configuration flags
type Release struct {
	Dir        string
	ConfigFile string

	VersionNumber        string
	HotfixBranch         string
	BumpFiles            []string
	ChangelogFile        string
	ChangelogPreset      string
	CommitMessage        string
	TagPrefix            string
	MasterBranch         string
	DevelopBranch        string
	Origin               string
	ReleaseBranchPrefix  string
	Push                 bool
	SkipPull             bool
	AllowNothingToCommit bool
	HotfixMergeOrder     string
	PushBranches         []string
}

// fileConfig is the schema of the TOML/YAML configuration file. The version number is
// per-run and therefore only accepted as a flag.
type fileConfig struct {
	HotfixBranch         string   `toml:"hotfix_branch" yaml:"hotfix_branch"`
	BumpFiles            []string `toml:"bump_files" yaml:"bump_files"`
	ChangelogFile        string   `toml:"changelog_file" yaml:"changelog_file"`
	ChangelogPreset      string   `toml:"changelog_preset" yaml:"changelog_preset"`
	CommitMessage        string   `toml:"commit_message" yaml:"commit_message"`
	TagPrefix            *string  `toml:"tag_prefix" yaml:"tag_prefix"`
	MasterBranch         string   `toml:"master_branch" yaml:"master_branch"`
	DevelopBranch        string   `toml:"develop_branch" yaml:"develop_branch"`
	Origin               string   `toml:"origin" yaml:"origin"`
	ReleaseBranchPrefix  string   `toml:"release_branch_prefix" yaml:"release_branch_prefix"`
	Push                 *bool    `toml:"push" yaml:"push"`
	SkipPull             *bool    `toml:"skip_pull" yaml:"skip_pull"`
	AllowNothingToCommit *bool    `toml:"allow_nothing_to_commit" yaml:"allow_nothing_to_commit"`
	HotfixMergeOrder     string   `toml:"hotfix_merge_order" yaml:"hotfix_merge_order"`
	PushBranches         []string `toml:"push_branches" yaml:"push_branches"`
}

// Flags returns CLI flags for release configuration
func (c *Release) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "dir",
			Aliases:     []string{"C"},
			Usage:       "Repository working directory",
			Value:       ".",
			Destination: &c.Dir,
			Sources:     cli.EnvVars("GITFLOW_RELEASE_DIR"),
		},
		&cli.StringFlag{
			Name:        "config",
			Usage:       "Configuration file (.toml, .yaml or .yml)",
			Destination: &c.ConfigFile,
			Sources:     cli.EnvVars("GITFLOW_RELEASE_CONFIG"),
		},
		&cli.StringFlag{
			Name:        "version-number",
			Aliases:     []string{"v"},
			Usage:       "Explicit release version (X.Y.Z); computed from commit history when omitted",
			Destination: &c.VersionNumber,
		},
		&cli.StringFlag{
			Name:        "hotfix-branch",
			Aliases:     []string{"b"},
			Usage:       "Existing hotfix branch to release instead of develop",
			Destination: &c.HotfixBranch,
		},
		&cli.StringSliceFlag{
			Name:        "bump-file",
			Usage:       "Manifest whose version is rewritten (repeatable)",
			Destination: &c.BumpFiles,
			Sources:     cli.EnvVars("GITFLOW_RELEASE_BUMP_FILES"),
		},
		&cli.StringFlag{
			Name:        "changelog-file",
			Usage:       "Changelog file",
			Value:       model.DefaultChangelogFile,
			Destination: &c.ChangelogFile,
			Sources:     cli.EnvVars("GITFLOW_RELEASE_CHANGELOG_FILE"),
		},
		&cli.StringFlag{
			Name:        "changelog-preset",
			Usage:       "Conventional-commit preset (angular, conventionalcommits)",
			Value:       model.DefaultChangelogPreset,
			Destination: &c.ChangelogPreset,
			Sources:     cli.EnvVars("GITFLOW_RELEASE_CHANGELOG_PRESET"),
		},
		&cli.StringFlag{
			Name:        "commit-message",
			Usage:       "Release commit message, followed by the version",
			Value:       model.DefaultCommitMessage,
			Destination: &c.CommitMessage,
			Sources:     cli.EnvVars("GITFLOW_RELEASE_COMMIT_MESSAGE"),
		},
		&cli.StringFlag{
			Name:        "tag-prefix",
			Usage:       "Prefix of release tags",
			Destination: &c.TagPrefix,
			Sources:     cli.EnvVars("GITFLOW_RELEASE_TAG_PREFIX"),
		},
		&cli.StringFlag{
			Name:        "master-branch",
			Usage:       "Production branch",
			Value:       model.DefaultMasterBranch,
			Destination: &c.MasterBranch,
			Sources:     cli.EnvVars("GITFLOW_RELEASE_MASTER_BRANCH"),
		},
		&cli.StringFlag{
			Name:        "develop-branch",
			Usage:       "Integration branch",
			Value:       model.DefaultDevelopBranch,
			Destination: &c.DevelopBranch,
			Sources:     cli.EnvVars("GITFLOW_RELEASE_DEVELOP_BRANCH"),
		},
		&cli.StringFlag{
			Name:        "origin",
			Usage:       "Remote to pull from and push to",
			Value:       model.DefaultOrigin,
			Destination: &c.Origin,
			Sources:     cli.EnvVars("GITFLOW_RELEASE_ORIGIN"),
		},
		&cli.StringFlag{
			Name:        "release-branch-prefix",
			Usage:       "Prefix of synthesized release branches",
			Value:       model.DefaultReleaseBranchPrefix,
			Destination: &c.ReleaseBranchPrefix,
			Sources:     cli.EnvVars("GITFLOW_RELEASE_BRANCH_PREFIX"),
		},
		&cli.BoolFlag{
			Name:        "push",
			Usage:       "Push branches and tags when the release is done",
			Destination: &c.Push,
			Sources:     cli.EnvVars("GITFLOW_RELEASE_PUSH"),
		},
		&cli.BoolFlag{
			Name:        "skip-pull",
			Usage:       "Do not pull the source branch before bumping",
			Destination: &c.SkipPull,
			Sources:     cli.EnvVars("GITFLOW_RELEASE_SKIP_PULL"),
		},
		&cli.BoolFlag{
			Name:        "allow-nothing-to-commit",
			Usage:       "Continue when manifests and changelog are already at the target version",
			Destination: &c.AllowNothingToCommit,
			Sources:     cli.EnvVars("GITFLOW_RELEASE_ALLOW_NOTHING_TO_COMMIT"),
		},
		&cli.StringFlag{
			Name:        "hotfix-merge-order",
			Usage:       "Which branch receives a hotfix first (master-first, develop-first)",
			Value:       string(model.MergeOrderMasterFirst),
			Destination: &c.HotfixMergeOrder,
			Sources:     cli.EnvVars("GITFLOW_RELEASE_HOTFIX_MERGE_ORDER"),
		},
		&cli.StringSliceFlag{
			Name:        "push-branch",
			Usage:       "Branch pushed when --push is set (repeatable, default develop and master)",
			Destination: &c.PushBranches,
			Sources:     cli.EnvVars("GITFLOW_RELEASE_PUSH_BRANCHES"),
		},
	}
}

// Build layers defaults, the configuration file and explicitly set flags (in that order)
// into a ReleaseConfig. isSet reports whether a flag was given on the command line or
// through its environment variable.
func (c *Release) Build(isSet func(name string) bool) (model.ReleaseConfig, error) {
	cfg := model.DefaultReleaseConfig()

	file, err := c.loadFile()
	if err != nil {
		return cfg, err
	}
	if file != nil {
		file.apply(&cfg)
	}

	strFlags := []struct {
		name string
		src  string
		dst  *string
	}{
		{"changelog-file", c.ChangelogFile, &cfg.ChangelogFile},
		{"changelog-preset", c.ChangelogPreset, &cfg.ChangelogPreset},
		{"commit-message", c.CommitMessage, &cfg.CommitMessage},
		{"tag-prefix", c.TagPrefix, &cfg.TagPrefix},
		{"master-branch", c.MasterBranch, &cfg.MasterBranch},
		{"develop-branch", c.DevelopBranch, &cfg.DevelopBranch},
		{"origin", c.Origin, &cfg.Origin},
		{"release-branch-prefix", c.ReleaseBranchPrefix, &cfg.ReleaseBranchPrefix},
	}
	for _, f := range strFlags {
		if isSet(f.name) {
			*f.dst = f.src
		}
	}

	boolFlags := []struct {
		name string
		src  bool
		dst  *bool
	}{
		{"push", c.Push, &cfg.Push},
		{"skip-pull", c.SkipPull, &cfg.SkipPull},
		{"allow-nothing-to-commit", c.AllowNothingToCommit, &cfg.AllowNothingToCommit},
	}
	for _, f := range boolFlags {
		if isSet(f.name) {
			*f.dst = f.src
		}
	}

	if isSet("bump-file") {
		cfg.BumpFiles = append([]string{}, c.BumpFiles...)
	}
	if isSet("push-branch") {
		cfg.PushBranches = append([]string{}, c.PushBranches...)
	}
	if isSet("hotfix-merge-order") {
		cfg.HotfixMergeOrder = model.MergeOrder(c.HotfixMergeOrder)
	}

	// -v and -b are always per-run
	cfg.VersionNumber = c.VersionNumber
	if c.HotfixBranch != "" {
		cfg.HotfixBranch = c.HotfixBranch
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// loadFile reads --config, or the first default file found in Dir. A missing default
// file is not an error.
func (c *Release) loadFile() (*fileConfig, error) {
	path := c.ConfigFile
	explicit := path != ""
	if !explicit {
		for _, name := range DefaultConfigFiles {
			candidate := filepath.Join(c.Dir, name)
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
		if path == "" {
			return nil, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return nil, nil
		}
		return nil, goerr.Wrap(err, "failed to read config file",
			goerr.T(model.ErrTagInvalidConfig), goerr.V("path", path))
	}

	var fc fileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, &fc); err != nil {
			return nil, goerr.Wrap(err, "failed to parse TOML config",
				goerr.T(model.ErrTagInvalidConfig), goerr.V("path", path))
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return nil, goerr.Wrap(err, "failed to parse YAML config",
				goerr.T(model.ErrTagInvalidConfig), goerr.V("path", path))
		}
	default:
		return nil, goerr.New("unsupported config file format",
			goerr.T(model.ErrTagInvalidConfig), goerr.V("path", path))
	}

	return &fc, nil
}

func (f *fileConfig) apply(cfg *model.ReleaseConfig) {
	setStr := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	setBool := func(dst *bool, v *bool) {
		if v != nil {
			*dst = *v
		}
	}

	setStr(&cfg.HotfixBranch, f.HotfixBranch)
	setStr(&cfg.ChangelogFile, f.ChangelogFile)
	setStr(&cfg.ChangelogPreset, f.ChangelogPreset)
	setStr(&cfg.CommitMessage, f.CommitMessage)
	setStr(&cfg.MasterBranch, f.MasterBranch)
	setStr(&cfg.DevelopBranch, f.DevelopBranch)
	setStr(&cfg.Origin, f.Origin)
	setStr(&cfg.ReleaseBranchPrefix, f.ReleaseBranchPrefix)
	if f.TagPrefix != nil {
		cfg.TagPrefix = *f.TagPrefix
	}
	if f.HotfixMergeOrder != "" {
		cfg.HotfixMergeOrder = model.MergeOrder(f.HotfixMergeOrder)
	}
	if len(f.BumpFiles) > 0 {
		cfg.BumpFiles = append([]string{}, f.BumpFiles...)
	}
	if len(f.PushBranches) > 0 {
		cfg.PushBranches = append([]string{}, f.PushBranches...)
	}
	setBool(&cfg.Push, f.Push)
	setBool(&cfg.SkipPull, f.SkipPull)
	setBool(&cfg.AllowNothingToCommit, f.AllowNothingToCommit)
}
