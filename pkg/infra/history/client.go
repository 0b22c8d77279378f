package history

import (
	"bytes"
	"context"
	_ "embed"
	"text/template"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/gitflow-release/pkg/domain/interfaces"
	"github.com/m-mizutani/gitflow-release/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

//go:embed templates/changelog.md
var changelogTemplate string

// CommitSource provides the commits analyzed for a release
type CommitSource interface {
	// LastTag returns the latest tag starting with prefix, or "" when there is none
	LastTag(ctx context.Context, prefix string) (string, error)
	// Commits returns commits after since, newest first
	Commits(ctx context.Context, since string) ([]model.Commit, error)
}

type section struct {
	Type  string
	Title string
}

type preset struct {
	sections []section
}

var presets = map[string]preset{
	"angular": {
		sections: []section{
			{Type: "fix", Title: "Bug Fixes"},
			{Type: "feat", Title: "Features"},
			{Type: "perf", Title: "Performance Improvements"},
			{Type: "revert", Title: "Reverts"},
		},
	},
	"conventionalcommits": {
		sections: []section{
			{Type: "feat", Title: "Features"},
			{Type: "fix", Title: "Bug Fixes"},
			{Type: "perf", Title: "Performance Improvements"},
			{Type: "revert", Title: "Reverts"},
			{Type: "docs", Title: "Documentation"},
		},
	},
}

// Presets returns the supported changelog preset names
func Presets() []string {
	return []string{"angular", "conventionalcommits"}
}

// Client analyzes conventional commits since the last release tag
type Client struct {
	source    CommitSource
	tagPrefix string
	now       func() time.Time
	tmpl      *template.Template
}

var _ interfaces.CommitHistory = (*Client)(nil)

// Option is a functional option for Client
type Option func(*Client)

// WithTagPrefix restricts release tags to those starting with prefix
func WithTagPrefix(prefix string) Option {
	return func(c *Client) {
		c.tagPrefix = prefix
	}
}

// WithClock replaces time.Now for changelog dates
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// New creates a Client reading commits from source
func New(source CommitSource, opts ...Option) (*Client, error) {
	tmpl, err := template.New("changelog").Parse(changelogTemplate)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse changelog template")
	}

	c := &Client{
		source: source,
		now:    time.Now,
		tmpl:   tmpl,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func lookupPreset(name string) (preset, error) {
	p, ok := presets[name]
	if !ok {
		return preset{}, goerr.New("unknown changelog preset",
			goerr.V("preset", name), goerr.V("supported", Presets()))
	}
	return p, nil
}

// commitsSinceRelease returns parsed commits after the last release tag
func (c *Client) commitsSinceRelease(ctx context.Context) ([]ConventionalCommit, string, error) {
	tag, err := c.source.LastTag(ctx, c.tagPrefix)
	if err != nil {
		return nil, "", goerr.Wrap(err, "failed to find last release tag")
	}

	commits, err := c.source.Commits(ctx, tag)
	if err != nil {
		return nil, tag, goerr.Wrap(err, "failed to read commits", goerr.V("since", tag))
	}

	parsed := make([]ConventionalCommit, 0, len(commits))
	for _, commit := range commits {
		parsed = append(parsed, Parse(commit))
	}
	return parsed, tag, nil
}

// RecommendBump returns major for breaking changes, minor for features, patch otherwise
func (c *Client) RecommendBump(ctx context.Context, presetName string) (model.BumpLevel, error) {
	if _, err := lookupPreset(presetName); err != nil {
		return "", err
	}

	commits, tag, err := c.commitsSinceRelease(ctx)
	if err != nil {
		return "", err
	}

	level := recommend(commits)
	ctxlog.From(ctx).Debug("Recommended bump",
		"level", level,
		"since", tag,
		"commits", len(commits),
	)
	return level, nil
}

type sectionData struct {
	Title   string
	Commits []ConventionalCommit
}

type breakingNote struct {
	Scope string
	Note  string
}

type changelogData struct {
	Version  string
	Date     string
	Patch    bool
	Sections []sectionData
	Breaking []breakingNote
}

// ChangelogEntries renders the changelog block of version
func (c *Client) ChangelogEntries(ctx context.Context, presetName string, version model.ResolvedVersion) (string, error) {
	p, err := lookupPreset(presetName)
	if err != nil {
		return "", err
	}

	commits, _, err := c.commitsSinceRelease(ctx)
	if err != nil {
		return "", err
	}

	data := changelogData{
		Version: version.String(),
		Date:    c.now().Format("2006-01-02"),
	}
	if v, err := semver.NewVersion(version.String()); err == nil {
		data.Patch = v.Patch() != 0
	}

	for _, s := range p.sections {
		sd := sectionData{Title: s.Title}
		for _, commit := range commits {
			if commit.Type == s.Type {
				sd.Commits = append(sd.Commits, commit)
			}
		}
		if len(sd.Commits) > 0 {
			data.Sections = append(data.Sections, sd)
		}
	}
	for _, commit := range commits {
		for _, note := range commit.Breaking {
			data.Breaking = append(data.Breaking, breakingNote{Scope: commit.Scope, Note: note})
		}
	}

	var buf bytes.Buffer
	if err := c.tmpl.Execute(&buf, data); err != nil {
		return "", goerr.Wrap(err, "failed to render changelog")
	}
	return buf.String(), nil
}
