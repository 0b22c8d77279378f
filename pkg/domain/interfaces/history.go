package interfaces

import (
	"context"

	"github.com/m-mizutani/gitflow-release/pkg/domain/model"
)

// CommitHistory analyzes commits since the last release tag
type CommitHistory interface {
	// RecommendBump returns the bump level implied by commits since the last release.
	// The level is returned as reported; callers validate it.
	RecommendBump(ctx context.Context, preset string) (model.BumpLevel, error)

	// ChangelogEntries renders the changelog block for version from commits since the last release
	ChangelogEntries(ctx context.Context, preset string, version model.ResolvedVersion) (string, error)
}

// Notifier announces a finished release
type Notifier interface {
	NotifyRelease(ctx context.Context, report *model.RunReport) error
}
