package usecase

import (
	"context"
	"fmt"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/gitflow-release/pkg/domain/interfaces"
	"github.com/m-mizutani/gitflow-release/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

// MergeStep merges Source into Target
type MergeStep struct {
	Task   model.TaskName
	Target string
	Source string
}

// MergePlan returns the merges of a release in execution order, and the index after which
// master is tagged. Master is always merged before the tag.
func MergePlan(cfg model.ReleaseConfig, ref model.BranchRef) (steps []MergeStep, tagAfter int) {
	toMaster := MergeStep{Task: model.TaskMergeMaster, Target: cfg.MasterBranch, Source: ref.Name}

	if cfg.Flavor() == model.FlavorHotfix && cfg.HotfixMergeOrder == model.MergeOrderDevelopFirst {
		toDevelop := MergeStep{Task: model.TaskMergeDevelop, Target: cfg.DevelopBranch, Source: ref.Name}
		return []MergeStep{toDevelop, toMaster}, 1
	}

	// develop receives master rather than the release branch so that the merge commit and
	// the tag are part of develop's history.
	toDevelop := MergeStep{Task: model.TaskMergeDevelop, Target: cfg.DevelopBranch, Source: cfg.MasterBranch}
	return []MergeStep{toMaster, toDevelop}, 0
}

// ReleaseMerger merges, tags and publishes a release
type ReleaseMerger struct {
	repo interfaces.GitRepository
}

// NewReleaseMerger creates a ReleaseMerger
func NewReleaseMerger(repo interfaces.GitRepository) *ReleaseMerger {
	return &ReleaseMerger{repo: repo}
}

// Merge checks out step.Target and merges step.Source into it without fast-forward.
// A conflict is returned as is and the working tree stays conflicted.
func (m *ReleaseMerger) Merge(ctx context.Context, step MergeStep) error {
	if err := m.repo.Checkout(ctx, step.Target, interfaces.CheckoutOptions{}); err != nil {
		return goerr.Wrap(err, "failed to checkout merge target", goerr.V("target", step.Target))
	}
	if err := requireBranch(ctx, m.repo, step.Target); err != nil {
		return err
	}

	opts := interfaces.MergeOptions{
		NoFastForward: true,
		Message:       fmt.Sprintf("Merge branch '%s' into %s", step.Source, step.Target),
	}
	if err := m.repo.Merge(ctx, step.Source, opts); err != nil {
		return goerr.Wrap(err, "failed to merge release",
			goerr.V("target", step.Target),
			goerr.V("source", step.Source),
		)
	}

	ctxlog.From(ctx).Info("Merged release", "target", step.Target, "source", step.Source)
	return nil
}

// Tag creates tag on master, which must be checked out
func (m *ReleaseMerger) Tag(ctx context.Context, master, tag, message string) error {
	if err := m.repo.Checkout(ctx, master, interfaces.CheckoutOptions{}); err != nil {
		return goerr.Wrap(err, "failed to checkout master for tagging", goerr.V("branch", master))
	}
	if err := requireBranch(ctx, m.repo, master); err != nil {
		return err
	}
	if err := m.repo.Tag(ctx, tag, message); err != nil {
		return goerr.Wrap(err, "failed to tag release", goerr.V("tag", tag))
	}

	ctxlog.From(ctx).Info("Tagged release", "tag", tag, "branch", master)
	return nil
}

// Push publishes the configured branches and all tags. It returns false without touching
// the remote when pushing is disabled.
func (m *ReleaseMerger) Push(ctx context.Context, cfg model.ReleaseConfig) (bool, error) {
	logger := ctxlog.From(ctx)

	if !cfg.Push {
		logger.Info("Push disabled, publish the release manually",
			"remote", cfg.Origin,
			"branches", cfg.PushTargets(),
		)
		return false, nil
	}

	branches := cfg.PushTargets()
	if err := m.repo.Push(ctx, cfg.Origin, branches, interfaces.PushOptions{Tags: true}); err != nil {
		return false, goerr.Wrap(err, "failed to push release",
			goerr.V("remote", cfg.Origin),
			goerr.V("branches", branches),
		)
	}

	logger.Info("Pushed release", "remote", cfg.Origin, "branches", branches)
	return true, nil
}
