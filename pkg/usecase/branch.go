package usecase

import (
	"context"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/gitflow-release/pkg/domain/interfaces"
	"github.com/m-mizutani/gitflow-release/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

// BranchState is the lifecycle position of the release branch
type BranchState string

const (
	BranchNotStarted BranchState = "NotStarted"
	BranchCreated    BranchState = "Created"
	BranchCommitted  BranchState = "Committed"
	BranchDeleted    BranchState = "Deleted"
)

// BranchLifecycle creates, commits to and deletes the release branch of one run
type BranchLifecycle struct {
	repo  interfaces.GitRepository
	state BranchState
}

// NewBranchLifecycle creates a BranchLifecycle in the NotStarted state
func NewBranchLifecycle(repo interfaces.GitRepository) *BranchLifecycle {
	return &BranchLifecycle{
		repo:  repo,
		state: BranchNotStarted,
	}
}

// State returns the current lifecycle state
func (b *BranchLifecycle) State() BranchState { return b.state }

func (b *BranchLifecycle) expect(op string, want BranchState) error {
	if b.state != want {
		return goerr.New("release branch is in the wrong lifecycle state",
			goerr.V("operation", op),
			goerr.V("state", b.state),
			goerr.V("expected", want),
		)
	}
	return nil
}

// CreateReleaseBranch creates ref from the checked-out branch and switches to it.
// Hotfix branches already exist, so for them this only records the transition.
func (b *BranchLifecycle) CreateReleaseBranch(ctx context.Context, ref model.BranchRef) error {
	if err := b.expect("create", BranchNotStarted); err != nil {
		return err
	}

	if !ref.Synthesized {
		ctxlog.From(ctx).Info("Using existing hotfix branch", "branch", ref.Name)
		b.state = BranchCreated
		return nil
	}

	if err := b.repo.Checkout(ctx, ref.Name, interfaces.CheckoutOptions{Create: true}); err != nil {
		return goerr.Wrap(err, "failed to create release branch", goerr.V("branch", ref.Name))
	}
	if err := requireBranch(ctx, b.repo, ref.Name); err != nil {
		return err
	}

	ctxlog.From(ctx).Info("Created release branch", "branch", ref.Name)
	b.state = BranchCreated
	return nil
}

// Commit stages files and commits them on ref, which must be checked out.
func (b *BranchLifecycle) Commit(ctx context.Context, ref model.BranchRef, files []string, message string) error {
	if err := b.expect("commit", BranchCreated); err != nil {
		return err
	}
	if err := requireBranch(ctx, b.repo, ref.Name); err != nil {
		return err
	}

	if err := b.repo.Commit(ctx, message, files); err != nil {
		return goerr.Wrap(err, "failed to commit release files",
			goerr.V("branch", ref.Name),
			goerr.V("files", files),
		)
	}

	ctxlog.From(ctx).Info("Committed release files", "branch", ref.Name, "files", files, "message", message)
	b.state = BranchCommitted
	return nil
}

// Skip records that the commit step produced nothing while the run continues.
func (b *BranchLifecycle) Skip() {
	if b.state == BranchCreated {
		b.state = BranchCommitted
	}
}

// DeleteBranch deletes ref once it is merged into every target. It never forces deletion.
func (b *BranchLifecycle) DeleteBranch(ctx context.Context, ref model.BranchRef, targets ...string) error {
	if err := b.expect("delete", BranchCommitted); err != nil {
		return err
	}

	for _, target := range targets {
		merged, err := b.repo.IsMerged(ctx, ref.Name, target)
		if err != nil {
			return goerr.Wrap(err, "failed to check merge status",
				goerr.V("branch", ref.Name), goerr.V("target", target))
		}
		if !merged {
			return goerr.New("release branch is not merged",
				goerr.T(model.ErrTagBranchNotMerged),
				goerr.V("branch", ref.Name),
				goerr.V("target", target),
			)
		}
	}

	if err := b.repo.DeleteBranch(ctx, ref.Name); err != nil {
		return goerr.Wrap(err, "failed to delete release branch", goerr.V("branch", ref.Name))
	}

	ctxlog.From(ctx).Info("Deleted release branch", "branch", ref.Name)
	b.state = BranchDeleted
	return nil
}

// requireBranch asserts that branch is checked out
func requireBranch(ctx context.Context, repo interfaces.GitRepository, branch string) error {
	current, err := repo.CurrentBranch(ctx)
	if err != nil {
		return goerr.Wrap(err, "failed to get current branch")
	}
	if current != branch {
		return goerr.New("unexpected branch checked out",
			goerr.T(model.ErrTagWrongBranch),
			goerr.V("expected", branch),
			goerr.V("current", current),
		)
	}
	return nil
}
