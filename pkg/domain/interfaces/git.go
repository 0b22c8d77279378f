package interfaces

import (
	"context"
)

// CheckoutOptions controls GitRepository.Checkout
type CheckoutOptions struct {
	// Create creates the branch from the current HEAD before switching (git checkout -b).
	Create bool
}

// PullOptions controls GitRepository.Pull
type PullOptions struct {
	FastForwardOnly bool
}

// MergeOptions controls GitRepository.Merge
type MergeOptions struct {
	NoFastForward bool
	Message       string
}

// PushOptions controls GitRepository.Push
type PushOptions struct {
	Tags bool
}

// GitRepository is the handle to the single working tree a release runs against.
// The checked-out branch is shared state: callers assert it with CurrentBranch before
// operations that depend on it.
type GitRepository interface {
	// CurrentBranch returns the checked-out branch name
	CurrentBranch(ctx context.Context) (string, error)

	// Checkout switches the working tree to branch
	Checkout(ctx context.Context, branch string, opts CheckoutOptions) error

	// Pull fetches and integrates branch from remote. Failures carry ErrTagNetworkOperationFailed.
	Pull(ctx context.Context, remote, branch string, opts PullOptions) error

	// Merge merges branch into the checked-out branch. Conflicts carry ErrTagMergeConflict
	// and leave the working tree conflicted.
	Merge(ctx context.Context, branch string, opts MergeOptions) error

	// Tag creates an annotated tag at HEAD
	Tag(ctx context.Context, name, message string) error

	// DeleteBranch deletes a local branch without forcing. Unmerged branches carry ErrTagBranchNotMerged.
	DeleteBranch(ctx context.Context, name string) error

	// IsMerged reports whether branch is reachable from target
	IsMerged(ctx context.Context, branch, target string) (bool, error)

	// Commit stages files and commits them on the checked-out branch.
	// Nothing staged carries ErrTagNothingToCommit.
	Commit(ctx context.Context, message string, files []string) error

	// Push pushes branches to remote. Failures carry ErrTagNetworkOperationFailed.
	Push(ctx context.Context, remote string, branches []string, opts PushOptions) error
}
