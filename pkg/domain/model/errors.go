package model

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"
)

// Error tags classify release failures. Attach them with goerr.T and test with goerr.HasTag.
var (
	ErrTagInvalidVersion            = goerr.NewTag("invalid_version")
	ErrTagUnresolvedVersion         = goerr.NewTag("unresolved_version")
	ErrTagManifestWriteFailed       = goerr.NewTag("manifest_write_failed")
	ErrTagChangelogGenerationFailed = goerr.NewTag("changelog_generation_failed")
	ErrTagNothingToCommit           = goerr.NewTag("nothing_to_commit")
	ErrTagBranchNotMerged           = goerr.NewTag("branch_not_merged")
	ErrTagMergeConflict             = goerr.NewTag("merge_conflict")
	ErrTagNetworkOperationFailed    = goerr.NewTag("network_operation_failed")
	ErrTagPrerequisiteFailed        = goerr.NewTag("prerequisite_failed")
	ErrTagWrongBranch               = goerr.NewTag("wrong_branch")
	ErrTagInvalidConfig             = goerr.NewTag("invalid_config")
	ErrTagInvalidTaskGraph          = goerr.NewTag("invalid_task_graph")
)

// ErrorKind is the name of a failure class reported in RunReport.
type ErrorKind string

const (
	KindNone                      ErrorKind = ""
	KindInvalidVersion            ErrorKind = "InvalidVersion"
	KindUnresolvedVersion         ErrorKind = "UnresolvedVersion"
	KindManifestWriteFailed       ErrorKind = "ManifestWriteFailed"
	KindChangelogGenerationFailed ErrorKind = "ChangelogGenerationFailed"
	KindNothingToCommit           ErrorKind = "NothingToCommit"
	KindBranchNotMerged           ErrorKind = "BranchNotMerged"
	KindMergeConflict             ErrorKind = "MergeConflict"
	KindNetworkOperationFailed    ErrorKind = "NetworkOperationFailed"
	KindPrerequisiteFailed        ErrorKind = "PrerequisiteFailed"
	KindWrongBranch               ErrorKind = "WrongBranch"
	KindInvalidConfig             ErrorKind = "InvalidConfig"
	KindInvalidTaskGraph          ErrorKind = "InvalidTaskGraph"
	KindCancelled                 ErrorKind = "Cancelled"
	KindUnknown                   ErrorKind = "Unknown"
)

// KindOf classifies err by the goerr tags found anywhere in its chain. When several known
// tags are present the earliest in the order of the kind constants wins, so a manifest
// failure caused by an unresolved version is reported as KindUnresolvedVersion.
// Errors without a known tag are KindUnknown.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	return classify(err)
}

func classify(err error) ErrorKind {
	switch {
	case goerr.HasTag(err, ErrTagInvalidVersion):
		return KindInvalidVersion
	case goerr.HasTag(err, ErrTagUnresolvedVersion):
		return KindUnresolvedVersion
	case goerr.HasTag(err, ErrTagManifestWriteFailed):
		return KindManifestWriteFailed
	case goerr.HasTag(err, ErrTagChangelogGenerationFailed):
		return KindChangelogGenerationFailed
	case goerr.HasTag(err, ErrTagNothingToCommit):
		return KindNothingToCommit
	case goerr.HasTag(err, ErrTagBranchNotMerged):
		return KindBranchNotMerged
	case goerr.HasTag(err, ErrTagMergeConflict):
		return KindMergeConflict
	case goerr.HasTag(err, ErrTagNetworkOperationFailed):
		return KindNetworkOperationFailed
	case goerr.HasTag(err, ErrTagPrerequisiteFailed):
		return KindPrerequisiteFailed
	case goerr.HasTag(err, ErrTagWrongBranch):
		return KindWrongBranch
	case goerr.HasTag(err, ErrTagInvalidConfig):
		return KindInvalidConfig
	case goerr.HasTag(err, ErrTagInvalidTaskGraph):
		return KindInvalidTaskGraph
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCancelled
	default:
		return KindUnknown
	}
}
