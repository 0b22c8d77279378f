package model

// TaskName identifies a step of the release task graph.
type TaskName string

const (
	TaskCheckoutSource TaskName = "checkout-source"
	TaskPullSource     TaskName = "pull-source"
	TaskResolveVersion TaskName = "resolve-version"
	TaskBump           TaskName = "bump"
	TaskChangelog      TaskName = "changelog"
	TaskCreateBranch   TaskName = "create-branch"
	TaskCommit         TaskName = "commit"
	TaskMergeMaster    TaskName = "merge-master"
	TaskTag            TaskName = "tag"
	TaskMergeDevelop   TaskName = "merge-develop"
	TaskDeleteBranch   TaskName = "delete-branch"
	TaskPush           TaskName = "push"
)

// ReleaseState is the orchestrator state a task belongs to.
type ReleaseState string

const (
	StateResolvingSource     ReleaseState = "ResolvingSource"
	StateResolvingVersion    ReleaseState = "ResolvingVersion"
	StateBumping             ReleaseState = "Bumping"
	StateChangelogGenerating ReleaseState = "ChangelogGenerating"
	StateBranchCreating      ReleaseState = "BranchCreating"
	StateCommitting          ReleaseState = "Committing"
	StateMerging             ReleaseState = "Merging"
	StateTagging             ReleaseState = "Tagging"
	StateBranchDeleting      ReleaseState = "BranchDeleting"
	StatePushing             ReleaseState = "Pushing"
	StateDone                ReleaseState = "Done"
	StateFailed              ReleaseState = "Failed"
)

// State maps a task to its orchestrator state.
func (n TaskName) State() ReleaseState {
	switch n {
	case TaskCheckoutSource, TaskPullSource:
		return StateResolvingSource
	case TaskResolveVersion:
		return StateResolvingVersion
	case TaskBump:
		return StateBumping
	case TaskChangelog:
		return StateChangelogGenerating
	case TaskCreateBranch:
		return StateBranchCreating
	case TaskCommit:
		return StateCommitting
	case TaskMergeMaster, TaskMergeDevelop:
		return StateMerging
	case TaskTag:
		return StateTagging
	case TaskDeleteBranch:
		return StateBranchDeleting
	case TaskPush:
		return StatePushing
	default:
		return ""
	}
}

// TaskStatus is the outcome of one task in a run.
type TaskStatus string

const (
	TaskStatusPending TaskStatus = "pending"
	TaskStatusDone    TaskStatus = "done"
	TaskStatusFailed  TaskStatus = "failed"
	// TaskStatusBlocked marks a task whose prerequisite failed.
	TaskStatusBlocked TaskStatus = "blocked"
	// TaskStatusSkipped marks a task that never started because the run halted.
	TaskStatusSkipped TaskStatus = "skipped"
)

// TaskResult records what happened to one task.
type TaskResult struct {
	Name   TaskName
	Status TaskStatus
	Err    error
}
