package model

import "time"

// RunReport summarizes a release run. On failure it holds what is needed to resume by hand:
// the resolved version, the last completed task and the branch left checked out.
type RunReport struct {
	ID            string
	Flavor        Flavor
	Version       ResolvedVersion
	ReleaseBranch BranchRef
	Tag           string
	Pushed        bool

	Tasks         []TaskResult
	LastCompleted TaskName
	FailedTask    TaskName
	Kind          ErrorKind
	Err           error
	// CurrentBranch is the branch checked out when the run stopped.
	CurrentBranch string

	StartedAt  time.Time
	FinishedAt time.Time
}

// State returns Done for a successful run, Failed otherwise.
func (r *RunReport) State() ReleaseState {
	if r.Err != nil {
		return StateFailed
	}
	return StateDone
}

// Succeeded reports whether every task completed.
func (r *RunReport) Succeeded() bool {
	if r.Err != nil {
		return false
	}
	for _, t := range r.Tasks {
		if t.Status != TaskStatusDone {
			return false
		}
	}
	return true
}

// Task returns the result of the named task.
func (r *RunReport) Task(name TaskName) (TaskResult, bool) {
	for _, t := range r.Tasks {
		if t.Name == name {
			return t, true
		}
	}
	return TaskResult{}, false
}
