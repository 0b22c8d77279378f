package usecase

import (
	"context"
	"runtime/debug"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/gitflow-release/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

// Task is one node of a TaskGraph
type Task struct {
	Name  model.TaskName
	Needs []model.TaskName
	Run   func(ctx context.Context) error
}

// TaskGraph is a validated DAG of release tasks. Tasks run serially in a stable
// topological order because they share one working tree.
type TaskGraph struct {
	tasks map[model.TaskName]Task
	order []model.TaskName
	ran   bool
}

// GraphResult is the outcome of TaskGraph.Execute
type GraphResult struct {
	Tasks         []model.TaskResult
	LastCompleted model.TaskName
	FailedTask    model.TaskName
	Err           error
}

// NewTaskGraph validates tasks and computes their execution order. It rejects duplicate
// names, unknown prerequisites and cycles.
func NewTaskGraph(tasks ...Task) (*TaskGraph, error) {
	g := &TaskGraph{
		tasks: make(map[model.TaskName]Task, len(tasks)),
	}

	declared := make([]model.TaskName, 0, len(tasks))
	for _, t := range tasks {
		if t.Name == "" {
			return nil, goerr.New("task name is empty", goerr.T(model.ErrTagInvalidTaskGraph))
		}
		if t.Run == nil {
			return nil, goerr.New("task has no action",
				goerr.T(model.ErrTagInvalidTaskGraph), goerr.V("task", t.Name))
		}
		if _, ok := g.tasks[t.Name]; ok {
			return nil, goerr.New("task declared twice",
				goerr.T(model.ErrTagInvalidTaskGraph), goerr.V("task", t.Name))
		}
		g.tasks[t.Name] = t
		declared = append(declared, t.Name)
	}

	for _, t := range tasks {
		for _, need := range t.Needs {
			if _, ok := g.tasks[need]; !ok {
				return nil, goerr.New("task depends on undeclared task",
					goerr.T(model.ErrTagInvalidTaskGraph),
					goerr.V("task", t.Name),
					goerr.V("prerequisite", need),
				)
			}
		}
	}

	const (
		unvisited = iota
		visiting
		visited
	)
	marks := make(map[model.TaskName]int, len(tasks))
	order := make([]model.TaskName, 0, len(tasks))

	var visit func(name model.TaskName, path []model.TaskName) error
	visit = func(name model.TaskName, path []model.TaskName) error {
		switch marks[name] {
		case visited:
			return nil
		case visiting:
			return goerr.New("task graph has a cycle",
				goerr.T(model.ErrTagInvalidTaskGraph),
				goerr.V("cycle", append(path, name)),
			)
		}
		marks[name] = visiting
		for _, need := range g.tasks[name].Needs {
			if err := visit(need, append(path, name)); err != nil {
				return err
			}
		}
		marks[name] = visited
		order = append(order, name)
		return nil
	}

	for _, name := range declared {
		if err := visit(name, nil); err != nil {
			return nil, err
		}
	}

	g.order = order
	return g, nil
}

// Order returns the execution order
func (g *TaskGraph) Order() []model.TaskName {
	return append([]model.TaskName{}, g.order...)
}

// DependsOn reports whether task transitively requires prerequisite
func (g *TaskGraph) DependsOn(task, prerequisite model.TaskName) bool {
	seen := make(map[model.TaskName]bool)
	var walk func(model.TaskName) bool
	walk = func(name model.TaskName) bool {
		for _, need := range g.tasks[name].Needs {
			if need == prerequisite {
				return true
			}
			if seen[need] {
				continue
			}
			seen[need] = true
			if walk(need) {
				return true
			}
		}
		return false
	}
	return walk(task)
}

// Execute runs every task once. The first failure halts the graph: tasks depending on the
// failed one are marked blocked with a PrerequisiteFailed error, the rest skipped.
// Cancellation is checked between tasks only.
func (g *TaskGraph) Execute(ctx context.Context) *GraphResult {
	logger := ctxlog.From(ctx)
	result := &GraphResult{}

	if g.ran {
		result.Err = goerr.New("task graph already executed", goerr.T(model.ErrTagInvalidTaskGraph))
		return result
	}
	g.ran = true

	status := make(map[model.TaskName]model.TaskStatus, len(g.order))
	errs := make(map[model.TaskName]error)
	for _, name := range g.order {
		status[name] = model.TaskStatusPending
	}

	for _, name := range g.order {
		if err := ctx.Err(); err != nil {
			result.Err = goerr.Wrap(err, "release interrupted between tasks",
				goerr.V("next_task", name),
				goerr.V("last_completed", result.LastCompleted),
			)
			break
		}

		task := g.tasks[name]
		if err := g.checkPrerequisites(task, status); err != nil {
			status[name] = model.TaskStatusBlocked
			errs[name] = err
			result.FailedTask = name
			result.Err = err
			break
		}

		logger.Debug("Task started", "task", name, "state", name.State())
		if err := runTask(ctx, task); err != nil {
			logger.Error("Task failed", "task", name, "state", name.State(), "error", err)
			status[name] = model.TaskStatusFailed
			errs[name] = err
			result.FailedTask = name
			result.Err = err
			break
		}

		status[name] = model.TaskStatusDone
		result.LastCompleted = name
		logger.Info("Task completed", "task", name, "state", name.State())
	}

	for _, name := range g.order {
		if status[name] != model.TaskStatusPending {
			continue
		}
		if result.FailedTask != "" && g.DependsOn(name, result.FailedTask) {
			status[name] = model.TaskStatusBlocked
			errs[name] = goerr.New("prerequisite did not complete",
				goerr.T(model.ErrTagPrerequisiteFailed),
				goerr.V("task", name),
				goerr.V("prerequisite", result.FailedTask),
			)
			continue
		}
		status[name] = model.TaskStatusSkipped
	}

	for _, name := range g.order {
		result.Tasks = append(result.Tasks, model.TaskResult{
			Name:   name,
			Status: status[name],
			Err:    errs[name],
		})
	}

	return result
}

func (g *TaskGraph) checkPrerequisites(task Task, status map[model.TaskName]model.TaskStatus) error {
	for _, need := range task.Needs {
		if status[need] != model.TaskStatusDone {
			return goerr.New("prerequisite did not complete",
				goerr.T(model.ErrTagPrerequisiteFailed),
				goerr.V("task", task.Name),
				goerr.V("prerequisite", need),
				goerr.V("prerequisite_status", status[need]),
			)
		}
	}
	return nil
}

// runTask executes one task and turns a panic into a task failure
func runTask(ctx context.Context, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			stack := debug.Stack()
			ctxlog.From(ctx).Error("panic in release task",
				"task", task.Name,
				"recover", r,
				"stack", string(stack))
			err = goerr.New("panic in release task",
				goerr.V("task", task.Name),
				goerr.V("recover", r),
			)
		}
	}()

	return task.Run(ctx)
}
