package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/gitflow-release/pkg/domain/interfaces"
	"github.com/m-mizutani/gitflow-release/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

type releaseUseCase struct {
	repo      interfaces.GitRepository
	history   interfaces.CommitHistory
	manifests *ManifestSet
	notifier  interfaces.Notifier
	now       func() time.Time
}

// ReleaseOption configures the release use case
type ReleaseOption func(*releaseUseCase)

// WithNotifier announces successful releases through n
func WithNotifier(n interfaces.Notifier) ReleaseOption {
	return func(uc *releaseUseCase) {
		uc.notifier = n
	}
}

// WithClock replaces time.Now for report timestamps
func WithClock(now func() time.Time) ReleaseOption {
	return func(uc *releaseUseCase) {
		uc.now = now
	}
}

// NewRelease creates a new instance of ReleaseUseCase
func NewRelease(
	repo interfaces.GitRepository,
	history interfaces.CommitHistory,
	manifests *ManifestSet,
	opts ...ReleaseOption,
) interfaces.ReleaseUseCase {
	uc := &releaseUseCase{
		repo:      repo,
		history:   history,
		manifests: manifests,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// releaseRun holds the values derived during one run. version and ref are set once by
// the resolve-version task and only read afterwards.
type releaseRun struct {
	cfg     model.ReleaseConfig
	version model.ResolvedVersion
	ref     model.BranchRef
	bumped  []string
	tag     string
	pushed  bool

	resolver  *VersionResolver
	bumper    *ManifestBumper
	changelog *ChangelogGenerator
	branch    *BranchLifecycle
	merger    *ReleaseMerger
}

func (uc *releaseUseCase) newRun(cfg model.ReleaseConfig) *releaseRun {
	return &releaseRun{
		cfg:       cfg,
		resolver:  NewVersionResolver(uc.history, uc.manifests),
		bumper:    NewManifestBumper(uc.manifests),
		changelog: NewChangelogGenerator(uc.manifests.root, uc.history),
		branch:    NewBranchLifecycle(uc.repo),
		merger:    NewReleaseMerger(uc.repo),
	}
}

// Plan returns the task order of a release without touching the repository
func (uc *releaseUseCase) Plan(cfg model.ReleaseConfig) ([]model.TaskName, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	graph, err := uc.buildGraph(uc.newRun(cfg))
	if err != nil {
		return nil, err
	}
	return graph.Order(), nil
}

// Release runs the release task graph. Completed git operations are never rolled back:
// on failure the report tells where the run stopped.
func (uc *releaseUseCase) Release(ctx context.Context, cfg model.ReleaseConfig) (*model.RunReport, error) {
	report := &model.RunReport{
		ID:        uuid.NewString(),
		Flavor:    cfg.Flavor(),
		StartedAt: uc.now(),
	}

	logger := ctxlog.From(ctx).With("run_id", report.ID)
	ctx = ctxlog.With(ctx, logger)

	logger.Info("Starting release",
		"flavor", cfg.Flavor(),
		"source", cfg.SourceBranch(),
		"version_number", cfg.VersionNumber,
		"push", cfg.Push,
	)

	if err := cfg.Validate(); err != nil {
		return uc.fail(ctx, report, err)
	}

	run := uc.newRun(cfg)
	graph, err := uc.buildGraph(run)
	if err != nil {
		return uc.fail(ctx, report, err)
	}

	result := graph.Execute(ctx)
	report.Tasks = result.Tasks
	report.LastCompleted = result.LastCompleted
	report.FailedTask = result.FailedTask
	report.Version = run.version
	report.ReleaseBranch = run.ref
	report.Tag = run.tag
	report.Pushed = run.pushed

	if result.Err != nil {
		return uc.fail(ctx, report, result.Err)
	}

	report.CurrentBranch = uc.currentBranch(ctx)
	report.FinishedAt = uc.now()
	logger.Info("Release completed",
		"version", report.Version.String(),
		"tag", report.Tag,
		"pushed", report.Pushed,
		"duration", report.FinishedAt.Sub(report.StartedAt),
	)

	if uc.notifier != nil {
		if err := uc.notifier.NotifyRelease(ctx, report); err != nil {
			logger.Warn("Failed to notify release", "error", err)
		}
	}

	return report, nil
}

func (uc *releaseUseCase) fail(ctx context.Context, report *model.RunReport, err error) (*model.RunReport, error) {
	report.Err = err
	report.Kind = model.KindOf(err)
	report.CurrentBranch = uc.currentBranch(ctx)
	report.FinishedAt = uc.now()

	ctxlog.From(ctx).Error("Release failed",
		"kind", report.Kind,
		"failed_task", report.FailedTask,
		"last_completed", report.LastCompleted,
		"version", report.Version.String(),
		"current_branch", report.CurrentBranch,
		"error", err,
	)

	return report, goerr.Wrap(err, "release failed",
		goerr.V("kind", report.Kind),
		goerr.V("failed_task", report.FailedTask),
		goerr.V("last_completed", report.LastCompleted),
		goerr.V("version", report.Version.String()),
		goerr.V("current_branch", report.CurrentBranch),
	)
}

func (uc *releaseUseCase) currentBranch(ctx context.Context) string {
	branch, err := uc.repo.CurrentBranch(ctx)
	if err != nil {
		ctxlog.From(ctx).Warn("Failed to get current branch", "error", err)
		return ""
	}
	return branch
}

// buildGraph declares the tasks of run's flavor
func (uc *releaseUseCase) buildGraph(run *releaseRun) (*TaskGraph, error) {
	cfg := run.cfg
	source := cfg.SourceBranch()

	tasks := []Task{
		{
			Name: model.TaskCheckoutSource,
			Run: func(ctx context.Context) error {
				if err := uc.repo.Checkout(ctx, source, interfaces.CheckoutOptions{}); err != nil {
					return goerr.Wrap(err, "failed to checkout source branch", goerr.V("branch", source))
				}
				return requireBranch(ctx, uc.repo, source)
			},
		},
		{
			Name:  model.TaskPullSource,
			Needs: []model.TaskName{model.TaskCheckoutSource},
			Run: func(ctx context.Context) error {
				if cfg.SkipPull {
					ctxlog.From(ctx).Info("Pull skipped", "branch", source)
					return nil
				}
				if err := requireBranch(ctx, uc.repo, source); err != nil {
					return err
				}
				if err := uc.repo.Pull(ctx, cfg.Origin, source, interfaces.PullOptions{FastForwardOnly: true}); err != nil {
					return goerr.Wrap(err, "failed to pull source branch",
						goerr.V("remote", cfg.Origin), goerr.V("branch", source))
				}
				return nil
			},
		},
		{
			Name:  model.TaskResolveVersion,
			Needs: []model.TaskName{model.TaskPullSource},
			Run: func(ctx context.Context) error {
				if !run.version.IsZero() {
					return goerr.New("version already resolved", goerr.V("version", run.version.String()))
				}
				v, err := run.resolver.Resolve(ctx, cfg)
				if err != nil {
					return err
				}
				run.version = v
				run.ref = cfg.ReleaseBranch(v)
				return nil
			},
		},
		{
			Name:  model.TaskBump,
			Needs: []model.TaskName{model.TaskResolveVersion},
			Run: func(ctx context.Context) error {
				bumped, err := run.bumper.Bump(ctx, cfg.BumpFiles, run.version)
				if err != nil {
					return err
				}
				run.bumped = bumped
				return nil
			},
		},
		{
			Name:  model.TaskChangelog,
			Needs: []model.TaskName{model.TaskBump},
			Run: func(ctx context.Context) error {
				_, err := run.changelog.Generate(ctx, cfg.ChangelogFile, cfg.ChangelogPreset, run.version)
				return err
			},
		},
		{
			Name:  model.TaskCreateBranch,
			Needs: []model.TaskName{model.TaskBump},
			Run: func(ctx context.Context) error {
				return run.branch.CreateReleaseBranch(ctx, run.ref)
			},
		},
		{
			Name:  model.TaskCommit,
			Needs: []model.TaskName{model.TaskBump, model.TaskChangelog, model.TaskCreateBranch},
			Run: func(ctx context.Context) error {
				err := run.branch.Commit(ctx, run.ref, cfg.CommitFiles(run.bumped), cfg.CommitMessageFor(run.version))
				if err != nil && cfg.AllowNothingToCommit && model.KindOf(err) == model.KindNothingToCommit {
					ctxlog.From(ctx).Warn("Nothing to commit, files already at target version",
						"branch", run.ref.Name, "version", run.version.String())
					run.branch.Skip()
					return nil
				}
				return err
			},
		},
	}

	steps, tagAfter := MergePlan(cfg, cfg.ReleaseBranch(model.ResolvedVersion{}))
	prev := model.TaskCommit
	for i, step := range steps {
		taskName := step.Task
		tasks = append(tasks, Task{
			Name:  taskName,
			Needs: []model.TaskName{prev},
			Run: func(ctx context.Context) error {
				// the release branch name is only known once the version is resolved
				resolved := run.mergeStep(taskName)
				return run.merger.Merge(ctx, resolved)
			},
		})
		prev = taskName

		if i == tagAfter {
			tasks = append(tasks, Task{
				Name:  model.TaskTag,
				Needs: []model.TaskName{taskName},
				Run: func(ctx context.Context) error {
					tag := cfg.TagName(run.version)
					if err := run.merger.Tag(ctx, cfg.MasterBranch, tag, run.version.String()); err != nil {
						return err
					}
					run.tag = tag
					return nil
				},
			})
			prev = model.TaskTag
		}
	}

	tasks = append(tasks,
		Task{
			Name:  model.TaskDeleteBranch,
			Needs: []model.TaskName{model.TaskMergeMaster, model.TaskMergeDevelop, model.TaskTag},
			Run: func(ctx context.Context) error {
				return run.branch.DeleteBranch(ctx, run.ref, cfg.MasterBranch, cfg.DevelopBranch)
			},
		},
		Task{
			Name:  model.TaskPush,
			Needs: []model.TaskName{model.TaskDeleteBranch},
			Run: func(ctx context.Context) error {
				pushed, err := run.merger.Push(ctx, cfg)
				if err != nil {
					return err
				}
				run.pushed = pushed
				return nil
			},
		},
	)

	return NewTaskGraph(tasks...)
}

// mergeStep returns the merge of task with the resolved release branch
func (r *releaseRun) mergeStep(task model.TaskName) MergeStep {
	steps, _ := MergePlan(r.cfg, r.ref)
	for _, step := range steps {
		if step.Task == task {
			return step
		}
	}
	return MergeStep{Task: task}
}
