package interfaces

import (
	"context"

	"github.com/m-mizutani/gitflow-release/pkg/domain/model"
)

// ReleaseUseCase runs a git-flow release
type ReleaseUseCase interface {
	// Release executes the release task graph for cfg. The report is returned even on failure.
	Release(ctx context.Context, cfg model.ReleaseConfig) (*model.RunReport, error)

	// Plan returns the ordered tasks Release would run for cfg without touching the repository
	Plan(cfg model.ReleaseConfig) ([]model.TaskName, error)
}
