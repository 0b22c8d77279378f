package usecase

import (
	"context"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/gitflow-release/pkg/domain/interfaces"
	"github.com/m-mizutani/gitflow-release/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

// VersionResolver decides the version of a release
type VersionResolver struct {
	history   interfaces.CommitHistory
	manifests *ManifestSet
}

// NewVersionResolver creates a VersionResolver
func NewVersionResolver(history interfaces.CommitHistory, manifests *ManifestSet) *VersionResolver {
	return &VersionResolver{
		history:   history,
		manifests: manifests,
	}
}

// Resolve validates cfg.VersionNumber when set, otherwise applies the bump recommended by
// commit history to the version of the first existing bump file. It never writes anything.
func (r *VersionResolver) Resolve(ctx context.Context, cfg model.ReleaseConfig) (model.ResolvedVersion, error) {
	logger := ctxlog.From(ctx)

	if cfg.VersionNumber != "" {
		v, err := model.ParseVersion(cfg.VersionNumber, model.VersionSourceExplicit)
		if err != nil {
			return model.ResolvedVersion{}, goerr.Wrap(err, "specify a valid semantic version with -v X.Y.Z")
		}
		logger.Info("Using explicit version", "version", v.String())
		return v, nil
	}

	level, err := r.history.RecommendBump(ctx, cfg.ChangelogPreset)
	if err != nil {
		return model.ResolvedVersion{}, goerr.Wrap(err, "failed to get recommended bump",
			goerr.T(model.ErrTagUnresolvedVersion),
			goerr.V("preset", cfg.ChangelogPreset),
		)
	}
	if !level.Valid() {
		return model.ResolvedVersion{}, goerr.New("commit history recommended an unknown bump level",
			goerr.T(model.ErrTagUnresolvedVersion),
			goerr.V("level", string(level)),
			goerr.V("preset", cfg.ChangelogPreset),
		)
	}

	file, current, err := r.manifests.CurrentVersion(cfg.BumpFiles)
	if err != nil {
		return model.ResolvedVersion{}, goerr.Wrap(err, "failed to read current version",
			goerr.T(model.ErrTagUnresolvedVersion))
	}

	v, err := model.Bump(current, level)
	if err != nil {
		return model.ResolvedVersion{}, goerr.Wrap(err, "failed to bump current version",
			goerr.V("file", file))
	}

	logger.Info("Resolved recommended version",
		"current", current,
		"level", level,
		"version", v.String(),
		"file", file,
	)
	return v, nil
}
