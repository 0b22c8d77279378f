package model_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/m-mizutani/gitflow-release/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
)

func TestKindOf(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		gt.Value(t, model.KindOf(nil)).Equal(model.KindNone)
	})

	t.Run("tagged error", func(t *testing.T) {
		err := goerr.New("conflict", goerr.T(model.ErrTagMergeConflict))
		gt.Value(t, model.KindOf(err)).Equal(model.KindMergeConflict)
	})

	t.Run("tag survives wrapping", func(t *testing.T) {
		inner := goerr.New("nothing staged", goerr.T(model.ErrTagNothingToCommit))
		err := goerr.Wrap(goerr.Wrap(inner, "commit failed"), "release failed")
		gt.Value(t, model.KindOf(err)).Equal(model.KindNothingToCommit)
	})

	t.Run("tag behind fmt wrapping", func(t *testing.T) {
		inner := goerr.New("push rejected", goerr.T(model.ErrTagNetworkOperationFailed))
		err := fmt.Errorf("publish: %w", inner)
		gt.Value(t, model.KindOf(err)).Equal(model.KindNetworkOperationFailed)
	})

	t.Run("several tags follow kind order not nesting", func(t *testing.T) {
		inner := goerr.New("no tag", goerr.T(model.ErrTagManifestWriteFailed))
		err := goerr.Wrap(inner, "bump failed", goerr.T(model.ErrTagUnresolvedVersion))
		gt.Value(t, model.KindOf(err)).Equal(model.KindUnresolvedVersion)

		inner = goerr.New("no tag", goerr.T(model.ErrTagUnresolvedVersion))
		err = goerr.Wrap(inner, "bump failed", goerr.T(model.ErrTagManifestWriteFailed))
		gt.Value(t, model.KindOf(err)).Equal(model.KindUnresolvedVersion)
	})

	t.Run("cancellation", func(t *testing.T) {
		err := goerr.Wrap(context.Canceled, "interrupted")
		gt.Value(t, model.KindOf(err)).Equal(model.KindCancelled)
	})

	t.Run("unknown", func(t *testing.T) {
		gt.Value(t, model.KindOf(errors.New("boom"))).Equal(model.KindUnknown)
	})
}
