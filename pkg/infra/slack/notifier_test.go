package slack_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/gitflow-release/pkg/domain/model"
	"github.com/m-mizutani/gitflow-release/pkg/infra/slack"
	"github.com/m-mizutani/gt"
)

func TestNotifier_NotifyRelease(t *testing.T) {
	var received map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		gt.NoError(t, err)
		gt.NoError(t, json.Unmarshal(body, &received))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	v, err := model.ParseVersion("1.4.0", model.VersionSourceExplicit)
	gt.NoError(t, err)

	report := &model.RunReport{
		ID:            "run-1",
		Flavor:        model.FlavorNormal,
		Version:       v,
		ReleaseBranch: model.BranchRef{Name: "release/1.4.0", Synthesized: true},
		Tag:           "1.4.0",
	}

	n := slack.New(srv.URL, slack.WithChannel("#releases"))
	gt.NoError(t, n.NotifyRelease(context.Background(), report))

	gt.Value(t, received["text"]).Equal("Released 1.4.0 (normal release)")
	gt.Value(t, received["channel"]).Equal("#releases")
}

func TestNotifier_NotifyRelease_Error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := slack.New(srv.URL).NotifyRelease(context.Background(), &model.RunReport{ID: "run-1"})
	gt.Error(t, err)
}
