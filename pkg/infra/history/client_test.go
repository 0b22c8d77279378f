package history_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/m-mizutani/gitflow-release/pkg/domain/model"
	"github.com/m-mizutani/gitflow-release/pkg/infra/history"
	"github.com/m-mizutani/gt"
)

type mockSource struct {
	tag     string
	commits []model.Commit
	err     error

	sinceCalls []string
	prefixes   []string
}

func (m *mockSource) LastTag(ctx context.Context, prefix string) (string, error) {
	m.prefixes = append(m.prefixes, prefix)
	return m.tag, nil
}

func (m *mockSource) Commits(ctx context.Context, since string) ([]model.Commit, error) {
	m.sinceCalls = append(m.sinceCalls, since)
	return m.commits, m.err
}

func fixedClock() time.Time {
	return time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
}

func newClient(t *testing.T, src *mockSource, opts ...history.Option) *history.Client {
	t.Helper()
	client, err := history.New(src, append([]history.Option{history.WithClock(fixedClock)}, opts...)...)
	gt.NoError(t, err)
	return client
}

func mustVersion(t *testing.T, s string) model.ResolvedVersion {
	t.Helper()
	v, err := model.ParseVersion(s, model.VersionSourceExplicit)
	gt.NoError(t, err)
	return v
}

func TestClient_RecommendBump(t *testing.T) {
	testCases := []struct {
		name    string
		commits []model.Commit
		want    model.BumpLevel
	}{
		{
			name:    "fixes only",
			commits: []model.Commit{{Subject: "fix: a"}, {Subject: "docs: b"}},
			want:    model.BumpPatch,
		},
		{
			name:    "feature",
			commits: []model.Commit{{Subject: "fix: a"}, {Subject: "feat: b"}},
			want:    model.BumpMinor,
		},
		{
			name:    "breaking",
			commits: []model.Commit{{Subject: "feat: a"}, {Subject: "fix: b", Body: "BREAKING CHANGE: c"}},
			want:    model.BumpMajor,
		},
		{
			name: "no commits",
			want: model.BumpPatch,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			src := &mockSource{tag: "v1.3.9", commits: tc.commits}
			client := newClient(t, src, history.WithTagPrefix("v"))

			level, err := client.RecommendBump(context.Background(), "angular")
			gt.NoError(t, err)
			gt.Value(t, level).Equal(tc.want)
			gt.Value(t, src.prefixes).Equal([]string{"v"})
			gt.Value(t, src.sinceCalls).Equal([]string{"v1.3.9"})
		})
	}
}

func TestClient_RecommendBump_Errors(t *testing.T) {
	t.Run("unknown preset", func(t *testing.T) {
		_, err := newClient(t, &mockSource{}).RecommendBump(context.Background(), "jquery")
		gt.Error(t, err)
	})

	t.Run("source failure", func(t *testing.T) {
		_, err := newClient(t, &mockSource{err: errors.New("log failed")}).RecommendBump(context.Background(), "angular")
		gt.Error(t, err)
	})
}

func TestClient_ChangelogEntries(t *testing.T) {
	src := &mockSource{
		tag: "1.3.9",
		commits: []model.Commit{
			{Hash: "def5678aaaaaaaa", Subject: "feat: B"},
			{Hash: "abc1234bbbbbbbb", Subject: "fix(core): A"},
			{Hash: "0000000cccccccc", Subject: "chore: ignored"},
		},
	}

	entries, err := newClient(t, src).ChangelogEntries(context.Background(), "angular", mustVersion(t, "1.4.0"))
	gt.NoError(t, err)
	gt.Value(t, entries).Equal("<a name=\"1.4.0\"></a>\n" +
		"# 1.4.0 (2026-10-18)\n" +
		"\n### Bug Fixes\n\n" +
		"* **core:** A (abc1234)\n" +
		"\n### Features\n\n" +
		"* B (def5678)\n" +
		"\n")
}

func TestClient_ChangelogEntries_PatchAndBreaking(t *testing.T) {
	src := &mockSource{
		commits: []model.Commit{
			{Hash: "1111111aaaaaaaa", Subject: "fix(cli): C", Body: "BREAKING CHANGE: flag -x removed"},
		},
	}

	entries, err := newClient(t, src).ChangelogEntries(context.Background(), "angular", mustVersion(t, "1.4.1"))
	gt.NoError(t, err)
	gt.Value(t, entries).Equal("<a name=\"1.4.1\"></a>\n" +
		"## 1.4.1 (2026-10-18)\n" +
		"\n### Bug Fixes\n\n" +
		"* **cli:** C (1111111)\n" +
		"\n### BREAKING CHANGES\n\n" +
		"* **cli:** flag -x removed\n" +
		"\n")
}

func TestPresets(t *testing.T) {
	gt.Value(t, history.Presets()).Equal([]string{"angular", "conventionalcommits"})
}
