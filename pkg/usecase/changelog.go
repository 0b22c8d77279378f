package usecase

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/gitflow-release/pkg/domain/interfaces"
	"github.com/m-mizutani/gitflow-release/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

// ChangelogGenerator prepends release notes to the changelog file
type ChangelogGenerator struct {
	root    string
	history interfaces.CommitHistory
}

// NewChangelogGenerator creates a ChangelogGenerator writing files under root
func NewChangelogGenerator(root string, history interfaces.CommitHistory) *ChangelogGenerator {
	return &ChangelogGenerator{
		root:    root,
		history: history,
	}
}

// Generate renders entries for commits since the last release, prepends them to file and
// returns the new content. A missing file is treated as empty.
func (g *ChangelogGenerator) Generate(ctx context.Context, file, preset string, version model.ResolvedVersion) (string, error) {
	logger := ctxlog.From(ctx)

	path := file
	if !filepath.IsAbs(path) {
		path = filepath.Join(g.root, file)
	}

	existing, err := os.ReadFile(path)
	mode := fs.FileMode(0644)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logger.Debug("Changelog does not exist yet", "file", file)
	case err != nil:
		return "", goerr.Wrap(err, "failed to read changelog",
			goerr.T(model.ErrTagChangelogGenerationFailed), goerr.V("file", file))
	default:
		if info, statErr := os.Stat(path); statErr == nil {
			mode = info.Mode().Perm()
		}
	}

	if hasVersionBlock(existing, version) {
		logger.Info("Changelog already has entries for version", "file", file, "version", version.String())
		return string(existing), nil
	}

	entries, err := g.history.ChangelogEntries(ctx, preset, version)
	if err != nil {
		return "", goerr.Wrap(err, "failed to generate changelog entries",
			goerr.T(model.ErrTagChangelogGenerationFailed),
			goerr.V("preset", preset),
			goerr.V("version", version.String()),
		)
	}

	content := entries + string(existing)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", goerr.Wrap(err, "failed to create changelog directory",
			goerr.T(model.ErrTagChangelogGenerationFailed), goerr.V("file", file))
	}
	if err := writeFileAtomic(path, []byte(content), mode); err != nil {
		return "", goerr.Wrap(err, "failed to write changelog",
			goerr.T(model.ErrTagChangelogGenerationFailed), goerr.V("file", file))
	}

	logger.Info("Updated changelog", "file", file, "entries_bytes", len(entries))
	return content, nil
}

// hasVersionBlock reports whether existing already opens with the anchor of version,
// as left behind by an interrupted run of the same release.
func hasVersionBlock(existing []byte, version model.ResolvedVersion) bool {
	anchor := `<a name="` + version.String() + `"></a>`
	return strings.HasPrefix(strings.TrimLeft(string(existing), " \t\r\n"), anchor)
}
