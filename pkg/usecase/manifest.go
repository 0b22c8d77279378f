package usecase

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/gitflow-release/pkg/domain/interfaces"
	"github.com/m-mizutani/gitflow-release/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

// ManifestSet reads and rewrites version-bearing manifests under a repository root,
// choosing a rewriter by file extension.
type ManifestSet struct {
	root      string
	rewriters map[string]interfaces.ManifestRewriter
}

// ManifestOption configures a ManifestSet
type ManifestOption func(*ManifestSet)

// WithManifestFormat registers rewriter for files ending in ext (e.g. ".json")
func WithManifestFormat(ext string, rewriter interfaces.ManifestRewriter) ManifestOption {
	return func(s *ManifestSet) {
		s.rewriters[strings.ToLower(ext)] = rewriter
	}
}

// NewManifestSet creates a ManifestSet rooted at root
func NewManifestSet(root string, opts ...ManifestOption) *ManifestSet {
	s := &ManifestSet{
		root:      root,
		rewriters: make(map[string]interfaces.ManifestRewriter),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *ManifestSet) path(file string) string {
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(s.root, file)
}

func (s *ManifestSet) rewriter(file string) (interfaces.ManifestRewriter, error) {
	ext := strings.ToLower(filepath.Ext(file))
	rw, ok := s.rewriters[ext]
	if !ok {
		return nil, goerr.New("unsupported manifest format",
			goerr.T(model.ErrTagManifestWriteFailed),
			goerr.V("file", file),
			goerr.V("ext", ext),
		)
	}
	return rw, nil
}

// CurrentVersion returns the version held by the first existing file of files
func (s *ManifestSet) CurrentVersion(files []string) (string, string, error) {
	for _, file := range files {
		data, err := os.ReadFile(s.path(file))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return "", "", goerr.Wrap(err, "failed to read manifest", goerr.V("file", file))
		}

		rw, err := s.rewriter(file)
		if err != nil {
			return "", "", err
		}
		version, err := rw.CurrentVersion(data)
		if err != nil {
			return "", "", goerr.Wrap(err, "failed to read manifest version", goerr.V("file", file))
		}
		return file, version, nil
	}

	return "", "", goerr.New("none of the bump files exist", goerr.V("files", files))
}

// ManifestBumper rewrites manifest versions
type ManifestBumper struct {
	manifests *ManifestSet
}

// NewManifestBumper creates a ManifestBumper
func NewManifestBumper(manifests *ManifestSet) *ManifestBumper {
	return &ManifestBumper{manifests: manifests}
}

type pendingWrite struct {
	file string
	data []byte
	mode fs.FileMode
}

// Bump sets version in every existing file of files and returns the files it wrote.
// Missing files are skipped. All rewrites are computed before the first write, and each
// write is atomic, so a failure names exactly one file and leaves it untouched.
func (b *ManifestBumper) Bump(ctx context.Context, files []string, version model.ResolvedVersion) ([]string, error) {
	logger := ctxlog.From(ctx)

	var pending []pendingWrite
	for _, file := range files {
		path := b.manifests.path(file)
		info, err := os.Stat(path)
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warn("Bump file not found, skipping", "file", file)
			continue
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to stat manifest",
				goerr.T(model.ErrTagManifestWriteFailed), goerr.V("file", file))
		}

		rw, err := b.manifests.rewriter(file)
		if err != nil {
			return nil, err
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read manifest",
				goerr.T(model.ErrTagManifestWriteFailed), goerr.V("file", file))
		}

		updated, err := rw.SetVersion(data, version.String())
		if err != nil {
			return nil, goerr.Wrap(err, "failed to rewrite manifest",
				goerr.T(model.ErrTagManifestWriteFailed), goerr.V("file", file))
		}
		pending = append(pending, pendingWrite{file: file, data: updated, mode: info.Mode().Perm()})
	}

	if len(pending) == 0 {
		return nil, goerr.New("none of the bump files exist",
			goerr.T(model.ErrTagManifestWriteFailed), goerr.V("files", files))
	}

	written := make([]string, 0, len(pending))
	for _, w := range pending {
		if err := writeFileAtomic(b.manifests.path(w.file), w.data, w.mode); err != nil {
			return written, goerr.Wrap(err, "failed to write manifest",
				goerr.T(model.ErrTagManifestWriteFailed),
				goerr.V("file", w.file),
				goerr.V("written", written),
			)
		}
		written = append(written, w.file)
		logger.Info("Bumped manifest", "file", w.file, "version", version.String())
	}

	return written, nil
}

// writeFileAtomic replaces path with data through a temporary file in the same directory
func writeFileAtomic(path string, data []byte, mode fs.FileMode) error {
	if err := renameio.WriteFile(path, data, mode); err != nil {
		return goerr.Wrap(err, "failed to replace file", goerr.V("path", path))
	}
	return nil
}
