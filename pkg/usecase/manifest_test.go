package usecase_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gitflow-release/pkg/domain/model"
	"github.com/m-mizutani/gitflow-release/pkg/usecase"
	"github.com/m-mizutani/gt"
)

func mustVersion(t *testing.T, s string) model.ResolvedVersion {
	t.Helper()
	v, err := model.ParseVersion(s, model.VersionSourceExplicit)
	gt.NoError(t, err)
	return v
}

const packageJSON = `{
  "name": "app",
  "version": "1.3.9",
  "scripts": {
    "test": "mocha"
  }
}
`

func TestManifestBumper_Bump(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "package.json", packageJSON)
	writeFile(t, dir, "bower.json", `{"name":"app","version":"1.3.9"}`)

	bumper := usecase.NewManifestBumper(newManifestSet(dir))
	written, err := bumper.Bump(context.Background(), []string{"package.json", "bower.json"}, mustVersion(t, "1.4.0"))
	gt.NoError(t, err)
	gt.Value(t, written).Equal([]string{"package.json", "bower.json"})

	// only the version value changes
	gt.Value(t, readFile(t, dir, "package.json")).Equal(`{
  "name": "app",
  "version": "1.4.0",
  "scripts": {
    "test": "mocha"
  }
}
`)
	gt.Value(t, readFile(t, dir, "bower.json")).Equal(`{"name":"app","version":"1.4.0"}`)
}

func TestManifestBumper_Idempotent(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "package.json", packageJSON)

	bumper := usecase.NewManifestBumper(newManifestSet(dir))
	v := mustVersion(t, "1.4.0")

	_, err := bumper.Bump(context.Background(), []string{"package.json"}, v)
	gt.NoError(t, err)
	first := readFile(t, dir, "package.json")

	_, err = bumper.Bump(context.Background(), []string{"package.json"}, v)
	gt.NoError(t, err)
	gt.Value(t, readFile(t, dir, "package.json")).Equal(first)
}

func TestManifestBumper_SkipsMissingFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "package.json", packageJSON)

	bumper := usecase.NewManifestBumper(newManifestSet(dir))
	written, err := bumper.Bump(context.Background(), []string{"package.json", "bower.json"}, mustVersion(t, "1.4.0"))
	gt.NoError(t, err)
	gt.Value(t, written).Equal([]string{"package.json"})

	_, err = os.Stat(filepath.Join(dir, "bower.json"))
	gt.True(t, os.IsNotExist(err))
}

func TestManifestBumper_XML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.xml", `<?xml version="1.0" encoding="utf-8"?>
<widget id="com.example.app" version="1.3.9"><name>App</name></widget>`)

	bumper := usecase.NewManifestBumper(newManifestSet(dir))
	_, err := bumper.Bump(context.Background(), []string{"config.xml"}, mustVersion(t, "1.4.0"))
	gt.NoError(t, err)

	file, current, err := newManifestSet(dir).CurrentVersion([]string{"config.xml"})
	gt.NoError(t, err)
	gt.Value(t, file).Equal("config.xml")
	gt.Value(t, current).Equal("1.4.0")
	gt.String(t, readFile(t, dir, "config.xml")).Contains(`<name>App</name>`)
}

func TestManifestBumper_Failures(t *testing.T) {
	testCases := []struct {
		name  string
		files map[string]string
		bump  []string
	}{
		{
			name: "no file exists",
			bump: []string{"package.json", "bower.json"},
		},
		{
			name:  "unsupported format",
			files: map[string]string{"VERSION": "1.3.9"},
			bump:  []string{"VERSION"},
		},
		{
			name:  "broken JSON",
			files: map[string]string{"package.json": `{"version": `},
			bump:  []string{"package.json"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			for name, content := range tc.files {
				writeFile(t, dir, name, content)
			}

			bumper := usecase.NewManifestBumper(newManifestSet(dir))
			_, err := bumper.Bump(context.Background(), tc.bump, mustVersion(t, "1.4.0"))
			gt.Error(t, err)
			gt.Value(t, model.KindOf(err)).Equal(model.KindManifestWriteFailed)

			// nothing was rewritten
			for name, content := range tc.files {
				gt.Value(t, readFile(t, dir, name)).Equal(content)
			}
		})
	}
}

func TestManifestBumper_KeepsOtherFilesOnLateFailure(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "package.json", packageJSON)
	writeFile(t, dir, "bower.json", `not json`)

	bumper := usecase.NewManifestBumper(newManifestSet(dir))
	_, err := bumper.Bump(context.Background(), []string{"package.json", "bower.json"}, mustVersion(t, "1.4.0"))
	gt.Error(t, err)

	// rewrites are computed before the first write
	gt.Value(t, readFile(t, dir, "package.json")).Equal(packageJSON)
}
