package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/fulmenhq/assetgen/internal/generate"
	"github.com/fulmenhq/assetgen/pkg/config"
	"github.com/fulmenhq/assetgen/pkg/exitcode"
	"github.com/fulmenhq/assetgen/pkg/manifest"
	"github.com/fulmenhq/assetgen/pkg/scanner"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execCommand runs a fresh command tree and returns what it printed.
func execCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCommand()
	registerSubcommands(root)

	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(append([]string{"--log-level", "error", "--no-color"}, args...))
	err := root.Execute()
	return buf.String(), err
}

func touch(t *testing.T, root string, rels ...string) {
	t.Helper()
	for _, rel := range rels {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	}
}

func readManifest(t *testing.T, path string) *manifest.Manifest {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	m, issues, err := manifest.DecodeJSON(data)
	require.NoError(t, err)
	require.Empty(t, issues)
	return m
}

func TestInitializeLogger(t *testing.T) {
	for _, level := range []string{"trace", "debug", "info", "warn", "error", "invalid"} {
		cmd := &cobra.Command{}
		cmd.Flags().String("log-level", level, "")
		cmd.Flags().Bool("json", false, "")
		cmd.Flags().Bool("no-color", true, "")

		// This should not panic
		initializeLogger(cmd)
	}
}

func TestRootGeneratesWithPositionalArgs(t *testing.T) {
	dir := t.TempDir()
	assets := filepath.Join(dir, "assets")
	out := filepath.Join(dir, "src", "assets.json")
	touch(t, assets, "hero.png", "fx/spark_particle.png", "music/theme.mp3", "intro.mp4", "notes.txt")

	stdout, err := execCommand(t, assets, out)
	require.NoError(t, err, stdout)

	m := readManifest(t, out)
	require.Len(t, m.List(manifest.Images), 1)
	assert.Equal(t, "hero", m.List(manifest.Images)[0].Key())
	assert.Equal(t, manifest.SentinelLabel, m.List(manifest.Images)[0].Label())
	require.Len(t, m.List(manifest.Particles), 1)
	assert.Equal(t, "fx/spark_particle.png", m.List(manifest.Particles)[0].Path())
	require.Len(t, m.List(manifest.Audio), 1)
	assert.Equal(t, "music/theme.mp3", m.List(manifest.Audio)[0].Path())
	require.Len(t, m.List(manifest.Videos), 1)

	assert.Contains(t, stdout, "[ADDED] (images) hero: hero.png")
	assert.Contains(t, stdout, "Generated "+out+" (json)")
}

func TestGenerateKeepsCuratedFields(t *testing.T) {
	dir := t.TempDir()
	assets := filepath.Join(dir, "assets")
	out := filepath.Join(dir, "assets.json")
	touch(t, assets, "hero.png")
	require.NoError(t, os.WriteFile(out, []byte(`{
  "images": [
    { "key": "hero", "path": "hero.png", "label": "Hero", "tags": ["ui"] },
    { "key": "gone", "path": "gone.png", "label": "Gone" }
  ],
  "particles": [],
  "audio": [],
  "videos": []
}
`), 0o644))

	stdout, err := execCommand(t, "generate", assets, out)
	require.NoError(t, err, stdout)

	images := readManifest(t, out).List(manifest.Images)
	require.Len(t, images, 1)
	assert.Equal(t, "Hero", images[0].Label())
	_, ok := images[0].Get("tags")
	assert.True(t, ok, "curator fields survive")
	assert.Contains(t, stdout, `[DROPPED] (images) gone: gone.png - Label: "Gone"`)
}

func TestGenerateCheck(t *testing.T) {
	dir := t.TempDir()
	assets := filepath.Join(dir, "assets")
	out := filepath.Join(dir, "assets.json")
	touch(t, assets, "a.png")

	_, err := execCommand(t, "generate", "--check", assets, out)
	require.Error(t, err, "missing manifest is out of date")
	assert.Equal(t, exitcode.ValidationError, exitCodeFor(err))
	assert.NoFileExists(t, out)

	_, err = execCommand(t, "generate", assets, out)
	require.NoError(t, err)

	stdout, err := execCommand(t, "generate", "--check", assets, out)
	require.NoError(t, err)
	assert.Contains(t, stdout, out+" is up to date")

	touch(t, assets, "b.png")
	_, err = execCommand(t, "--check", assets, out)
	require.Error(t, err)
	assert.Equal(t, exitcode.ValidationError, exitCodeFor(err))
}

func TestGenerateDryRun(t *testing.T) {
	dir := t.TempDir()
	assets := filepath.Join(dir, "assets")
	out := filepath.Join(dir, "assets.json")
	touch(t, assets, "a.png")

	stdout, err := execCommand(t, "generate", "--dry-run", assets, out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Dry run: would write "+out+" (json)")
	assert.NoFileExists(t, out)
}

func TestGenerateMissingRoot(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "assets.json")
	require.NoError(t, os.WriteFile(out, []byte(`{"images":[{"key":"a","path":"a.png","label":"A"}],"particles":[],"audio":[],"videos":[]}`), 0o644))

	_, err := execCommand(t, "generate", filepath.Join(dir, "nope"), out)
	require.Error(t, err)
	assert.ErrorIs(t, err, scanner.ErrMissingRoot)
	assert.Equal(t, exitcode.FileSystemError, exitCodeFor(err))
	assert.Len(t, readManifest(t, out).List(manifest.Images), 1, "abort leaves the manifest alone")

	_, err = execCommand(t, "generate", "--missing-root", "wipe", filepath.Join(dir, "nope"), out)
	require.NoError(t, err)
	assert.Equal(t, 0, readManifest(t, out).Total())
}

func TestGenerateExcludeFlag(t *testing.T) {
	dir := t.TempDir()
	assets := filepath.Join(dir, "assets")
	out := filepath.Join(dir, "assets.json")
	touch(t, assets, "a.png", "drafts/b.png")

	_, err := execCommand(t, "generate", "--exclude", "drafts/**", assets, out)
	require.NoError(t, err)

	images := readManifest(t, out).List(manifest.Images)
	require.Len(t, images, 1)
	assert.Equal(t, "a.png", images[0].Path())
}

func TestGenerateUsesConfigFile(t *testing.T) {
	dir := t.TempDir()
	assets := filepath.Join(dir, "media")
	out := filepath.Join(dir, "assets.yaml")
	touch(t, assets, "a.png", "clip.ogg")
	cfgPath := filepath.Join(dir, "assetgen.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(fmt.Sprintf("asset_dir: %s\noutput: %s\n", assets, out)), 0o644))

	stdout, err := execCommand(t, "--config", cfgPath)
	require.NoError(t, err, stdout)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	doc, err := manifest.YAMLCodec{}.Decode(data)
	require.NoError(t, err)
	assert.Len(t, doc.Manifest.List(manifest.Images), 1)
	assert.Len(t, doc.Manifest.List(manifest.Audio), 1)
}

func TestGenerateJSONSummary(t *testing.T) {
	dir := t.TempDir()
	assets := filepath.Join(dir, "assets")
	out := filepath.Join(dir, "assets.json")
	touch(t, assets, "a.png")

	stdout, err := execCommand(t, "--json", "generate", assets, out)
	require.NoError(t, err)

	var summary map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &summary), stdout)
	assert.Equal(t, true, summary["written"])
	assert.Equal(t, "json", summary["format"])
}

func TestGenerateUnsupportedFormat(t *testing.T) {
	dir := t.TempDir()
	assets := filepath.Join(dir, "assets")
	touch(t, assets, "a.png")

	_, err := execCommand(t, "generate", assets, filepath.Join(dir, "assets.toml"))
	require.Error(t, err)
	assert.Equal(t, exitcode.UnsupportedFormat, exitCodeFor(err))
}

func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, exitcode.Success},
		{"pinned", &exitError{code: exitcode.ValidationError, err: errors.New("stale")}, exitcode.ValidationError},
		{"format", fmt.Errorf("wrap: %w", manifest.ErrUnsupportedFormat), exitcode.UnsupportedFormat},
		{"config", fmt.Errorf("wrap: %w", config.ErrInvalid), exitcode.ConfigError},
		{"conflict", config.ErrExtensionConflict, exitcode.ConfigError},
		{"self check", generate.ErrSelfCheck, exitcode.ValidationError},
		{"missing root", scanner.ErrMissingRoot, exitcode.FileSystemError},
		{"write", fmt.Errorf("%w: disk full", manifest.ErrWrite), exitcode.FileSystemError},
		{"not found", fmt.Errorf("read: %w", os.ErrNotExist), exitcode.FileSystemError},
		{"permission", os.ErrPermission, exitcode.PermissionError},
		{"locked", manifest.ErrLocked, exitcode.GeneralError},
		{"other", errors.New("boom"), exitcode.GeneralError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCodeFor(tt.err))
		})
	}
}

func TestRootRejectsExtraArgs(t *testing.T) {
	_, err := execCommand(t, "a", "b", "c")
	assert.Error(t, err)
}
