package scanner

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/fulmenhq/assetgen/pkg/ignore"
	"github.com/fulmenhq/assetgen/pkg/manifest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, root string, rels ...string) {
	t.Helper()
	for _, rel := range rels {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	}
}

func newScanner(t *testing.T, opts Options) *Scanner {
	t.Helper()
	s, err := New(opts)
	require.NoError(t, err)
	return s
}

func TestScanClassifies(t *testing.T) {
	root := t.TempDir()
	touch(t, root,
		"photo1.png",
		"gallery/Photo2.JPG",
		"clip_particle.png",
		"fx/PARTICLES/spark.mp3",
		"music/theme.ogg",
		"music/click.wav",
		"video/intro.mp4",
		"video/loop.webm",
		"notes.txt",
		"README",
	)

	res, err := newScanner(t, DefaultOptions()).Scan(root)
	require.NoError(t, err)

	assert.Equal(t, []string{"gallery/Photo2.JPG", "photo1.png"}, res.Found[manifest.Images].Sorted())
	assert.Equal(t, []string{"clip_particle.png", "fx/PARTICLES/spark.mp3"}, res.Found[manifest.Particles].Sorted())
	assert.Equal(t, []string{"music/click.wav", "music/theme.ogg"}, res.Found[manifest.Audio].Sorted())
	assert.Equal(t, []string{"video/intro.mp4", "video/loop.webm"}, res.Found[manifest.Videos].Sorted())
	assert.Equal(t, 10, res.Files)
	assert.Equal(t, 2, res.Ignored)
	assert.Equal(t, 8, res.Total())
}

func TestScanParticleExclusivityAndDisjointness(t *testing.T) {
	root := t.TempDir()
	files := []string{
		"a_particle.png", "b_Particle.mp3", "particle/c.mp4", "d.png", "e.mp3", "f.webm",
		"sub/particleish.gif", "sub/g.jpeg", "h.ogg", "i.m4a",
	}
	touch(t, root, files...)

	res, err := newScanner(t, DefaultOptions()).Scan(root)
	require.NoError(t, err)

	seen := make(map[string]manifest.Category)
	for _, cat := range manifest.Categories() {
		for _, p := range res.Found[cat].Slice() {
			prev, dup := seen[p]
			assert.False(t, dup, "%s found in both %s and %s", p, prev, cat)
			seen[p] = cat
		}
	}
	assert.Len(t, seen, len(files))

	for _, p := range []string{"d.png", "e.mp3", "f.webm", "sub/g.jpeg", "h.ogg", "i.m4a"} {
		assert.NotEqual(t, manifest.Particles, seen[p], p)
	}
	for _, p := range []string{"a_particle.png", "b_Particle.mp3", "particle/c.mp4", "sub/particleish.gif"} {
		assert.Equal(t, manifest.Particles, seen[p], p)
	}
}

func TestScanEmptyRoot(t *testing.T) {
	res, err := newScanner(t, DefaultOptions()).Scan(t.TempDir())
	require.NoError(t, err)
	for _, cat := range manifest.Categories() {
		assert.Equal(t, 0, res.Found[cat].Len(), cat)
	}
}

func TestScanMissingRoot(t *testing.T) {
	s := newScanner(t, DefaultOptions())

	res, err := s.Scan(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingRoot))
	require.NotNil(t, res)
	assert.Equal(t, 0, res.Total())

	file := filepath.Join(t.TempDir(), "file.png")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	_, err = s.Scan(file)
	assert.ErrorIs(t, err, ErrMissingRoot)
}

func TestScanExclude(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "keep.png", "drafts/a.png", "deep/drafts/b.png", "thumbs/x.thumb.png", "raw/take.wav")

	opts := DefaultOptions()
	opts.Exclude = []string{"drafts/**", "*.thumb.png", ".\\raw"}
	res, err := newScanner(t, opts).Scan(root)
	require.NoError(t, err)

	assert.Equal(t, []string{"deep/drafts/b.png", "keep.png"}, res.Found[manifest.Images].Sorted())
	assert.Equal(t, 0, res.Found[manifest.Audio].Len())
	assert.Equal(t, 3, res.Excluded)
}

func TestNewRejectsBadPattern(t *testing.T) {
	opts := DefaultOptions()
	opts.Exclude = []string{"[unclosed"}
	_, err := New(opts)
	assert.Error(t, err)
}

func TestScanIgnoreFile(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "a.png", "wip/b.png", "c.psd.png")
	require.NoError(t, os.WriteFile(filepath.Join(root, ignore.DefaultFile), []byte("wip/\nc.*\n"), 0o644))

	matcher, err := ignore.NewMatcher(root, ignore.Options{File: ignore.DefaultFile})
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.Ignore = matcher
	res, err := newScanner(t, opts).Scan(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.png"}, res.Found[manifest.Images].Sorted())
}

func TestScanCustomExtensions(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "a.svg", "b.png", "c.flac")

	res, err := newScanner(t, Options{Images: []string{"SVG"}, Audio: []string{".FLAC"}}).Scan(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.svg"}, res.Found[manifest.Images].Sorted())
	assert.Equal(t, []string{"c.flac"}, res.Found[manifest.Audio].Sorted())
	assert.Equal(t, 1, res.Ignored)
}

func TestScanWalkError(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced")
	}
	root := t.TempDir()
	touch(t, root, "a.png", "locked/b.png")
	locked := filepath.Join(root, "locked")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	var reported []string
	opts := DefaultOptions()
	opts.OnWalkError = func(path string, err error) error {
		reported = append(reported, path)
		return nil
	}
	res, err := newScanner(t, opts).Scan(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.png"}, res.Found[manifest.Images].Sorted())
	assert.Equal(t, []string{locked}, reported)

	_, err = newScanner(t, DefaultOptions()).Scan(root)
	assert.Error(t, err, "without a handler the walk error aborts")
}

func TestClassifyOrder(t *testing.T) {
	s := newScanner(t, Options{
		Images: []string{".ogg"},
		Audio:  []string{".ogg"},
		Video:  []string{".ogg"},
	})
	cat, ok := s.Classify("x.ogg")
	require.True(t, ok)
	assert.Equal(t, manifest.Images, cat)

	_, ok = s.Classify("noext")
	assert.False(t, ok)
}

func TestClassifyDotFiles(t *testing.T) {
	s := newScanner(t, DefaultOptions())

	tests := []struct {
		rel  string
		want manifest.Category
		ok   bool
	}{
		{".png", "", false},
		{"ui/.png", "", false},
		{".hidden.png", manifest.Images, true},
		{"..png", manifest.Images, true},
		{"file.", "", false},
		{".spark_particle", manifest.Particles, true},
	}
	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			cat, ok := s.Classify(tt.rel)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, cat)
		})
	}
}

func TestPathSet(t *testing.T) {
	set := NewPathSet()
	assert.True(t, set.Add("b.png"))
	assert.True(t, set.Add("a.png"))
	assert.False(t, set.Add("b.png"), "duplicates are rejected")

	assert.Equal(t, 2, set.Len())
	assert.True(t, set.Has("a.png"))
	assert.False(t, set.Has("c.png"))
	assert.Equal(t, []string{"b.png", "a.png"}, set.Slice())
	assert.Equal(t, []string{"a.png", "b.png"}, set.Sorted())

	var zero PathSet
	assert.True(t, zero.Add("x"))

	var nilSet *PathSet
	assert.Equal(t, 0, nilSet.Len())
	assert.Nil(t, nilSet.Sorted())
}

func TestNormalizeExtension(t *testing.T) {
	assert.Equal(t, ".png", NormalizeExtension("PNG"))
	assert.Equal(t, ".png", NormalizeExtension(" .Png "))
	assert.Equal(t, "", NormalizeExtension(""))
}
