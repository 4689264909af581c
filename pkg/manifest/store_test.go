package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreLoadMissingFile(t *testing.T) {
	store := NewStore(JSONCodec{})

	doc, err := store.Load(filepath.Join(t.TempDir(), "assets.json"))
	require.NoError(t, err)
	assert.Equal(t, 0, doc.Manifest.Total())
	assert.Nil(t, doc.Manual)
}

func TestStoreSaveAndLoad(t *testing.T) {
	out := filepath.Join(t.TempDir(), "src", "game", "assets.json")
	store := NewStore(JSONCodec{})
	m := sampleManifest(t)

	require.NoError(t, store.Save(out, NewDocument(m)))

	doc, err := store.Load(out)
	require.NoError(t, err)
	assert.True(t, m.Equal(doc.Manifest))

	entries, err := os.ReadDir(filepath.Dir(out))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestStoreLoadUnparseableKeepsManual(t *testing.T) {
	out := filepath.Join(t.TempDir(), "assets.js")
	content := "export const images = [ {\n" + ManualMarker + "\nexport const hand = 1;\n"
	require.NoError(t, os.WriteFile(out, []byte(content), 0o600))

	doc, err := NewStore(NewModuleCodec()).Load(out)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnparseable))
	require.NotNil(t, doc)
	assert.Equal(t, 0, doc.Manifest.Total())
	assert.Equal(t, ManualMarker+"\nexport const hand = 1;\n", string(doc.Manual))
}

func TestStoreLoadUnparseableJSON(t *testing.T) {
	out := filepath.Join(t.TempDir(), "assets.json")
	require.NoError(t, os.WriteFile(out, []byte("{not json"), 0o600))

	doc, err := NewStore(JSONCodec{}).Load(out)
	assert.ErrorIs(t, err, ErrUnparseable)
	require.NotNil(t, doc)
	assert.Equal(t, 0, doc.Manifest.Total())
}

func TestStoreSavePreservesMode(t *testing.T) {
	out := filepath.Join(t.TempDir(), "assets.json")
	require.NoError(t, os.WriteFile(out, []byte("{}"), 0o600))

	require.NoError(t, NewStore(JSONCodec{}).Save(out, NewDocument(nil)))

	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestStoreSaveBytesFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	err := NewStore(JSONCodec{}).SaveBytes(filepath.Join(blocker, "assets.json"), []byte("{}"))
	assert.ErrorIs(t, err, ErrWrite)
}

func TestAcquireLock(t *testing.T) {
	out := filepath.Join(t.TempDir(), "assets.json")

	lock, err := AcquireLock(out)
	require.NoError(t, err)
	assert.Equal(t, out+".lock", lock.Path())

	_, err = AcquireLock(out)
	assert.ErrorIs(t, err, ErrLocked)

	require.NoError(t, lock.Release())
	_, statErr := os.Stat(out + ".lock")
	assert.True(t, os.IsNotExist(statErr))

	again, err := AcquireLock(out)
	require.NoError(t, err)
	require.NoError(t, again.Release())
}
