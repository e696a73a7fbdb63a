package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_PutGetDelete(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), nil)
	require.NoError(t, err)

	require.NoError(t, store.Put("auth", []byte(`{"token":"abc"}`)))

	data, err := store.Get("auth")
	require.NoError(t, err)
	assert.JSONEq(t, `{"token":"abc"}`, string(data))

	require.NoError(t, store.Delete("auth"))

	_, err = store.Get("auth")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileStore_DeleteMissingIsNoop(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), nil)
	require.NoError(t, err)

	assert.NoError(t, store.Delete("auth"))
}

func TestFileStore_FilePermissions(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir, nil)
	require.NoError(t, err)

	require.NoError(t, store.Put("auth", []byte(`{}`)))

	info, err := os.Stat(filepath.Join(dir, "auth.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileStore_KeyEscaping(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir, nil)
	require.NoError(t, err)

	require.NoError(t, store.Put("userProfile_../evil", []byte(`{}`)))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "userProfile_..%2Fevil.json", entries[0].Name())
}

func TestFileStore_InvalidKey(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), nil)
	require.NoError(t, err)

	assert.Error(t, store.Put("..", []byte(`{}`)))
	_, err = store.Get("")
	assert.Error(t, err)
}

func TestNewFileStore_EmptyDir(t *testing.T) {
	_, err := NewFileStore("", nil)
	assert.Error(t, err)
}

func TestFileStore_SealedRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir, NewSealer("correct horse"))
	require.NoError(t, err)

	require.NoError(t, store.Put("auth", []byte(`{"token":"abc"}`)))

	raw, err := os.ReadFile(filepath.Join(dir, "auth.json"))
	require.NoError(t, err)
	assert.True(t, IsSealed(raw))
	assert.NotContains(t, string(raw), "abc")

	data, err := store.Get("auth")
	require.NoError(t, err)
	assert.JSONEq(t, `{"token":"abc"}`, string(data))
}

func TestFileStore_WrongKeyIsCorrupt(t *testing.T) {
	dir := t.TempDir()
	writer, err := NewFileStore(dir, NewSealer("first"))
	require.NoError(t, err)
	require.NoError(t, writer.Put("auth", []byte(`{"token":"abc"}`)))

	reader, err := NewFileStore(dir, NewSealer("second"))
	require.NoError(t, err)

	_, err = reader.Get("auth")
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestFileStore_SealedWithoutKeyIsCorrupt(t *testing.T) {
	dir := t.TempDir()
	writer, err := NewFileStore(dir, NewSealer("secret"))
	require.NoError(t, err)
	require.NoError(t, writer.Put("auth", []byte(`{"token":"abc"}`)))

	reader, err := NewFileStore(dir, nil)
	require.NoError(t, err)

	_, err = reader.Get("auth")
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestSealer_TruncatedRecord(t *testing.T) {
	s := NewSealer("secret")
	_, err := s.Open([]byte("jbs1short"))
	assert.Error(t, err)
}

func TestNewSealer_EmptyPassphrase(t *testing.T) {
	assert.Nil(t, NewSealer(""))
}
