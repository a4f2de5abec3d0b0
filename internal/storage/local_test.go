package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorePut(t *testing.T) {
	root := t.TempDir()
	store := NewLocalStore(root, "http://localhost:8080/storage")

	key := AttachmentKey(1, 2, 3, "photo.jpg")
	require.NoError(t, store.Put(key, strings.NewReader("image bytes")))

	written, err := os.ReadFile(filepath.Join(root, "tenants", "1", "activities", "2", "entries", "3", "photo.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "image bytes", string(written))
}

func TestLocalStorePutOverwrites(t *testing.T) {
	root := t.TempDir()
	store := NewLocalStore(root, "http://localhost:8080/storage")

	require.NoError(t, store.Put("tenants/1/a.txt", strings.NewReader("first")))
	require.NoError(t, store.Put("tenants/1/a.txt", strings.NewReader("second")))

	written, err := os.ReadFile(filepath.Join(root, "tenants", "1", "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "second", string(written))
}

func TestLocalStorePutRejectsEmptyKey(t *testing.T) {
	store := NewLocalStore(t.TempDir(), "http://localhost:8080/storage")
	assert.Error(t, store.Put("", strings.NewReader("x")))
	assert.Error(t, store.Put(".", strings.NewReader("x")))
}

func TestLocalStorePutKeepsKeysInsideRoot(t *testing.T) {
	root := t.TempDir()
	store := NewLocalStore(root, "http://localhost:8080/storage")

	require.NoError(t, store.Put("../escape.txt", strings.NewReader("x")))

	// The traversal is stripped; the file stays under the root
	_, err := os.Stat(filepath.Join(root, "escape.txt"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(filepath.Dir(root), "escape.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestLocalStoreDelete(t *testing.T) {
	root := t.TempDir()
	store := NewLocalStore(root, "http://localhost:8080/storage")

	require.NoError(t, store.Put("tenants/1/a.txt", strings.NewReader("bytes")))
	require.NoError(t, store.Delete("tenants/1/a.txt"))

	_, err := os.Stat(filepath.Join(root, "tenants", "1", "a.txt"))
	assert.True(t, os.IsNotExist(err))

	// Deleting a missing object is not an error
	assert.NoError(t, store.Delete("tenants/1/a.txt"))
}

func TestLocalStoreURL(t *testing.T) {
	store := NewLocalStore("storage/app/public", "http://localhost:8080/storage/")

	key := AttachmentKey(7, 8, 9, "report.pdf")
	assert.Equal(t, "http://localhost:8080/storage/tenants/7/activities/8/entries/9/report.pdf", store.URL(key))
}

func TestAttachmentKey(t *testing.T) {
	assert.Equal(t, "tenants/1/activities/2/entries/3/a.jpg", AttachmentKey(1, 2, 3, "a.jpg"))
}
