package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalSaveAndDelete(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocal(root, "", nil)
	require.NoError(t, err)

	ctx := context.Background()
	key := "musicians/photos/a.jpg"
	require.NoError(t, store.Save(ctx, key, "image/jpeg", strings.NewReader("jpeg"), 4))

	data, err := os.ReadFile(filepath.Join(root, "musicians", "photos", "a.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", string(data))

	require.NoError(t, store.Delete(ctx, key))
	_, err = os.Stat(filepath.Join(root, "musicians", "photos", "a.jpg"))
	assert.True(t, os.IsNotExist(err))

	// Missing files are not an error.
	assert.NoError(t, store.Delete(ctx, key))
}

func TestLocalRejectsTraversal(t *testing.T) {
	store, err := NewLocal(t.TempDir(), "", nil)
	require.NoError(t, err)

	err = store.Save(context.Background(), "../escape.txt", "text/plain", strings.NewReader("x"), 1)
	assert.ErrorIs(t, err, ErrInvalidKey)
	assert.ErrorIs(t, store.Delete(context.Background(), "a/../../b"), ErrInvalidKey)
}

func TestLocalURL(t *testing.T) {
	store, err := NewLocal(t.TempDir(), "https://api.example.com", nil)
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com/uploads/musicians/photos/a.jpg", store.URL("musicians/photos/a.jpg"))
	assert.Equal(t, "uploads", store.PathPrefix())
}

func TestCleanKey(t *testing.T) {
	cases := map[string]string{
		"/musicians/photos/a.jpg":  "musicians/photos/a.jpg",
		"musicians\\videos\\b.mp4": "musicians/videos/b.mp4",
		"organizers//documents/c":  "organizers/documents/c",
	}
	for in, want := range cases {
		got, err := CleanKey(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := CleanKey("   ")
	assert.ErrorIs(t, err, ErrInvalidKey)
}
