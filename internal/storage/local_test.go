package storage_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"student-records/internal/storage"
)

func TestLocalService(t *testing.T) {
	root := filepath.Join(t.TempDir(), "uploads")
	svc, err := storage.NewLocalService(root, "uploads")
	require.NoError(t, err)
	ctx := context.Background()

	err = svc.Put(ctx, storage.Object{Key: "pics/a.png", ContentType: "image/png", Body: strings.NewReader("png-bytes")})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(root, "pics", "a.png"))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	url, err := svc.URL(ctx, "pics/a.png", 0)
	require.NoError(t, err)
	assert.Equal(t, "/uploads/pics/a.png", url)

	require.NoError(t, svc.Delete(ctx, "pics/a.png"))
	_, err = os.Stat(filepath.Join(root, "pics", "a.png"))
	assert.True(t, os.IsNotExist(err))

	// deleting twice is fine
	require.NoError(t, svc.Delete(ctx, "pics/a.png"))
}

func TestLocalService_RejectsEscapingKeys(t *testing.T) {
	svc, err := storage.NewLocalService(t.TempDir(), "/uploads/")
	require.NoError(t, err)

	for _, key := range []string{"", "../etc/passwd", "a/../../b"} {
		err := svc.Put(context.Background(), storage.Object{Key: key, Body: strings.NewReader("x")})
		assert.ErrorIs(t, err, storage.ErrInvalidKey, "key %q", key)
	}
}

func TestLocalService_CanceledContext(t *testing.T) {
	svc, err := storage.NewLocalService(t.TempDir(), "uploads")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = svc.Put(ctx, storage.Object{Key: "a.png", Body: strings.NewReader("x")})
	assert.ErrorIs(t, err, context.Canceled)

	_, err = os.Stat(filepath.Join(svc.Root(), "a.png"))
	assert.True(t, os.IsNotExist(err))
}
