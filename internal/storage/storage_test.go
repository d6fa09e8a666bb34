package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipeshop/internal/config"
)

func TestLocal_PutDelete(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	disk, err := NewLocal(root, "http://localhost:8080/media/")
	require.NoError(t, err)

	require.NoError(t, disk.Put(ctx, "uploads/recipe/a.png", strings.NewReader("png"), "image/png"))
	data, err := os.ReadFile(filepath.Join(root, "uploads", "recipe", "a.png"))
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))

	assert.Equal(t, "http://localhost:8080/media/uploads/recipe/a.png", disk.URL("uploads/recipe/a.png"))

	require.NoError(t, disk.Delete(ctx, "uploads/recipe/a.png"))
	require.NoError(t, disk.Delete(ctx, "uploads/recipe/a.png"))
	_, err = os.Stat(filepath.Join(root, "uploads", "recipe", "a.png"))
	assert.True(t, os.IsNotExist(err))
}

func TestLocal_RejectsEscapingPaths(t *testing.T) {
	disk, err := NewLocal(t.TempDir(), "")
	require.NoError(t, err)
	err = disk.Put(context.Background(), "../outside.txt", strings.NewReader("x"), "")
	assert.ErrorContains(t, err, "escapes root")
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	disk, err := New(ctx, &config.Config{StorageDriver: "local", StorageLocalRoot: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &Local{}, disk)

	_, err = New(ctx, &config.Config{StorageDriver: "s3"})
	assert.ErrorContains(t, err, "S3_BUCKET")

	disk, err = New(ctx, &config.Config{StorageDriver: "s3", S3Bucket: "recipes", S3Region: "eu-west-1", S3Key: "k", S3Secret: "s"})
	require.NoError(t, err)
	assert.Equal(t, "https://recipes.s3.eu-west-1.amazonaws.com/uploads/a.png", disk.URL("uploads/a.png"))

	_, err = New(ctx, &config.Config{StorageDriver: "ftp"})
	assert.Error(t, err)
}
