package blob

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"myGroupBuy/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPOSIX(t *testing.T) {
	dir := t.TempDir()
	store := NewPOSIX(dir)
	ctx := context.Background()

	payload := []byte("artifact bytes")
	require.NoError(t, store.Put(ctx, "hybrid/v1.gob.gz", bytes.NewReader(payload), int64(len(payload))))

	rc, err := store.Get(ctx, "hybrid/v1.gob.gz")
	require.NoError(t, err)
	defer rc.Close()
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	// no temp files left next to the payload
	entries, err := os.ReadDir(filepath.Join(dir, "hybrid"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	_, err = store.Get(ctx, "hybrid/missing.gob.gz")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPOSIX_Overwrite(t *testing.T) {
	store := NewPOSIX(t.TempDir())
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "k", bytes.NewReader([]byte("old")), 3))
	require.NoError(t, store.Put(ctx, "k", bytes.NewReader([]byte("new")), 3))

	rc, err := store.Get(ctx, "k")
	require.NoError(t, err)
	defer rc.Close()
	got, _ := io.ReadAll(rc)
	assert.Equal(t, "new", string(got))
}

func TestPOSIX_CancelledContext(t *testing.T) {
	store := NewPOSIX(t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, store.Put(ctx, "k", bytes.NewReader(nil), 0))
	_, err := store.Get(ctx, "k")
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	s, err := Open(config.BlobConfig{Driver: "posix", Dir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &POSIX{}, s)

	s, err = Open(config.BlobConfig{Driver: "s3", Endpoint: "localhost:9000", Bucket: "models"})
	require.NoError(t, err)
	assert.IsType(t, &S3{}, s)

	_, err = Open(config.BlobConfig{Driver: "ftp"})
	assert.Error(t, err)
}
