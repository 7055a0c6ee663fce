package blob

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"myGroupBuy/business/recommendation"
)

// POSIX stores artifact payloads as files under dir.
type POSIX struct {
	dir string
}

var _ recommendation.BlobStore = (*POSIX)(nil)

func NewPOSIX(dir string) *POSIX {
	return &POSIX{dir: dir}
}

// Put writes to a temp file in the target directory and renames it into
// place, so a reader never sees a half-written payload.
func (p *POSIX) Put(ctx context.Context, key string, r io.Reader, size int64) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	fullPath := filepath.Join(p.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("failed to create blob dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(fullPath), ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create temp blob: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write blob %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close blob %s: %w", key, err)
	}

	if err := os.Rename(tmp.Name(), fullPath); err != nil {
		return fmt.Errorf("failed to publish blob %s: %w", key, err)
	}
	return nil
}

func (p *POSIX) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	return os.Open(filepath.Join(p.dir, filepath.FromSlash(key)))
}
