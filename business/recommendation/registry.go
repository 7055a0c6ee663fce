package recommendation

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"myGroupBuy/domain"
	"myGroupBuy/pkg/logger"
)

// Registry tracks the active artifact per model type. Readers get an
// immutable *Artifact through an atomic pointer and keep using it for the
// whole call even if a newer artifact is activated meanwhile.
type Registry struct {
	repo  ArtifactRepository
	blobs BlobStore

	// model type -> *atomic.Pointer[Artifact]
	slots sync.Map
	// serializes activations so the DB flag and the pointer agree
	publishMu sync.Mutex
}

func NewRegistry(repo ArtifactRepository, blobs BlobStore) *Registry {
	return &Registry{repo: repo, blobs: blobs}
}

func (r *Registry) slot(modelType string) *atomic.Pointer[Artifact] {
	if p, ok := r.slots.Load(modelType); ok {
		return p.(*atomic.Pointer[Artifact])
	}
	p, _ := r.slots.LoadOrStore(modelType, new(atomic.Pointer[Artifact]))
	return p.(*atomic.Pointer[Artifact])
}

// Active returns the pinned artifact for the model type, nil if none.
func (r *Registry) Active(modelType string) *Artifact {
	return r.slot(modelType).Load()
}

// Publish stores the artifact payload and metadata, then activates it. The
// previous artifact stays active until the final flip succeeds.
func (r *Registry) Publish(ctx context.Context, a *Artifact) (domain.ModelArtifact, error) {
	if err := ctx.Err(); err != nil {
		return domain.ModelArtifact{}, fmt.Errorf("context error: %w", err)
	}

	payload, checksum, err := encodeArtifact(a)
	if err != nil {
		return domain.ModelArtifact{}, err
	}

	if err := r.blobs.Put(ctx, a.BlobKey(), bytes.NewReader(payload), int64(len(payload))); err != nil {
		return domain.ModelArtifact{}, fmt.Errorf("%w: failed to store artifact blob: %w", ErrUpstreamUnavailable, err)
	}

	rec := a.record(checksum, int64(len(payload)))
	if err := r.repo.Create(ctx, &rec); err != nil {
		return domain.ModelArtifact{}, fmt.Errorf("%w: failed to save artifact metadata: %w", ErrUpstreamUnavailable, err)
	}

	// last chance to abandon the run without touching the active model
	if err := ctx.Err(); err != nil {
		return domain.ModelArtifact{}, fmt.Errorf("context error: %w", err)
	}

	if err := r.activate(ctx, a); err != nil {
		return domain.ModelArtifact{}, err
	}
	rec.IsActive = true

	logger.Info("model artifact activated",
		"model_type", a.Meta.ModelType,
		"version", a.Meta.Version,
		"size_bytes", rec.SizeBytes,
	)
	return rec, nil
}

func (r *Registry) activate(ctx context.Context, a *Artifact) error {
	r.publishMu.Lock()
	defer r.publishMu.Unlock()

	if err := r.repo.Activate(ctx, a.Meta.ModelType, a.Meta.Version); err != nil {
		return fmt.Errorf("%w: failed to activate artifact: %w", ErrUpstreamUnavailable, err)
	}
	r.slot(a.Meta.ModelType).Store(a)
	recordModelQuality(a.Meta)
	return nil
}

// Activate re-activates a previously published version (rollback).
func (r *Registry) Activate(ctx context.Context, modelType, version string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}
	rec, ok, err := r.repo.GetByVersion(ctx, version)
	if err != nil {
		return fmt.Errorf("%w: failed to find artifact: %w", ErrUpstreamUnavailable, err)
	}
	if !ok || rec.ModelType != modelType {
		return ErrArtifactNotFound
	}
	a, err := r.fetch(ctx, rec)
	if err != nil {
		return err
	}
	return r.activate(ctx, a)
}

// Load reads the DB-active artifact for the model type and swaps it in
// unless it is already the pinned one. It returns nil, nil when nothing has
// been trained yet.
func (r *Registry) Load(ctx context.Context, modelType string) (*Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	// held across read and swap so a concurrent publish can't be overwritten
	// by the version read here
	r.publishMu.Lock()
	defer r.publishMu.Unlock()

	rec, ok, err := r.repo.GetActive(ctx, modelType)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to find active artifact: %w", ErrUpstreamUnavailable, err)
	}
	if !ok {
		return nil, nil
	}

	current := r.Active(modelType)
	if current != nil && current.Meta.Version == rec.Version {
		return current, nil
	}

	a, err := r.fetch(ctx, rec)
	if err != nil {
		return nil, err
	}

	r.slot(modelType).Store(a)
	recordModelQuality(a.Meta)

	logger.Info("model artifact loaded", "model_type", modelType, "version", rec.Version)
	return a, nil
}

func (r *Registry) fetch(ctx context.Context, rec domain.ModelArtifact) (*Artifact, error) {
	rc, err := r.blobs.Get(ctx, rec.BlobKey)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open artifact blob: %w", ErrUpstreamUnavailable, err)
	}
	defer rc.Close()

	a, err := decodeArtifact(rc, rec.Checksum)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *Registry) List(ctx context.Context, modelType string, limit int) ([]domain.ModelArtifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	if limit <= 0 {
		limit = 20
	}
	return r.repo.List(ctx, modelType, limit)
}

// RunRefresher polls for artifacts activated by another process (the
// trainer) until ctx is done.
func (r *Registry) RunRefresher(ctx context.Context, modelType string, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.Load(ctx, modelType); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("artifact refresh failed", "model_type", modelType, "error", err)
			}
		}
	}
}
