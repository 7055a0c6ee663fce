package recommendation

import (
	"context"
	"errors"
	"io"
	"time"

	"myGroupBuy/domain"
)

var (
	// ErrUpstreamUnavailable wraps failures of the snapshot readers and sinks.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrArtifactNotFound    = errors.New("model artifact not found")
	ErrChecksumMismatch    = errors.New("model artifact checksum mismatch")
	ErrInvalidConfig       = errors.New("invalid recommendation config")
)

type UserRepository interface {
	FindAll(ctx context.Context) ([]domain.User, error)
	FindByID(ctx context.Context, id uint) (domain.User, error)
}

type GroupBuyRepository interface {
	// FindOpen returns group-buys still accepting participants at now.
	FindOpen(ctx context.Context, now time.Time) ([]domain.GroupBuy, error)
	// FindActiveSince returns group-buys created after since or still running.
	FindActiveSince(ctx context.Context, since time.Time) ([]domain.GroupBuy, error)
}

type ContributionRepository interface {
	FindSince(ctx context.Context, since time.Time) ([]domain.Contribution, error)
	FindByUser(ctx context.Context, userID uint) ([]domain.Contribution, error)
	// CountJoinsSince counts contributions per group-buy created after since.
	CountJoinsSince(ctx context.Context, since time.Time) (map[uint64]int, error)
}

type BehaviorEventRepository interface {
	FindSince(ctx context.Context, since time.Time) ([]domain.BehaviorEvent, error)
}

// ClusterAssignmentRepository is the write sink for training output.
type ClusterAssignmentRepository interface {
	ReplaceAll(ctx context.Context, assignments []domain.ClusterAssignment) error
	GetAssignment(ctx context.Context, userID uint) (domain.ClusterAssignment, bool, error)
}

type ArtifactRepository interface {
	Create(ctx context.Context, artifact *domain.ModelArtifact) error
	// Activate flips is_active to the given version in a single transaction.
	Activate(ctx context.Context, modelType, version string) error
	GetActive(ctx context.Context, modelType string) (domain.ModelArtifact, bool, error)
	GetByVersion(ctx context.Context, version string) (domain.ModelArtifact, bool, error)
	List(ctx context.Context, modelType string, limit int) ([]domain.ModelArtifact, error)
}

// BlobStore holds serialized artifact payloads.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}

// EventRepository is the append-only sink for served recommendations.
type EventRepository interface {
	SaveEvents(ctx context.Context, events []domain.RecommendationEvent) error
}

// FeatureCache keeps the latest extracted vectors for inspection.
type FeatureCache interface {
	SetFeatures(ctx context.Context, vectors []UserFeatureVector) error
	GetFeatures(ctx context.Context, userID uint) (UserFeatureVector, bool, error)
}
