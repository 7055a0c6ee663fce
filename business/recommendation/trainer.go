package recommendation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"myGroupBuy/domain"
	"myGroupBuy/pkg/logger"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// trainingSnapshot is the read-only view of the marketplace a run trains on.
type trainingSnapshot struct {
	users         []domain.User
	groupBuys     []domain.GroupBuy
	contributions []domain.Contribution
	behavior      []domain.BehaviorEvent
	from          time.Time
	to            time.Time
}

// trainingOutput is everything one run produces before it is published.
type trainingOutput struct {
	artifact    *Artifact
	assignments []domain.ClusterAssignment
	features    []UserFeatureVector
}

// Train runs the full pipeline over the trailing training window: features,
// scaling, clustering, cluster profiles and the content model. The result is
// persisted and activated only when every stage succeeded. A failed or
// cancelled run leaves the previously active artifact in place.
func (s *Service) Train(ctx context.Context) (domain.ModelArtifact, error) {
	start := time.Now()
	status := "failed"
	defer func() {
		TrainingRunsTotal.WithLabelValues(status).Inc()
		TrainingDurationSeconds.Observe(time.Since(start).Seconds())
	}()

	if err := ctx.Err(); err != nil {
		status = "cancelled"
		return domain.ModelArtifact{}, fmt.Errorf("context error: %w", err)
	}

	s.trainMu.Lock()
	defer s.trainMu.Unlock()

	cfg := s.loadConfig(ctx)
	now := s.now()

	snap, err := s.loadTrainingSnapshot(ctx, now.Add(-cfg.TrainingWindow), now)
	if err != nil {
		return domain.ModelArtifact{}, err
	}

	out, err := buildArtifact(ctx, snap, cfg)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			status = "cancelled"
		}
		return domain.ModelArtifact{}, err
	}

	if s.featureCache != nil {
		if err := s.featureCache.SetFeatures(ctx, out.features); err != nil {
			logger.Warn("failed to cache user features", "error", err)
		}
	}

	if err := ctx.Err(); err != nil {
		status = "cancelled"
		return domain.ModelArtifact{}, fmt.Errorf("context error: %w", err)
	}

	rec, err := s.registry.Publish(ctx, out.artifact)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			status = "cancelled"
		}
		return domain.ModelArtifact{}, err
	}

	// Assignments are written only for a published artifact. If this write
	// fails the rows keep the previous version and ClusterOf answers from
	// the pinned artifact instead.
	if err := s.clusterRepo.ReplaceAll(context.WithoutCancel(ctx), out.assignments); err != nil {
		logger.Error("failed to save cluster assignments", "version", rec.Version, "error", err)
	}

	status = "ok"
	logger.Info("training run finished",
		"version", rec.Version,
		"clusters", out.artifact.Clusters.K,
		"silhouette", silhouetteOrZero(out.artifact.Clusters.Silhouette),
		"content_rank", out.artifact.Content.Rank,
		"users", len(out.assignments),
		"duration", time.Since(start).String(),
	)
	return rec, nil
}

func (s *Service) loadTrainingSnapshot(ctx context.Context, from, to time.Time) (trainingSnapshot, error) {
	users, err := s.userRepo.FindAll(ctx)
	if err != nil {
		return trainingSnapshot{}, fmt.Errorf("%w: failed to load users: %w", ErrUpstreamUnavailable, err)
	}
	groupBuys, err := s.groupBuyRepo.FindActiveSince(ctx, from)
	if err != nil {
		return trainingSnapshot{}, fmt.Errorf("%w: failed to load group-buys: %w", ErrUpstreamUnavailable, err)
	}
	contributions, err := s.contribRepo.FindSince(ctx, from)
	if err != nil {
		return trainingSnapshot{}, fmt.Errorf("%w: failed to load contributions: %w", ErrUpstreamUnavailable, err)
	}
	var behavior []domain.BehaviorEvent
	if s.behaviorRepo != nil {
		behavior, err = s.behaviorRepo.FindSince(ctx, from)
		if err != nil {
			return trainingSnapshot{}, fmt.Errorf("%w: failed to load behavior events: %w", ErrUpstreamUnavailable, err)
		}
	}
	return trainingSnapshot{
		users:         users,
		groupBuys:     groupBuys,
		contributions: contributions,
		behavior:      behavior,
		from:          from,
		to:            to,
	}, nil
}

// buildArtifact is the pure part of training. Same snapshot and config give
// the same clusters, embeddings and metrics; only the version differs.
func buildArtifact(ctx context.Context, snap trainingSnapshot, cfg Config) (trainingOutput, error) {
	categories := CategoryVocabulary(snap.groupBuys, snap.contributions)

	history := make(map[uint][]HistoryEvent)
	for _, c := range snap.contributions {
		history[c.UserID] = append(history[c.UserID], HistoryFromContribution(c))
	}
	for _, e := range snap.behavior {
		history[e.UserID] = append(history[e.UserID], HistoryFromBehavior(e))
	}

	// admins and suppliers don't shop
	shoppers := lo.Filter(snap.users, func(u domain.User, _ int) bool {
		return !u.IsAdmin() && !u.IsSupplier()
	})
	sort.Slice(shoppers, func(i, j int) bool { return shoppers[i].ID < shoppers[j].ID })

	features := make([]UserFeatureVector, 0, len(shoppers))
	raw := make(map[uint][]float64)
	for _, u := range shoppers {
		fv := ExtractFeatures(u.ID, history[u.ID], categories, snap.to, cfg)
		features = append(features, fv)
		// users without history stay cold and are served by the fallback chain
		if fv.HasHistory {
			raw[u.ID] = Vectorize(fv, categories)
		}
	}

	if err := ctx.Err(); err != nil {
		return trainingOutput{}, fmt.Errorf("context error: %w", err)
	}

	ids := lo.Keys(raw)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	finiteRows := make([][]float64, 0, len(ids))
	for _, id := range ids {
		if isFinite(raw[id]) {
			finiteRows = append(finiteRows, raw[id])
		}
	}
	scaler := FitScaler(finiteRows)
	scaled := make(map[uint][]float64, len(raw))
	for id, v := range raw {
		scaled[id] = scaler.Transform(v)
	}

	clusters := ClusterUsers(scaled, cfg)

	if err := ctx.Err(); err != nil {
		return trainingOutput{}, fmt.Errorf("context error: %w", err)
	}

	profiles := BuildClusterProfiles(clusters.Assignments, snap.contributions)

	docs := make(map[uint64]string, len(snap.groupBuys))
	for _, gb := range snap.groupBuys {
		docs[gb.ID] = gb.Document()
	}
	content := BuildContentModel(docs, cfg)

	if err := ctx.Err(); err != nil {
		return trainingOutput{}, fmt.Errorf("context error: %w", err)
	}

	version, err := uuid.NewV7()
	if err != nil {
		return trainingOutput{}, fmt.Errorf("failed to generate artifact version: %w", err)
	}

	art := &Artifact{
		Meta: ArtifactMetadata{
			ModelType:       cfg.ModelType,
			Version:         version.String(),
			TrainedAt:       snap.to,
			DataFrom:        snap.from,
			DataTo:          snap.to,
			QualityMetrics:  qualityMetrics(clusters, content, len(shoppers), len(categories)),
			Hyperparameters: hyperparameters(cfg),
		},
		Scaler: scaler,
		Clusters: ClusterModel{
			K:           clusters.K,
			Silhouette:  clusters.Silhouette,
			Degenerate:  clusters.Degenerate,
			Categories:  categories,
			Centroids:   clusters.Centroids,
			Assignments: clusters.Assignments,
			Profiles:    profiles,
		},
		Content: content,
	}

	return trainingOutput{
		artifact:    art,
		assignments: art.assignmentRows(),
		features:    features,
	}, nil
}

func qualityMetrics(clusters ClusteringResult, content *ContentModel, users, categories int) map[string]float64 {
	m := map[string]float64{
		"silhouette":            clusters.Silhouette,
		"clusters":              float64(clusters.K),
		"clustered_users":       float64(len(clusters.Assignments) - len(clusters.Excluded)),
		"excluded_users":        float64(len(clusters.Excluded)),
		"eligible_users":        float64(users),
		"categories":            float64(categories),
		"clustering_degenerate": boolMetric(clusters.Degenerate),
		"content_rank":          float64(content.Rank),
		"reconstruction_error":  content.ReconstructionError,
		"embedded_items":        float64(len(content.Embeddings)),
		"vocabulary_size":       float64(len(content.Vocabulary)),
		"content_degenerate":    boolMetric(content.Degenerate),
	}
	for k, s := range clusters.Scores {
		m[fmt.Sprintf("silhouette_k%d", k)] = s
	}
	for r, e := range content.RankErrors {
		m[fmt.Sprintf("reconstruction_error_r%d", r)] = e
	}
	return m
}

func hyperparameters(cfg Config) map[string]float64 {
	return map[string]float64{
		"w_collaborative":         cfg.WCollaborative,
		"w_content":               cfg.WContent,
		"w_urgency":               cfg.WUrgency,
		"w_zone":                  cfg.WZone,
		"confidence_floor":        cfg.ConfidenceFloor,
		"min_clusters":            float64(cfg.MinClusters),
		"max_clusters":            float64(cfg.MaxClusters),
		"kmeans_restarts":         float64(cfg.KMeansRestarts),
		"min_rank":                float64(cfg.MinRank),
		"max_rank":                float64(cfg.MaxRank),
		"rank_step":               float64(cfg.RankStep),
		"rank_tolerance":          cfg.RankTolerance,
		"training_window_days":    cfg.TrainingWindow.Hours() / 24,
		"affinity_half_life_days": cfg.AffinityHalfLife.Hours() / 24,
		"recency_half_life_days":  cfg.RecencyHalfLife.Hours() / 24,
		"seed":                    float64(cfg.Seed),
	}
}

func boolMetric(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// silhouetteOrZero is used where a finite value is required (logs).
func silhouetteOrZero(s float64) float64 {
	if math.IsNaN(s) {
		return 0
	}
	return s
}
