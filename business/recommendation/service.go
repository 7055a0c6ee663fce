package recommendation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"myGroupBuy/domain"
	"myGroupBuy/pkg/logger"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Repositories groups the snapshot readers and sinks the service needs.
// FeatureCache and Config may be nil.
type Repositories struct {
	Users         UserRepository
	GroupBuys     GroupBuyRepository
	Contributions ContributionRepository
	Behavior      BehaviorEventRepository
	Clusters      ClusterAssignmentRepository
	Events        EventRepository
	Config        ConfigRepository
	FeatureCache  FeatureCache
}

type Service struct {
	userRepo     UserRepository
	groupBuyRepo GroupBuyRepository
	contribRepo  ContributionRepository
	behaviorRepo BehaviorEventRepository
	clusterRepo  ClusterAssignmentRepository
	eventRepo    EventRepository
	cfgRepo      ConfigRepository
	featureCache FeatureCache

	registry    *Registry
	eligChecker EligibilityChecker
	eligCache   eligibilityCache
	defaultCfg  Config

	now func() time.Time
	// one training run per process at a time
	trainMu sync.Mutex
}

func NewService(
	repos Repositories,
	registry *Registry,
	eligChecker EligibilityChecker,
	defaultCfg Config,
) *Service {
	if eligChecker == nil {
		eligChecker = NoopEligibilityChecker{}
	}
	return &Service{
		userRepo:     repos.Users,
		groupBuyRepo: repos.GroupBuys,
		contribRepo:  repos.Contributions,
		behaviorRepo: repos.Behavior,
		clusterRepo:  repos.Clusters,
		eventRepo:    repos.Events,
		cfgRepo:      repos.Config,
		featureCache: repos.FeatureCache,
		registry:     registry,
		eligChecker:  eligChecker,
		defaultCfg:   defaultCfg,
		now:          time.Now,
	}
}

func (s *Service) Registry() *Registry {
	return s.registry
}

// Config returns the effective tunables: defaults with DB overrides applied.
func (s *Service) Config(ctx context.Context) Config {
	return s.loadConfig(ctx)
}

// normalizeK applies the default for k <= 0 and caps at MaxK.
func normalizeK(k int, cfg Config) int {
	if k <= 0 {
		k = cfg.DefaultK
	}
	if cfg.MaxK > 0 && k > cfg.MaxK {
		k = cfg.MaxK
	}
	return k
}

// Recommend returns at most k ranked group-buys for the user, each with a
// score, a source and at least one reason. Every returned item is logged as
// a recommendation event before the call returns; if that write fails the
// call fails. The artifact is pinned once so the whole list comes from a
// single model version even if a newer one is activated meanwhile.
func (s *Service) Recommend(ctx context.Context, userID uint, k int) ([]domain.Recommendation, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	cfg := s.loadConfig(ctx)
	k = normalizeK(k, cfg)
	now := s.now()
	art := s.registry.Active(cfg.ModelType)

	in, err := s.loadServingInputs(ctx, userID, cfg, now)
	if err != nil {
		return nil, err
	}

	res := rankCandidates(art, in, k, cfg, now)

	tid := TraceIDFromContext(ctx)
	logger.Debug("recommend",
		"trace_id", tid,
		"user_id", userID,
		"k", k,
		"candidates", len(in.candidates),
		"returned", len(res.items),
		"cluster_id", res.clusterID,
		"artifact_version", res.artifactVersion,
		"cold_reason", res.coldReason,
	)

	recs := make([]domain.Recommendation, 0, len(res.items))
	events := make([]domain.RecommendationEvent, 0, len(res.items))
	for i, b := range res.items {
		reasons := Explain(b, cfg.MaxReasons)
		id := uuid.NewString()
		recs = append(recs, domain.Recommendation{
			EventID:    id,
			GroupBuyID: b.GroupBuyID,
			Score:      b.Score,
			Source:     b.Source,
			Reasons:    reasons,
			Deadline:   b.Deadline,
		})
		events = append(events, domain.RecommendationEvent{
			ID:              id,
			UserID:          userID,
			GroupBuyID:      b.GroupBuyID,
			Score:           b.Score,
			Rank:            i + 1,
			Source:          string(b.Source),
			Reasons:         reasons,
			ArtifactVersion: res.artifactVersion,
			ShownAt:         now,
		})
	}

	if len(events) > 0 {
		if err := s.eventRepo.SaveEvents(ctx, events); err != nil {
			return nil, fmt.Errorf("%w: failed to save recommendation events: %w", ErrUpstreamUnavailable, err)
		}
	}

	if res.coldReason != "" {
		ColdStartRequestsTotal.WithLabelValues(res.coldReason).Inc()
	}
	for source, n := range lo.CountValuesBy(res.items, func(b SignalBreakdown) domain.SignalSource { return b.Source }) {
		RecommendationsServedTotal.WithLabelValues(string(source)).Add(float64(n))
	}

	return recs, nil
}

// DebugRecommend ranks exactly like Recommend but returns every signal of
// the breakdown and writes no events.
func (s *Service) DebugRecommend(ctx context.Context, userID uint, k int) ([]domain.DebugRecommendation, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	cfg := s.loadConfig(ctx)
	k = normalizeK(k, cfg)
	now := s.now()
	art := s.registry.Active(cfg.ModelType)

	in, err := s.loadServingInputs(ctx, userID, cfg, now)
	if err != nil {
		return nil, err
	}

	res := rankCandidates(art, in, k, cfg, now)

	logger.Debug("recommend_debug",
		"trace_id", TraceIDFromContext(ctx),
		"user_id", userID,
		"k", k,
		"returned", len(res.items),
	)

	out := make([]domain.DebugRecommendation, 0, len(res.items))
	for _, b := range res.items {
		out = append(out, domain.DebugRecommendation{
			GroupBuyID:    b.GroupBuyID,
			Source:        b.Source,
			Collaborative: b.Collaborative,
			CollabItem:    b.CollabItem,
			CollabCat:     b.CollabCategory,
			Content:       b.Content,
			ContentKnown:  b.ContentKnown,
			Urgency:       b.Urgency,
			ZoneBoost:     b.ZoneBoost,
			FinalScore:    b.Score,
			ClusterID:     res.clusterID,
			Reasons:       Explain(b, cfg.MaxReasons),
			ArtifactVer:   res.artifactVersion,
		})
	}
	return out, nil
}

// Explain renders reasons for a breakdown with the configured reason cap.
func (s *Service) Explain(b SignalBreakdown) []string {
	return Explain(b, s.defaultCfg.MaxReasons)
}

// ClusterOf returns the user's cluster in the artifact serving uses. The
// persisted rows are only consulted when no artifact is pinned yet.
func (s *Service) ClusterOf(ctx context.Context, userID uint) (domain.ClusterAssignment, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.ClusterAssignment{}, false, fmt.Errorf("context error: %w", err)
	}
	if art := s.registry.Active(s.loadConfig(ctx).ModelType); art != nil {
		a, ok := art.Clusters.Assignments[userID]
		if !ok {
			return domain.ClusterAssignment{}, false, nil
		}
		return domain.ClusterAssignment{
			UserID:     userID,
			ClusterID:  a.ClusterID,
			Distance:   a.Distance,
			Version:    art.Meta.Version,
			AssignedAt: art.Meta.DataTo,
		}, true, nil
	}
	as, ok, err := s.clusterRepo.GetAssignment(ctx, userID)
	if err != nil {
		return domain.ClusterAssignment{}, false, fmt.Errorf("%w: failed to load cluster assignment: %w", ErrUpstreamUnavailable, err)
	}
	return as, ok, nil
}

// Features returns the cached feature vector of the last training run.
func (s *Service) Features(ctx context.Context, userID uint) (UserFeatureVector, bool, error) {
	if s.featureCache == nil {
		return UserFeatureVector{}, false, nil
	}
	return s.featureCache.GetFeatures(ctx, userID)
}

// UpdateConfig validates an override row against the defaults before
// storing it.
func (s *Service) UpdateConfig(ctx context.Context, row domain.RecommendationConfig) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}
	if s.cfgRepo == nil {
		return fmt.Errorf("config repository not configured")
	}
	row.Name = s.defaultCfg.ModelType
	if err := overlayConfig(s.defaultCfg, row).Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if row.EligibilityExpr != "" {
		if _, err := NewExprEligibilityChecker(row.EligibilityExpr); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}
	return s.cfgRepo.UpsertConfig(ctx, row)
}

// ListArtifacts returns the newest trained versions of the served model type.
func (s *Service) ListArtifacts(ctx context.Context, limit int) ([]domain.ModelArtifact, error) {
	return s.registry.List(ctx, s.defaultCfg.ModelType, limit)
}

// ActivateArtifact rolls serving to an already published version.
func (s *Service) ActivateArtifact(ctx context.Context, version string) error {
	if err := s.registry.Activate(ctx, s.defaultCfg.ModelType, version); err != nil {
		return err
	}
	if art := s.registry.Active(s.defaultCfg.ModelType); art != nil && art.Meta.Version == version {
		if err := s.clusterRepo.ReplaceAll(context.WithoutCancel(ctx), art.assignmentRows()); err != nil {
			logger.Error("failed to save cluster assignments", "version", version, "error", err)
		}
	}
	logger.Info("model artifact activated", "model_type", s.defaultCfg.ModelType, "version", version)
	return nil
}
