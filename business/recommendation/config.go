package recommendation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"myGroupBuy/domain"
)

type Config struct {
	ModelType string

	// blend weights; fixed configuration, never learned
	WCollaborative float64
	WContent       float64
	WUrgency       float64
	WZone          float64

	// below this both collaborative and content count as "no signal"
	ConfidenceFloor float64

	DefaultK   int
	MaxK       int
	MaxReasons int

	UrgencyHorizon time.Duration
	// zone tier picks items at or above this MOQ progress, or inside UrgencyHorizon
	ZoneMOQThreshold float64

	// feature extraction
	TrainingWindow   time.Duration
	AffinityHalfLife time.Duration
	RecencyHalfLife  time.Duration

	// clustering
	MinClusters          int
	MaxClusters          int
	KMeansMaxIter        int
	KMeansRestarts       int
	SilhouetteSampleSize int

	// content model
	MinRank       int
	MaxRank       int
	RankStep      int
	RankTolerance float64
	NMFMaxIter    int
	MaxVocabulary int

	// cold start
	ColdStartTarget  int
	PopularityWindow time.Duration

	// optional expr-lang filter over {user, groupBuy, now}
	EligibilityExpr string

	Seed int64
}

const (
	defaultModelType        = "hybrid"
	defaultWCollaborative   = 0.4
	defaultWContent         = 0.3
	defaultWUrgency         = 0.2
	defaultWZone            = 0.1
	defaultConfidenceFloor  = 0.05
	defaultK                = 10
	defaultMaxK             = 50
	defaultMaxReasons       = 2
	defaultUrgencyHorizon   = 7 * 24 * time.Hour
	defaultZoneMOQThreshold = 0.6
	defaultTrainingWindow   = 180 * 24 * time.Hour
	defaultAffinityHalfLife = 30 * 24 * time.Hour
	defaultRecencyHalfLife  = 14 * 24 * time.Hour
	defaultMinClusters      = 3
	defaultMaxClusters      = 15
	defaultKMeansMaxIter    = 100
	defaultKMeansRestarts   = 3
	defaultSilhouetteSample = 2000
	defaultMinRank          = 5
	defaultMaxRank          = 50
	defaultRankStep         = 5
	defaultRankTolerance    = 0.02
	defaultNMFMaxIter       = 200
	defaultMaxVocabulary    = 5000
	defaultColdStartTarget  = 10
	defaultPopularityWindow = 30 * 24 * time.Hour
	defaultSeed             = 42
)

func DefaultConfig() Config {
	return Config{
		ModelType: defaultModelType,

		WCollaborative: defaultWCollaborative,
		WContent:       defaultWContent,
		WUrgency:       defaultWUrgency,
		WZone:          defaultWZone,

		ConfidenceFloor: defaultConfidenceFloor,
		DefaultK:        defaultK,
		MaxK:            defaultMaxK,
		MaxReasons:      defaultMaxReasons,

		UrgencyHorizon:   defaultUrgencyHorizon,
		ZoneMOQThreshold: defaultZoneMOQThreshold,

		TrainingWindow:   defaultTrainingWindow,
		AffinityHalfLife: defaultAffinityHalfLife,
		RecencyHalfLife:  defaultRecencyHalfLife,

		MinClusters:          defaultMinClusters,
		MaxClusters:          defaultMaxClusters,
		KMeansMaxIter:        defaultKMeansMaxIter,
		KMeansRestarts:       defaultKMeansRestarts,
		SilhouetteSampleSize: defaultSilhouetteSample,

		MinRank:       defaultMinRank,
		MaxRank:       defaultMaxRank,
		RankStep:      defaultRankStep,
		RankTolerance: defaultRankTolerance,
		NMFMaxIter:    defaultNMFMaxIter,
		MaxVocabulary: defaultMaxVocabulary,

		ColdStartTarget:  defaultColdStartTarget,
		PopularityWindow: defaultPopularityWindow,

		Seed: defaultSeed,
	}
}

func (c Config) Weights() Weights {
	return Weights{
		Collaborative: c.WCollaborative,
		Content:       c.WContent,
		Urgency:       c.WUrgency,
		Zone:          c.WZone,
	}
}

func (c Config) Validate() error {
	for name, w := range map[string]float64{
		"w_collaborative": c.WCollaborative,
		"w_content":       c.WContent,
		"w_urgency":       c.WUrgency,
		"w_zone":          c.WZone,
	} {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return fmt.Errorf("%s must be a finite non-negative number", name)
		}
	}
	if c.WCollaborative+c.WContent+c.WUrgency+c.WZone == 0 {
		return errors.New("at least one blend weight must be positive")
	}
	if c.ConfidenceFloor < 0 || c.ConfidenceFloor > 1 {
		return errors.New("confidence_floor must be within [0, 1]")
	}
	if c.MinClusters < 2 || c.MaxClusters < c.MinClusters {
		return errors.New("cluster range must satisfy 2 <= min <= max")
	}
	if c.MinRank < 1 || c.MaxRank < c.MinRank || c.RankStep < 1 {
		return errors.New("rank range must satisfy 1 <= min <= max and step >= 1")
	}
	if c.DefaultK <= 0 || c.MaxK < c.DefaultK {
		return errors.New("k bounds must satisfy 0 < default <= max")
	}
	if c.ColdStartTarget <= 0 {
		return errors.New("cold_start_target must be positive")
	}
	if c.UrgencyHorizon <= 0 || c.PopularityWindow <= 0 {
		return errors.New("urgency horizon and popularity window must be positive")
	}
	return nil
}

// ConfigRepository reads admin overrides of the tunables.
type ConfigRepository interface {
	GetConfig(ctx context.Context, name string) (domain.RecommendationConfig, bool, error)
	UpsertConfig(ctx context.Context, cfg domain.RecommendationConfig) error
}
