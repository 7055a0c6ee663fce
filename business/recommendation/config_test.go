package recommendation

import (
	"context"
	"errors"
	"testing"
	"time"

	"myGroupBuy/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConfigRepo struct {
	row   *domain.RecommendationConfig
	err   error
	saved []domain.RecommendationConfig
}

func (f *fakeConfigRepo) GetConfig(ctx context.Context, name string) (domain.RecommendationConfig, bool, error) {
	if f.err != nil {
		return domain.RecommendationConfig{}, false, f.err
	}
	if f.row == nil || f.row.Name != name {
		return domain.RecommendationConfig{}, false, nil
	}
	return *f.row, true, nil
}

func (f *fakeConfigRepo) UpsertConfig(ctx context.Context, cfg domain.RecommendationConfig) error {
	f.saved = append(f.saved, cfg)
	f.row = &cfg
	return nil
}

func TestDefaultConfig_Valid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative weight", func(c *Config) { c.WZone = -0.1 }},
		{"all weights zero", func(c *Config) { c.WCollaborative, c.WContent, c.WUrgency, c.WZone = 0, 0, 0, 0 }},
		{"floor above one", func(c *Config) { c.ConfidenceFloor = 1.5 }},
		{"cluster range", func(c *Config) { c.MinClusters, c.MaxClusters = 5, 3 }},
		{"rank step", func(c *Config) { c.RankStep = 0 }},
		{"k bounds", func(c *Config) { c.DefaultK = 100 }},
		{"cold target", func(c *Config) { c.ColdStartTarget = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadConfig_OverlaysRow(t *testing.T) {
	env := newTestEnv()
	repo := &fakeConfigRepo{row: &domain.RecommendationConfig{
		Name:                 DefaultConfig().ModelType,
		WCollaborative:       0.7,
		WUrgency:             0.3,
		DefaultK:             5,
		PopularityWindowDays: 7,
		UrgencyHorizonHours:  48,
	}}
	env.svc.cfgRepo = repo

	cfg := env.svc.Config(context.Background())

	assert.Equal(t, 0.7, cfg.WCollaborative)
	assert.Zero(t, cfg.WContent, "weights are replaced as a set")
	assert.Equal(t, 0.3, cfg.WUrgency)
	assert.Equal(t, 5, cfg.DefaultK)
	assert.Equal(t, 7*24*time.Hour, cfg.PopularityWindow)
	assert.Equal(t, 48*time.Hour, cfg.UrgencyHorizon)
	assert.Equal(t, DefaultConfig().ConfidenceFloor, cfg.ConfidenceFloor)
}

func TestLoadConfig_FallsBackToDefaults(t *testing.T) {
	env := newTestEnv()

	env.svc.cfgRepo = &fakeConfigRepo{err: errors.New("db down")}
	assert.Equal(t, DefaultConfig(), env.svc.Config(context.Background()))

	env.svc.cfgRepo = &fakeConfigRepo{row: &domain.RecommendationConfig{
		Name:            DefaultConfig().ModelType,
		ConfidenceFloor: 3,
	}}
	assert.Equal(t, DefaultConfig(), env.svc.Config(context.Background()))
}

func TestUpdateConfig(t *testing.T) {
	env := newTestEnv()
	repo := &fakeConfigRepo{}
	env.svc.cfgRepo = repo

	err := env.svc.UpdateConfig(context.Background(), domain.RecommendationConfig{ConfidenceFloor: 2})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	err = env.svc.UpdateConfig(context.Background(), domain.RecommendationConfig{EligibilityExpr: "groupBuy.MOQ +"})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	err = env.svc.UpdateConfig(context.Background(), domain.RecommendationConfig{DefaultK: 20})
	require.NoError(t, err)
	require.Len(t, repo.saved, 1)
	assert.Equal(t, DefaultConfig().ModelType, repo.saved[0].Name)
}

func TestExprEligibilityChecker(t *testing.T) {
	checker, err := NewExprEligibilityChecker(`groupBuy.LocationZone == user.LocationZone`)
	require.NoError(t, err)

	ok, err := checker.IsEligible(context.Background(),
		domain.User{LocationZone: "north"}, domain.GroupBuy{LocationZone: "north"}, testNow)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = checker.IsEligible(context.Background(),
		domain.User{LocationZone: "north"}, domain.GroupBuy{LocationZone: "south"}, testNow)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = NewExprEligibilityChecker(`groupBuy.MOQ + 1`)
	assert.Error(t, err, "non-boolean expressions are rejected")
}

func TestEligibilityCache_InvalidIsNoop(t *testing.T) {
	var c eligibilityCache

	ch := c.checker("this is not valid (")
	ok, err := ch.IsEligible(context.Background(), domain.User{}, domain.GroupBuy{}, testNow)

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Same(t, c.checker("groupBuy.MOQ > 1"), c.checker("groupBuy.MOQ > 1"))
}
