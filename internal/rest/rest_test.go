package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"myGroupBuy/business/groupbuy"
	"myGroupBuy/business/recommendation"
	"myGroupBuy/domain"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReco struct {
	recs   []domain.Recommendation
	err    error
	gotK   int
	gotUID uint
}

func (f *fakeReco) Recommend(ctx context.Context, userID uint, k int) ([]domain.Recommendation, error) {
	f.gotK, f.gotUID = k, userID
	return f.recs, f.err
}

func (f *fakeReco) DebugRecommend(ctx context.Context, userID uint, k int) ([]domain.DebugRecommendation, error) {
	f.gotK, f.gotUID = k, userID
	return []domain.DebugRecommendation{{GroupBuyID: 1, ClusterID: -1}}, f.err
}

type trackCall struct {
	userID  uint
	eventID string
	kind    string
}

type fakeTracker struct {
	calls []trackCall
	err   error
}

func (f *fakeTracker) Track(ctx context.Context, userID uint, eventID, kind string) error {
	f.calls = append(f.calls, trackCall{userID, eventID, kind})
	return f.err
}

type fakeGroupBuys struct {
	joinErr error
}

func (f *fakeGroupBuys) ListOpen(ctx context.Context) ([]domain.GroupBuy, error) {
	return []domain.GroupBuy{{ID: 1}}, nil
}

func (f *fakeGroupBuys) Get(ctx context.Context, id uint64) (domain.GroupBuy, error) {
	if id != 1 {
		return domain.GroupBuy{}, domain.ErrGroupBuyNotFound
	}
	return domain.GroupBuy{ID: 1}, nil
}

func (f *fakeGroupBuys) Create(ctx context.Context, gb *domain.GroupBuy) (*domain.GroupBuy, error) {
	if gb.Deadline.Before(time.Now()) {
		return nil, fmt.Errorf("%w: deadline must be in the future", groupbuy.ErrInvalid)
	}
	gb.ID = 9
	return gb, nil
}

func (f *fakeGroupBuys) Update(ctx context.Context, gb *domain.GroupBuy) (*domain.GroupBuy, error) {
	return gb, nil
}

func (f *fakeGroupBuys) Cancel(ctx context.Context, id uint64) error {
	return domain.ErrGroupBuyClosed
}

func (f *fakeGroupBuys) Join(ctx context.Context, userID uint, groupBuyID uint64, quantity int) (domain.Contribution, error) {
	if f.joinErr != nil {
		return domain.Contribution{}, f.joinErr
	}
	return domain.Contribution{ID: 1, UserID: userID, GroupBuyID: groupBuyID, Quantity: quantity}, nil
}

func do(t *testing.T, method, path, body string, userID uint, h echo.HandlerFunc, route string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	e.Add(method, route, h, func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if userID != 0 {
				c.Set("user_id", userID)
			}
			return next(c)
		}
	})

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRecommend(t *testing.T) {
	svc := &fakeReco{recs: []domain.Recommendation{{EventID: "ev-1", GroupBuyID: 3, Score: 0.9}}}
	h := NewRecommendationHandler(svc, &fakeTracker{})

	rec := do(t, http.MethodGet, "/recommendations?k=5", "", 7, h.Recommend, "/recommendations")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, svc.gotK)
	assert.Equal(t, uint(7), svc.gotUID)
	assert.Contains(t, rec.Body.String(), `"event_id":"ev-1"`)

	rec = do(t, http.MethodGet, "/recommendations", "", 0, h.Recommend, "/recommendations")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, http.MethodGet, "/recommendations?k=-1", "", 7, h.Recommend, "/recommendations")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecommend_ErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{domain.ErrUserNotFound, http.StatusNotFound},
		{fmt.Errorf("%w: db down", recommendation.ErrUpstreamUnavailable), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			h := NewRecommendationHandler(&fakeReco{err: tt.err}, &fakeTracker{})
			rec := do(t, http.MethodGet, "/recommendations", "", 7, h.Recommend, "/recommendations")
			assert.Equal(t, tt.code, rec.Code)
		})
	}
}

func TestDebugRecommend(t *testing.T) {
	svc := &fakeReco{}
	h := NewRecommendationHandler(svc, &fakeTracker{})

	rec := do(t, http.MethodGet, "/recommendations/debug", "", 7, h.DebugRecommend, "/recommendations/debug")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, svc.gotK, "zero lets the service apply its default")
	assert.Contains(t, rec.Body.String(), `"cluster_id":-1`)
}

func TestInteraction(t *testing.T) {
	tracker := &fakeTracker{}
	h := NewRecommendationHandler(&fakeReco{}, tracker)

	rec := do(t, http.MethodPost, "/i", `{"event_id":"ev-1","kind":"clicked"}`, 7, h.Interaction, "/i")
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, []trackCall{{7, "ev-1", "clicked"}}, tracker.calls)

	rec = do(t, http.MethodPost, "/i", `{"event_id":"ev-1","kind":"liked"}`, 7, h.Interaction, "/i")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	tracker.err = domain.ErrEventNotFound
	rec = do(t, http.MethodPost, "/i", `{"event_id":"ev-2","kind":"joined"}`, 7, h.Interaction, "/i")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGroupBuy_Join(t *testing.T) {
	tracker := &fakeTracker{}
	h := NewGroupBuyHandler(&fakeGroupBuys{}, tracker)

	rec := do(t, http.MethodPost, "/group-buys/1/join", `{"quantity":2,"event_id":"ev-1"}`, 7, h.Join, "/group-buys/:id/join")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, []trackCall{{7, "ev-1", "joined"}}, tracker.calls)

	rec = do(t, http.MethodPost, "/group-buys/1/join", `{"quantity":0}`, 7, h.Join, "/group-buys/:id/join")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	closed := NewGroupBuyHandler(&fakeGroupBuys{joinErr: domain.ErrGroupBuyClosed}, tracker)
	rec = do(t, http.MethodPost, "/group-buys/1/join", `{"quantity":1}`, 7, closed.Join, "/group-buys/:id/join")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestGroupBuy_JoinTrackingFailureStillSucceeds(t *testing.T) {
	h := NewGroupBuyHandler(&fakeGroupBuys{}, &fakeTracker{err: domain.ErrEventNotFound})

	rec := do(t, http.MethodPost, "/group-buys/1/join", `{"quantity":1,"event_id":"stale"}`, 7, h.Join, "/group-buys/:id/join")
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestGroupBuy_CRUD(t *testing.T) {
	h := NewGroupBuyHandler(&fakeGroupBuys{}, nil)

	rec := do(t, http.MethodGet, "/group-buys/2", "", 1, h.Get, "/group-buys/:id")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, http.MethodGet, "/group-buys/abc", "", 1, h.Get, "/group-buys/:id")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body := fmt.Sprintf(`{"title":"Rice","category":"grocery","unit_price":10,"moq":5,"deadline":%q}`,
		time.Now().Add(time.Hour).Format(time.RFC3339))
	rec = do(t, http.MethodPost, "/group-buys", body, 1, h.Create, "/group-buys")
	require.Equal(t, http.StatusCreated, rec.Code)

	body = fmt.Sprintf(`{"title":"Rice","category":"grocery","unit_price":10,"moq":5,"deadline":%q}`,
		time.Now().Add(-time.Hour).Format(time.RFC3339))
	rec = do(t, http.MethodPost, "/group-buys", body, 1, h.Create, "/group-buys")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, http.MethodDelete, "/group-buys/1", "", 1, h.Cancel, "/group-buys/:id")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

type fakeAdmin struct {
	activated string
	cfgErr    error
}

func (f *fakeAdmin) Train(ctx context.Context) (domain.ModelArtifact, error) {
	return domain.ModelArtifact{Version: "v2", ModelType: "hybrid"}, nil
}

func (f *fakeAdmin) ListArtifacts(ctx context.Context, limit int) ([]domain.ModelArtifact, error) {
	return []domain.ModelArtifact{{Version: "v2"}, {Version: "v1"}}[:min(limit, 2)], nil
}

func (f *fakeAdmin) ActivateArtifact(ctx context.Context, version string) error {
	if version != "v1" {
		return recommendation.ErrArtifactNotFound
	}
	f.activated = version
	return nil
}

func (f *fakeAdmin) Config(ctx context.Context) recommendation.Config {
	return recommendation.DefaultConfig()
}

func (f *fakeAdmin) UpdateConfig(ctx context.Context, row domain.RecommendationConfig) error {
	return f.cfgErr
}

func (f *fakeAdmin) ClusterOf(ctx context.Context, userID uint) (domain.ClusterAssignment, bool, error) {
	if userID != 7 {
		return domain.ClusterAssignment{}, false, nil
	}
	return domain.ClusterAssignment{UserID: 7, ClusterID: 2}, true, nil
}

func (f *fakeAdmin) Features(ctx context.Context, userID uint) (recommendation.UserFeatureVector, bool, error) {
	return recommendation.UserFeatureVector{}, false, nil
}

func TestAdmin(t *testing.T) {
	svc := &fakeAdmin{}
	h := NewRecommendationAdminHandler(svc)

	rec := do(t, http.MethodPost, "/train", "", 1, h.Train, "/train")
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, http.MethodGet, "/artifacts?limit=1", "", 1, h.ListArtifacts, "/artifacts")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"version":"v2"`)
	assert.NotContains(t, rec.Body.String(), `"version":"v1"`)

	rec = do(t, http.MethodGet, "/artifacts?limit=x", "", 1, h.ListArtifacts, "/artifacts")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, http.MethodPost, "/artifacts/v1/activate", "", 1, h.ActivateArtifact, "/artifacts/:version/activate")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "v1", svc.activated)

	rec = do(t, http.MethodPost, "/artifacts/v9/activate", "", 1, h.ActivateArtifact, "/artifacts/:version/activate")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, http.MethodGet, "/users/7/cluster", "", 1, h.GetCluster, "/users/:id/cluster")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, http.MethodGet, "/users/8/cluster", "", 1, h.GetCluster, "/users/:id/cluster")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, http.MethodGet, "/users/8/features", "", 1, h.GetFeatures, "/users/:id/features")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	svc.cfgErr = fmt.Errorf("%w: weights", recommendation.ErrInvalidConfig)
	rec = do(t, http.MethodPut, "/config", `{"w_zone":-1}`, 1, h.UpsertConfig, "/config")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
