package recommendation

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"myGroupBuy/domain"
)

type fakeUsers struct {
	users map[uint]domain.User
	err   error
}

func (f *fakeUsers) FindAll(ctx context.Context) ([]domain.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeUsers) FindByID(ctx context.Context, id uint) (domain.User, error) {
	if f.err != nil {
		return domain.User{}, f.err
	}
	u, ok := f.users[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return u, nil
}

type fakeGroupBuys struct {
	items []domain.GroupBuy
}

func (f *fakeGroupBuys) FindOpen(ctx context.Context, now time.Time) ([]domain.GroupBuy, error) {
	var out []domain.GroupBuy
	for _, gb := range f.items {
		if gb.IsOpen(now) {
			out = append(out, gb)
		}
	}
	return out, nil
}

func (f *fakeGroupBuys) FindActiveSince(ctx context.Context, since time.Time) ([]domain.GroupBuy, error) {
	return append([]domain.GroupBuy(nil), f.items...), nil
}

type fakeContributions struct {
	items []domain.Contribution
}

func (f *fakeContributions) FindSince(ctx context.Context, since time.Time) ([]domain.Contribution, error) {
	var out []domain.Contribution
	for _, c := range f.items {
		if !c.CreatedAt.Before(since) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeContributions) FindByUser(ctx context.Context, userID uint) ([]domain.Contribution, error) {
	var out []domain.Contribution
	for _, c := range f.items {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeContributions) CountJoinsSince(ctx context.Context, since time.Time) (map[uint64]int, error) {
	out := make(map[uint64]int)
	for _, c := range f.items {
		if !c.CreatedAt.Before(since) {
			out[c.GroupBuyID]++
		}
	}
	return out, nil
}

type fakeBehavior struct {
	items []domain.BehaviorEvent
}

func (f *fakeBehavior) FindSince(ctx context.Context, since time.Time) ([]domain.BehaviorEvent, error) {
	return append([]domain.BehaviorEvent(nil), f.items...), nil
}

type fakeClusters struct {
	mu   sync.Mutex
	rows map[uint]domain.ClusterAssignment
}

func (f *fakeClusters) ReplaceAll(ctx context.Context, assignments []domain.ClusterAssignment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = make(map[uint]domain.ClusterAssignment, len(assignments))
	for _, a := range assignments {
		f.rows[a.UserID] = a
	}
	return nil
}

func (f *fakeClusters) GetAssignment(ctx context.Context, userID uint) (domain.ClusterAssignment, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.rows[userID]
	return a, ok, nil
}

type fakeEvents struct {
	mu     sync.Mutex
	events []domain.RecommendationEvent
	err    error
}

func (f *fakeEvents) SaveEvents(ctx context.Context, events []domain.RecommendationEvent) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, events...)
	return nil
}

func (f *fakeEvents) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

type fakeArtifacts struct {
	mu   sync.Mutex
	rows []domain.ModelArtifact
}

func (f *fakeArtifacts) Create(ctx context.Context, a *domain.ModelArtifact) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a.ID = uint(len(f.rows) + 1)
	f.rows = append(f.rows, *a)
	return nil
}

func (f *fakeArtifacts) Activate(ctx context.Context, modelType, version string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	found := false
	for i := range f.rows {
		if f.rows[i].ModelType != modelType {
			continue
		}
		f.rows[i].IsActive = f.rows[i].Version == version
		found = found || f.rows[i].IsActive
	}
	if !found {
		return errors.New("version not found")
	}
	return nil
}

func (f *fakeArtifacts) GetActive(ctx context.Context, modelType string) (domain.ModelArtifact, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.ModelType == modelType && r.IsActive {
			return r, true, nil
		}
	}
	return domain.ModelArtifact{}, false, nil
}

func (f *fakeArtifacts) GetByVersion(ctx context.Context, version string) (domain.ModelArtifact, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.Version == version {
			return r, true, nil
		}
	}
	return domain.ModelArtifact{}, false, nil
}

func (f *fakeArtifacts) List(ctx context.Context, modelType string, limit int) ([]domain.ModelArtifact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.ModelArtifact
	for i := len(f.rows) - 1; i >= 0 && len(out) < limit; i-- {
		if f.rows[i].ModelType == modelType {
			out = append(out, f.rows[i])
		}
	}
	return out, nil
}

type fakeBlobs struct {
	mu    sync.Mutex
	blobs map[string][]byte
	err   error
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{blobs: make(map[string][]byte)}
}

func (f *fakeBlobs) Put(ctx context.Context, key string, r io.Reader, size int64) error {
	if f.err != nil {
		return f.err
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blobs[key] = b
	return nil
}

func (f *fakeBlobs) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.blobs[key]
	if !ok {
		return nil, errors.New("blob not found")
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

type fakeFeatureCache struct {
	mu      sync.Mutex
	vectors map[uint]UserFeatureVector
}

func (f *fakeFeatureCache) SetFeatures(ctx context.Context, vectors []UserFeatureVector) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.vectors = make(map[uint]UserFeatureVector, len(vectors))
	for _, v := range vectors {
		f.vectors[v.UserID] = v
	}
	return nil
}

func (f *fakeFeatureCache) GetFeatures(ctx context.Context, userID uint) (UserFeatureVector, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.vectors[userID]
	return v, ok, nil
}

// testEnv wires a Service over in-memory fakes with a fixed clock.
type testEnv struct {
	svc       *Service
	users     *fakeUsers
	groupBuys *fakeGroupBuys
	contribs  *fakeContributions
	behavior  *fakeBehavior
	clusters  *fakeClusters
	events    *fakeEvents
	artifacts *fakeArtifacts
	blobs     *fakeBlobs
	features  *fakeFeatureCache
	now       time.Time
}

var testNow = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

func newTestEnv() *testEnv {
	env := &testEnv{
		users:     &fakeUsers{users: make(map[uint]domain.User)},
		groupBuys: &fakeGroupBuys{},
		contribs:  &fakeContributions{},
		behavior:  &fakeBehavior{},
		clusters:  &fakeClusters{},
		events:    &fakeEvents{},
		artifacts: &fakeArtifacts{},
		blobs:     newFakeBlobs(),
		features:  &fakeFeatureCache{},
		now:       testNow,
	}
	registry := NewRegistry(env.artifacts, env.blobs)
	env.svc = NewService(Repositories{
		Users:         env.users,
		GroupBuys:     env.groupBuys,
		Contributions: env.contribs,
		Behavior:      env.behavior,
		Clusters:      env.clusters,
		Events:        env.events,
		FeatureCache:  env.features,
	}, registry, nil, DefaultConfig())
	env.svc.now = func() time.Time { return env.now }
	return env
}

func (e *testEnv) addUser(u domain.User) {
	if u.Role == "" {
		u.Role = domain.RoleCustomer
	}
	e.users.users[u.ID] = u
}

func (e *testEnv) addGroupBuy(gb domain.GroupBuy) {
	if gb.Status == "" {
		gb.Status = domain.GroupBuyOpen
	}
	if gb.MOQ == 0 {
		gb.MOQ = 10
	}
	if gb.Deadline.IsZero() {
		gb.Deadline = e.now.Add(30 * 24 * time.Hour)
	}
	e.groupBuys.items = append(e.groupBuys.items, gb)
}

func (e *testEnv) join(userID uint, gbID uint64, category string, at time.Time) {
	e.contribs.items = append(e.contribs.items, domain.Contribution{
		ID:         uint64(len(e.contribs.items) + 1),
		UserID:     userID,
		GroupBuyID: gbID,
		Category:   category,
		Amount:     100,
		Quantity:   1,
		GroupSize:  5,
		CreatedAt:  at,
	})
}
