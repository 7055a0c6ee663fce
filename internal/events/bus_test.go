package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"myGroupBuy/business/interaction"
	"myGroupBuy/business/recommendation"
	"myGroupBuy/domain"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memEvents struct {
	mu      sync.Mutex
	events  map[string]domain.RecommendationEvent
	applied int
}

func (m *memEvents) GetEvent(ctx context.Context, id string) (domain.RecommendationEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev, ok := m.events[id]
	if !ok {
		return domain.RecommendationEvent{}, domain.ErrEventNotFound
	}
	return ev, nil
}

func (m *memEvents) ApplyInteraction(ctx context.Context, id, kind string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev, ok := m.events[id]
	if !ok {
		return false, domain.ErrEventNotFound
	}
	if kind == interaction.KindClicked && !ev.Clicked {
		ev.Clicked, ev.ClickedAt = true, &at
		m.events[id] = ev
		m.applied++
		return true, nil
	}
	return false, nil
}

func (m *memEvents) clicked(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.events[id].Clicked
}

func startBus(t *testing.T, repo *memEvents) (*Bus, *interaction.Service) {
	t.Helper()

	cfg := DefaultRouterConfig()
	cfg.RetryMaxRetries = 0
	wmLogger := NewZapLoggerAdapter(zap.NewNop().Sugar())

	// the bus needs the service and the service needs the bus publisher
	consumer := interaction.NewService(repo, nil)
	bus, err := NewBus(cfg, consumer, wmLogger)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = bus.Router.Run(ctx) }()
	<-bus.Router.Running()

	t.Cleanup(func() {
		cancel()
		_ = bus.Close()
	})
	return bus, interaction.NewService(repo, bus.Publisher)
}

func TestBus_TrackIsAppliedBySubscriber(t *testing.T) {
	repo := &memEvents{events: map[string]domain.RecommendationEvent{
		"ev-1": {ID: "ev-1", UserID: 7, ShownAt: time.Now().Add(-time.Minute)},
	}}
	_, tracker := startBus(t, repo)

	ctx := recommendation.WithTraceID(context.Background(), "trace-1")
	require.NoError(t, tracker.Track(ctx, 7, "ev-1", interaction.KindClicked))

	assert.Eventually(t, func() bool { return repo.clicked("ev-1") }, 2*time.Second, 10*time.Millisecond)
}

func TestBus_DuplicateDeliveryIsHarmless(t *testing.T) {
	repo := &memEvents{events: map[string]domain.RecommendationEvent{
		"ev-1": {ID: "ev-1", UserID: 7},
	}}
	bus, _ := startBus(t, repo)

	u := interaction.Update{EventID: "ev-1", UserID: 7, Kind: interaction.KindClicked, At: time.Now()}
	require.NoError(t, bus.Publisher.Publish(context.Background(), u))
	require.NoError(t, bus.Publisher.Publish(context.Background(), u))

	assert.Eventually(t, func() bool { return repo.clicked("ev-1") }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)

	repo.mu.Lock()
	defer repo.mu.Unlock()
	assert.Equal(t, 1, repo.applied)
}

func TestInteractionHandler_DropsMalformed(t *testing.T) {
	svc := interaction.NewService(&memEvents{events: map[string]domain.RecommendationEvent{}}, nil)
	handler := InteractionHandler(svc, watermill.NopLogger{})

	assert.NoError(t, handler(message.NewMessage(watermill.NewUUID(), []byte("{oops"))))
	assert.NoError(t, handler(message.NewMessage(watermill.NewUUID(), []byte(`{"event_id":"x","kind":"liked"}`))))

	err := handler(message.NewMessage(watermill.NewUUID(), []byte(`{"event_id":"missing","kind":"clicked"}`)))
	assert.ErrorIs(t, err, domain.ErrEventNotFound, "store errors are returned so the router retries")
}
