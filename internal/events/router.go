package events

import (
	"fmt"
	"time"

	"myGroupBuy/business/interaction"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type RouterConfig struct {
	InteractionTopic string
	BufferSize       int64
	CloseTimeout     time.Duration
	RetryMaxRetries  int
	RetryInterval    time.Duration
}

func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		InteractionTopic: "recommendation.interactions",
		BufferSize:       256,
		CloseTimeout:     10 * time.Second,
		RetryMaxRetries:  3,
		RetryInterval:    100 * time.Millisecond,
	}
}

// Bus is the in-process pub/sub plus the router consuming it.
type Bus struct {
	PubSub    *gochannel.GoChannel
	Router    *message.Router
	Publisher *InteractionPublisher
}

// NewBus wires the interaction consumer onto an in-memory gochannel. The
// router still has to be started with Router.Run.
func NewBus(cfg RouterConfig, svc *interaction.Service, logger watermill.LoggerAdapter) (*Bus, error) {
	if logger == nil {
		logger = watermill.NopLogger{}
	}

	pubSub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: cfg.BufferSize,
	}, logger)

	router, err := message.NewRouter(message.RouterConfig{
		CloseTimeout: cfg.CloseTimeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill router: %w", err)
	}

	router.AddMiddleware(
		middleware.Recoverer,
		middleware.Retry{
			MaxRetries:      cfg.RetryMaxRetries,
			InitialInterval: cfg.RetryInterval,
			Logger:          logger,
		}.Middleware,
	)

	router.AddConsumerHandler(
		"interaction-tracker",
		cfg.InteractionTopic,
		pubSub,
		InteractionHandler(svc, logger),
	)

	return &Bus{
		PubSub:    pubSub,
		Router:    router,
		Publisher: NewInteractionPublisher(pubSub, cfg.InteractionTopic),
	}, nil
}

func (b *Bus) Close() error {
	if err := b.Router.Close(); err != nil {
		return err
	}
	return b.PubSub.Close()
}
