package events

import (
	"context"
	"encoding/json"
	"fmt"

	"myGroupBuy/business/interaction"
	"myGroupBuy/business/recommendation"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

const traceIDMetadataKey = "trace_id"

// InteractionPublisher puts click/join updates on the bus.
type InteractionPublisher struct {
	publisher message.Publisher
	topic     string
}

var _ interaction.Publisher = (*InteractionPublisher)(nil)

func NewInteractionPublisher(publisher message.Publisher, topic string) *InteractionPublisher {
	return &InteractionPublisher{
		publisher: publisher,
		topic:     topic,
	}
}

func (p *InteractionPublisher) Publish(ctx context.Context, u interaction.Update) error {
	payload, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("failed to marshal interaction: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	if tid := recommendation.TraceIDFromContext(ctx); tid != "" {
		msg.Metadata.Set(traceIDMetadataKey, tid)
	}
	msg.SetContext(ctx)

	return p.publisher.Publish(p.topic, msg)
}

// InteractionHandler applies updates coming off the bus. Malformed payloads
// are acked and dropped, retrying them would never succeed.
func InteractionHandler(svc *interaction.Service, logger watermill.LoggerAdapter) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		var u interaction.Update
		if err := json.Unmarshal(msg.Payload, &u); err != nil {
			logger.Error("dropping malformed interaction", err, watermill.LogFields{"message_uuid": msg.UUID})
			return nil
		}
		if err := u.Validate(); err != nil {
			logger.Error("dropping invalid interaction", err, watermill.LogFields{"message_uuid": msg.UUID})
			return nil
		}

		ctx := msg.Context()
		if tid := msg.Metadata.Get(traceIDMetadataKey); tid != "" {
			ctx = recommendation.WithTraceID(ctx, tid)
		}
		return svc.Apply(ctx, u)
	}
}
