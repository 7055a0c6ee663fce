package interaction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"myGroupBuy/domain"
	"myGroupBuy/pkg/logger"
)

const (
	KindClicked = "clicked"
	KindJoined  = "joined"
)

var ErrInvalidKind = errors.New("interaction kind must be clicked or joined")

// Update is one click or join on a served recommendation, keyed by the
// recommendation event id.
type Update struct {
	EventID string    `json:"event_id"`
	UserID  uint      `json:"user_id"`
	Kind    string    `json:"kind"`
	At      time.Time `json:"at"`
}

func (u Update) Validate() error {
	if u.EventID == "" {
		return errors.New("event_id is required")
	}
	if u.Kind != KindClicked && u.Kind != KindJoined {
		return ErrInvalidKind
	}
	return nil
}

type EventRepository interface {
	GetEvent(ctx context.Context, id string) (domain.RecommendationEvent, error)
	// ApplyInteraction sets the flag and timestamp unless already set and
	// reports whether anything changed.
	ApplyInteraction(ctx context.Context, id, kind string, at time.Time) (bool, error)
}

// Publisher hands updates to the message bus.
type Publisher interface {
	Publish(ctx context.Context, u Update) error
}

type Service struct {
	repo      EventRepository
	publisher Publisher
	now       func() time.Time
}

// NewService builds the tracker. With a nil publisher updates are applied
// inline instead of going through the bus.
func NewService(repo EventRepository, publisher Publisher) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		now:       time.Now,
	}
}

// Track checks that the event exists and belongs to the user, then queues
// the update.
func (s *Service) Track(ctx context.Context, userID uint, eventID, kind string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	u := Update{EventID: eventID, UserID: userID, Kind: kind, At: s.now()}
	if err := u.Validate(); err != nil {
		return err
	}

	ev, err := s.repo.GetEvent(ctx, eventID)
	if err != nil {
		return err
	}
	if ev.UserID != userID {
		// someone else's event looks the same as a missing one
		return domain.ErrEventNotFound
	}

	if s.publisher == nil {
		return s.Apply(ctx, u)
	}
	if err := s.publisher.Publish(ctx, u); err != nil {
		return fmt.Errorf("failed to publish interaction: %w", err)
	}
	return nil
}

// Apply persists an update. Replays are harmless: a flag that is already
// set keeps its original timestamp.
func (s *Service) Apply(ctx context.Context, u Update) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}
	if err := u.Validate(); err != nil {
		return err
	}

	changed, err := s.repo.ApplyInteraction(ctx, u.EventID, u.Kind, u.At)
	if err != nil {
		UpdatesTotal.WithLabelValues(u.Kind, "error").Inc()
		return fmt.Errorf("failed to apply interaction: %w", err)
	}

	result := "applied"
	if !changed {
		result = "duplicate"
	}
	UpdatesTotal.WithLabelValues(u.Kind, result).Inc()

	logger.Debug("interaction applied",
		"event_id", u.EventID,
		"user_id", u.UserID,
		"kind", u.Kind,
		"result", result,
	)
	return nil
}
