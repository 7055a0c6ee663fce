package recommendation

import (
	"math"
	"time"

	"myGroupBuy/domain"
)

type Weights struct {
	Collaborative float64
	Content       float64
	Urgency       float64
	Zone          float64
}

// SignalBreakdown carries every input of one item's score so the ranking
// can be explained and debugged after the fact.
type SignalBreakdown struct {
	GroupBuyID uint64
	Category   string
	Zone       string
	Deadline   time.Time
	Source     domain.SignalSource

	Collaborative     float64
	CollabItem        float64 // share from cluster-mates joining this item
	CollabCategory    float64 // share from cluster-mates joining its category
	Content           float64
	ContentKnown      bool
	DeadlineProximity float64
	MOQProgress       float64
	Urgency           float64
	ZoneBoost         float64
	HoursLeft         float64

	Weights Weights
	Score   float64
}

// Blend computes the weighted score. Unknown content contributes nothing.
func (b SignalBreakdown) Blend() float64 {
	s := b.Weights.Collaborative*b.Collaborative +
		b.Weights.Urgency*b.Urgency +
		b.Weights.Zone*b.ZoneBoost
	if b.ContentKnown {
		s += b.Weights.Content * b.Content
	}
	return roundScore(s)
}

// confident reports whether collaborative or content evidence clears the floor.
func (b SignalBreakdown) confident(floor float64) bool {
	if b.Collaborative >= floor && b.Collaborative > 0 {
		return true
	}
	return b.ContentKnown && b.Content >= floor && b.Content > 0
}

// primarySource picks whichever of the two personalized signals weighs more.
func (b SignalBreakdown) primarySource() domain.SignalSource {
	content := 0.0
	if b.ContentKnown {
		content = b.Weights.Content * b.Content
	}
	if content > b.Weights.Collaborative*b.Collaborative {
		return domain.SourceContent
	}
	return domain.SourceCollaborative
}

func (b *SignalBreakdown) setCollaborative(item, cat float64) {
	b.CollabItem = item
	b.CollabCategory = cat
	b.Collaborative = clamp01(item + cat)
}

// urgencySignals fills the time and MOQ pressure fields of a breakdown.
func urgencySignals(b *SignalBreakdown, gb domain.GroupBuy, now time.Time, horizon time.Duration) {
	hoursLeft := gb.Deadline.Sub(now).Hours()
	if hoursLeft < 0 {
		hoursLeft = 0
	}
	b.HoursLeft = hoursLeft
	if h := horizon.Hours(); h > 0 {
		b.DeadlineProximity = clamp01(1 - hoursLeft/h)
	}
	b.MOQProgress = gb.MOQProgress()
	b.Urgency = 0.5*b.DeadlineProximity + 0.5*b.MOQProgress
}

func newBreakdown(gb domain.GroupBuy, user domain.User, now time.Time, cfg Config) SignalBreakdown {
	b := SignalBreakdown{
		GroupBuyID: gb.ID,
		Category:   gb.Category,
		Zone:       gb.LocationZone,
		Deadline:   gb.Deadline,
		Weights:    cfg.Weights(),
	}
	urgencySignals(&b, gb, now, cfg.UrgencyHorizon)
	if user.LocationZone != "" && user.LocationZone == gb.LocationZone {
		b.ZoneBoost = 1
	}
	return b
}

func hoursFloor(h float64) int {
	return int(math.Floor(h))
}
