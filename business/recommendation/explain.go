package recommendation

import (
	"fmt"
	"math"
	"sort"

	"myGroupBuy/domain"
)

type reasonKind int

// declaration order breaks ties between equally weighted reasons
const (
	reasonCollaborative reasonKind = iota
	reasonContent
	reasonUrgency
	reasonZone
)

type reason struct {
	kind   reasonKind
	weight float64
	text   string
}

// Explain turns a score breakdown into at most maxReasons human-readable
// reasons, strongest first. The output depends only on the breakdown.
func Explain(b SignalBreakdown, maxReasons int) []string {
	if maxReasons <= 0 {
		return []string{}
	}

	var out []string
	if b.Source.IsColdStart() {
		out = append(out, coldStartReason(b))
	}

	var reasons []reason
	if !b.Source.IsColdStart() {
		if w := b.Weights.Collaborative * b.Collaborative; w > 0 {
			reasons = append(reasons, reason{reasonCollaborative, w, collaborativeReason(b)})
		}
		if b.ContentKnown {
			if w := b.Weights.Content * b.Content; w > 0 {
				reasons = append(reasons, reason{reasonContent, w, "Similar to group-buys you joined before"})
			}
		}
	}
	if w := b.Weights.Urgency * b.Urgency; w > 0 {
		reasons = append(reasons, reason{reasonUrgency, w, urgencyReason(b)})
	}
	if w := b.Weights.Zone * b.ZoneBoost; w > 0 && b.Source != domain.SourceColdStartZone {
		reasons = append(reasons, reason{reasonZone, w, fmt.Sprintf("Available in your area (%s)", b.Zone)})
	}

	sort.SliceStable(reasons, func(i, j int) bool {
		if reasons[i].weight != reasons[j].weight {
			return reasons[i].weight > reasons[j].weight
		}
		return reasons[i].kind < reasons[j].kind
	})

	for _, r := range reasons {
		if len(out) >= maxReasons {
			break
		}
		out = append(out, r.text)
	}
	if len(out) == 0 {
		// every served item carries at least one reason
		out = append(out, "Open group-buy you can still join")
	}
	return out
}

// collaborativeReason names whichever part of the signal carries it: joins
// of this very item, or joins of its category.
func collaborativeReason(b SignalBreakdown) string {
	if b.CollabCategory > b.CollabItem && b.Category != "" {
		return fmt.Sprintf("Matches the %s group-buys you and similar shoppers join", b.Category)
	}
	return "Shoppers with habits like yours joined this group-buy"
}

func urgencyReason(b SignalBreakdown) string {
	if b.DeadlineProximity >= b.MOQProgress {
		h := hoursFloor(b.HoursLeft)
		if h < 48 {
			return fmt.Sprintf("Closing soon: %d hours left to join", h)
		}
		return fmt.Sprintf("Closing soon: %d days left to join", h/24)
	}
	return fmt.Sprintf("%d%% of the minimum order already reached", int(math.Round(b.MOQProgress*100)))
}

func coldStartReason(b SignalBreakdown) string {
	switch b.Source {
	case domain.SourceColdStartZone:
		return fmt.Sprintf("Filling up fast in your area (%s)", b.Zone)
	case domain.SourceColdStartCategory:
		return fmt.Sprintf("Matches a category you follow: %s", b.Category)
	default:
		return "Popular across the marketplace right now"
	}
}
