package recommendation

import (
	"sort"
	"time"

	"myGroupBuy/domain"

	"github.com/samber/lo"
)

// ColdStartHandler serves users and items the personalized signals can't
// cover. Tiers run in order (zone, stated categories, global popularity),
// each only while the list is short of the target, and the result keeps
// tier order with duplicates removed.
//
// Zone precedes categories: a user with a zone sees urgent local items ahead
// of the categories they follow. A user with neither a zone nor stated
// categories is served from the global tier alone.
type ColdStartHandler struct {
	cfg Config
}

func NewColdStartHandler(cfg Config) *ColdStartHandler {
	return &ColdStartHandler{cfg: cfg}
}

type coldTier struct {
	source domain.SignalSource
	pick   func(user domain.User, items []SignalBreakdown, pop Popularity) []SignalBreakdown
}

func (h *ColdStartHandler) tiers() []coldTier {
	return []coldTier{
		{source: domain.SourceColdStartZone, pick: h.zoneTier},
		{source: domain.SourceColdStartCategory, pick: h.categoryTier},
		{source: domain.SourceColdStartGlobal, pick: h.globalTier},
	}
}

// Recommend returns up to target candidates. An empty catalog yields an
// empty list.
func (h *ColdStartHandler) Recommend(user domain.User, candidates []domain.GroupBuy, pop Popularity, target int, now time.Time) []SignalBreakdown {
	if target <= 0 || len(candidates) == 0 {
		return []SignalBreakdown{}
	}

	items := lo.Map(candidates, func(gb domain.GroupBuy, _ int) SignalBreakdown {
		return newBreakdown(gb, user, now, h.cfg)
	})

	out := make([]SignalBreakdown, 0, target)
	seen := make(map[uint64]struct{}, target)
	for _, tier := range h.tiers() {
		if len(out) >= target {
			break
		}
		for _, b := range tier.pick(user, items, pop) {
			if len(out) >= target {
				break
			}
			if _, dup := seen[b.GroupBuyID]; dup {
				continue
			}
			seen[b.GroupBuyID] = struct{}{}
			b.Source = tier.source
			out = append(out, b)
		}
	}
	return out
}

// zoneTier: same-zone items close to their MOQ or deadline, most urgent first.
func (h *ColdStartHandler) zoneTier(user domain.User, items []SignalBreakdown, pop Popularity) []SignalBreakdown {
	if user.LocationZone == "" {
		return nil
	}
	horizon := h.cfg.UrgencyHorizon.Hours()
	picked := lo.Filter(items, func(b SignalBreakdown, _ int) bool {
		if b.Zone != user.LocationZone {
			return false
		}
		return b.MOQProgress >= h.cfg.ZoneMOQThreshold || b.HoursLeft <= horizon
	})
	sort.SliceStable(picked, func(i, j int) bool {
		a, b := picked[i], picked[j]
		if a.Urgency != b.Urgency {
			return a.Urgency > b.Urgency
		}
		if pop[a.GroupBuyID] != pop[b.GroupBuyID] {
			return pop[a.GroupBuyID] > pop[b.GroupBuyID]
		}
		return deadlineThenID(a, b)
	})
	return picked
}

// categoryTier: items in the user's explicitly stated categories.
func (h *ColdStartHandler) categoryTier(user domain.User, items []SignalBreakdown, pop Popularity) []SignalBreakdown {
	if len(user.PreferredCategories) == 0 {
		return nil
	}
	prefs := lo.SliceToMap(user.PreferredCategories, func(c string) (string, struct{}) {
		return c, struct{}{}
	})
	picked := lo.Filter(items, func(b SignalBreakdown, _ int) bool {
		_, ok := prefs[b.Category]
		return ok
	})
	sortByPopularity(picked, pop)
	return picked
}

// globalTier: everything, most joined within the popularity window first.
func (h *ColdStartHandler) globalTier(_ domain.User, items []SignalBreakdown, pop Popularity) []SignalBreakdown {
	picked := append([]SignalBreakdown(nil), items...)
	sortByPopularity(picked, pop)
	return picked
}

func sortByPopularity(items []SignalBreakdown, pop Popularity) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if pop[a.GroupBuyID] != pop[b.GroupBuyID] {
			return pop[a.GroupBuyID] > pop[b.GroupBuyID]
		}
		if a.Urgency != b.Urgency {
			return a.Urgency > b.Urgency
		}
		return deadlineThenID(a, b)
	})
}

func deadlineThenID(a, b SignalBreakdown) bool {
	if !a.Deadline.Equal(b.Deadline) {
		return a.Deadline.Before(b.Deadline)
	}
	return a.GroupBuyID < b.GroupBuyID
}
