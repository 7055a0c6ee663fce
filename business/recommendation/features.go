package recommendation

import (
	"math"
	"sort"
	"time"

	"myGroupBuy/domain"

	"github.com/samber/lo"
)

const (
	HistoryContribution = "contribution"

	neutralPriceSensitivity = 0.5
)

// kind weights for the frequency half of category affinity
var historyKindWeight = map[string]float64{
	HistoryContribution:  1.0,
	domain.BehaviorJoin:  0.5,
	domain.BehaviorShare: 0.3,
	domain.BehaviorClick: 0.2,
	domain.BehaviorView:  0.1,
}

// HistoryEvent is one entry of a user's merged transactional and
// behavioral history.
type HistoryEvent struct {
	GroupBuyID       uint64
	Category         string
	Kind             string
	Amount           float64
	GroupSize        int
	DiscountOffered  bool
	DiscountAccepted bool
	At               time.Time
}

// UserFeatureVector is the behavioral summary of one user at extraction time.
type UserFeatureVector struct {
	UserID             uint               `json:"user_id"`
	CategoryAffinity   map[string]float64 `json:"category_affinity"`
	PriceSensitivity   float64            `json:"price_sensitivity"`
	Recency            float64            `json:"recency"`
	Frequency          int                `json:"frequency"`
	PreferredGroupSize float64            `json:"preferred_group_size"`
	HasHistory         bool               `json:"has_history"`
	ExtractedAt        time.Time          `json:"extracted_at"`
}

func HistoryFromContribution(c domain.Contribution) HistoryEvent {
	return HistoryEvent{
		GroupBuyID:       c.GroupBuyID,
		Category:         c.Category,
		Kind:             HistoryContribution,
		Amount:           c.Amount,
		GroupSize:        c.GroupSize,
		DiscountOffered:  c.DiscountOffered,
		DiscountAccepted: c.DiscountAccepted,
		At:               c.CreatedAt,
	}
}

func HistoryFromBehavior(e domain.BehaviorEvent) HistoryEvent {
	return HistoryEvent{
		GroupBuyID: e.GroupBuyID,
		Category:   e.Category,
		Kind:       e.EventType,
		At:         e.CreatedAt,
	}
}

// ExtractFeatures summarizes a user's history. It is pure: the same inputs
// always yield the same vector. Users with no history get the neutral
// vector (uniform affinity over categories, mid price sensitivity).
func ExtractFeatures(userID uint, history []HistoryEvent, categories []string, now time.Time, cfg Config) UserFeatureVector {
	fv := UserFeatureVector{
		UserID:           userID,
		CategoryAffinity: make(map[string]float64),
		ExtractedAt:      now,
	}

	if len(history) == 0 {
		fv.PriceSensitivity = neutralPriceSensitivity
		if len(categories) > 0 {
			u := 1.0 / float64(len(categories))
			for _, c := range categories {
				fv.CategoryAffinity[c] = u
			}
		}
		return fv
	}
	fv.HasHistory = true

	affHalfLife := cfg.AffinityHalfLife.Hours()
	recHalfLife := cfg.RecencyHalfLife.Hours()

	freq := make(map[string]float64)
	spend := make(map[string]float64)
	var freqTotal, spendTotal float64

	var offered, accepted int
	var sizeSum float64
	var sizeN int
	var last time.Time

	for _, e := range history {
		if e.At.After(last) {
			last = e.At
		}

		if e.Kind == HistoryContribution {
			fv.Frequency++
			if e.DiscountOffered {
				offered++
				if e.DiscountAccepted {
					accepted++
				}
			}
			if e.GroupSize > 0 {
				sizeSum += float64(e.GroupSize)
				sizeN++
			}
		}

		if e.Category == "" {
			continue
		}
		w := decay(now.Sub(e.At).Hours(), affHalfLife)
		kw, ok := historyKindWeight[e.Kind]
		if !ok {
			continue
		}
		freq[e.Category] += w * kw
		freqTotal += w * kw
		if e.Kind == HistoryContribution {
			spend[e.Category] += w * e.Amount
			spendTotal += w * e.Amount
		}
	}

	for c, f := range freq {
		var a float64
		if freqTotal > 0 {
			a = f / freqTotal
		}
		if spendTotal > 0 {
			a = 0.5*a + 0.5*spend[c]/spendTotal
		}
		if a < 0 {
			a = 0
		}
		fv.CategoryAffinity[c] = a
	}
	// keep the vocabulary dense so vectors line up
	for _, c := range categories {
		if _, ok := fv.CategoryAffinity[c]; !ok {
			fv.CategoryAffinity[c] = 0
		}
	}

	fv.PriceSensitivity = neutralPriceSensitivity
	if offered > 0 {
		fv.PriceSensitivity = float64(accepted) / float64(offered)
	}

	if !last.IsZero() {
		fv.Recency = decay(now.Sub(last).Hours(), recHalfLife)
	}

	if sizeN > 0 {
		fv.PreferredGroupSize = sizeSum / float64(sizeN)
	}

	return fv
}

// Vectorize lays the feature vector out densely in a fixed column order:
// one affinity per category, then price, recency, frequency, group size.
func Vectorize(fv UserFeatureVector, categories []string) []float64 {
	v := make([]float64, 0, len(categories)+4)
	for _, c := range categories {
		v = append(v, fv.CategoryAffinity[c])
	}
	v = append(v,
		fv.PriceSensitivity,
		fv.Recency,
		math.Log1p(float64(fv.Frequency)),
		math.Log1p(fv.PreferredGroupSize),
	)
	return v
}

// CategoryVocabulary returns the sorted, de-duplicated set of non-empty
// categories seen across the catalog and the transaction history.
func CategoryVocabulary(groupBuys []domain.GroupBuy, contributions []domain.Contribution) []string {
	cats := lo.Uniq(append(
		lo.Map(groupBuys, func(g domain.GroupBuy, _ int) string { return g.Category }),
		lo.Map(contributions, func(c domain.Contribution, _ int) string { return c.Category })...,
	))
	cats = lo.Filter(cats, func(c string, _ int) bool { return c != "" })
	sort.Strings(cats)
	return cats
}
