package recommendation

import (
	"sort"
	"time"

	"myGroupBuy/domain"
)

const (
	coldReasonNoArtifact    = "no_artifact"
	coldReasonUnclustered   = "unclustered"
	coldReasonLowConfidence = "low_confidence"
)

type rankResult struct {
	items           []SignalBreakdown
	artifactVersion string
	clusterID       int
	// set when the whole list came from the cold-start handler
	coldReason string
}

// rankCandidates scores every candidate against the pinned artifact and
// returns the top k. Candidates with neither collaborative nor content
// evidence above the confidence floor are left to the cold-start handler:
// if nothing is confident the handler serves the whole list in tier order,
// otherwise it only fills the remaining slots.
func rankCandidates(art *Artifact, in servingInputs, k int, cfg Config, now time.Time) rankResult {
	res := rankResult{clusterID: UnclusteredID}
	if art != nil {
		res.artifactVersion = art.Meta.Version
	}
	if len(in.candidates) == 0 || k <= 0 {
		res.items = []SignalBreakdown{}
		return res
	}

	var profile ClusterProfile
	hasProfile := false
	if as, ok := art.Assignment(in.user.ID); ok {
		res.clusterID = as.ClusterID
		profile, hasProfile = art.Profile(as.ClusterID)
	}
	var content *ContentModel
	if art != nil {
		content = art.Content
	}

	primary := make([]SignalBreakdown, 0, len(in.candidates))
	rest := make([]domain.GroupBuy, 0)
	restByID := make(map[uint64]SignalBreakdown)

	for _, gb := range in.candidates {
		b := newBreakdown(gb, in.user, now, cfg)
		if hasProfile {
			b.setCollaborative(profile.collaborative(gb.ID, gb.Category))
		}
		b.Content, b.ContentKnown = contentAffinity(content, gb.ID, in.joined)
		b.Score = b.Blend()

		if b.confident(cfg.ConfidenceFloor) {
			b.Source = b.primarySource()
			primary = append(primary, b)
			continue
		}
		rest = append(rest, gb)
		restByID[gb.ID] = b
	}

	cold := NewColdStartHandler(cfg)

	if len(primary) == 0 {
		switch {
		case art == nil:
			res.coldReason = coldReasonNoArtifact
		case res.clusterID == UnclusteredID:
			res.coldReason = coldReasonUnclustered
		default:
			res.coldReason = coldReasonLowConfidence
		}

		items := cold.Recommend(in.user, in.candidates, in.popularity, max(cfg.ColdStartTarget, k), now)
		// strictly decreasing scores keep the tier order under the usual sort
		n := len(items)
		for i := range items {
			items[i].Score = roundScore(float64(n-i) / float64(n))
		}
		if len(items) > k {
			items = items[:k]
		}
		res.items = items
		return res
	}

	ranked := primary
	if len(primary) < k && len(rest) > 0 {
		for _, f := range cold.Recommend(in.user, rest, in.popularity, k-len(primary), now) {
			b := restByID[f.GroupBuyID]
			b.Source = f.Source
			ranked = append(ranked, b)
		}
	}

	sortRanked(ranked)
	if len(ranked) > k {
		ranked = ranked[:k]
	}
	res.items = ranked
	return res
}

// sortRanked orders by score, then earlier deadline, then lower id.
func sortRanked(items []SignalBreakdown) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return deadlineThenID(a, b)
	})
}

// contentAffinity is the best cosine between the item and anything the user
// joined. Unknown when the item or every joined item lacks an embedding.
func contentAffinity(m *ContentModel, groupBuyID uint64, joined []uint64) (float64, bool) {
	if m == nil || len(joined) == 0 {
		return 0, false
	}
	if _, ok := m.Embedding(groupBuyID); !ok {
		return 0, false
	}
	best, known := 0.0, false
	for _, j := range joined {
		sim, ok := m.Similarity(groupBuyID, j)
		if !ok {
			continue
		}
		if !known || sim > best {
			best = sim
		}
		known = true
	}
	return clamp01(best), known
}
