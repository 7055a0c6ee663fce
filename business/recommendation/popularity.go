package recommendation

import (
	"myGroupBuy/domain"
)

// Popularity is the number of joins per group-buy inside the trailing window.
type Popularity map[uint64]int

// ClusterProfile aggregates what a cluster's members joined during the
// training window.
type ClusterProfile struct {
	Members          int
	ItemJoins        map[uint64]int
	CategoryJoins    map[string]int
	MaxItemJoins     int
	MaxCategoryJoins int
}

// BuildClusterProfiles tallies contributions by the cluster of the
// contributing user. Users without a cluster are ignored.
func BuildClusterProfiles(assignments map[uint]Assignment, contributions []domain.Contribution) map[int]ClusterProfile {
	profiles := make(map[int]ClusterProfile)
	for _, a := range assignments {
		if a.ClusterID == UnclusteredID {
			continue
		}
		p, ok := profiles[a.ClusterID]
		if !ok {
			p = ClusterProfile{
				ItemJoins:     make(map[uint64]int),
				CategoryJoins: make(map[string]int),
			}
		}
		p.Members++
		profiles[a.ClusterID] = p
	}

	for _, c := range contributions {
		a, ok := assignments[c.UserID]
		if !ok || a.ClusterID == UnclusteredID {
			continue
		}
		p := profiles[a.ClusterID]
		p.ItemJoins[c.GroupBuyID]++
		if p.ItemJoins[c.GroupBuyID] > p.MaxItemJoins {
			p.MaxItemJoins = p.ItemJoins[c.GroupBuyID]
		}
		if c.Category != "" {
			p.CategoryJoins[c.Category]++
			if p.CategoryJoins[c.Category] > p.MaxCategoryJoins {
				p.MaxCategoryJoins = p.CategoryJoins[c.Category]
			}
		}
		profiles[a.ClusterID] = p
	}
	return profiles
}

// collaborative scores an item against the cluster's joins: mostly the item
// itself, partly its category, each normalized by the cluster's maximum.
// The two weighted parts are returned separately so the dominant one can be
// explained; their sum is the collaborative signal.
func (p ClusterProfile) collaborative(groupBuyID uint64, category string) (item, cat float64) {
	if p.MaxItemJoins > 0 {
		item = 0.6 * float64(p.ItemJoins[groupBuyID]) / float64(p.MaxItemJoins)
	}
	if p.MaxCategoryJoins > 0 {
		cat = 0.4 * float64(p.CategoryJoins[category]) / float64(p.MaxCategoryJoins)
	}
	return item, cat
}
