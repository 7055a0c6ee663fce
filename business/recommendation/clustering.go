package recommendation

import (
	"math"
	"math/rand"
	"sort"

	"myGroupBuy/pkg/logger"

	"gonum.org/v1/gonum/floats"
)

// UnclusteredID marks users whose features could not be clustered.
const UnclusteredID = -1

type Assignment struct {
	ClusterID int
	Distance  float64
}

type ClusteringResult struct {
	K           int
	Silhouette  float64 // NaN when clustering was skipped
	Degenerate  bool
	Centroids   [][]float64
	Assignments map[uint]Assignment
	Excluded    []uint
	// silhouette per evaluated k
	Scores map[int]float64
}

// ClusterUsers partitions users by their scaled feature vectors. k is chosen
// in [MinClusters, MaxClusters] by mean silhouette, preferring fewer
// clusters on ties. Labels are canonical: cluster 0 holds the smallest user
// id, cluster 1 the smallest id not in cluster 0, and so on.
func ClusterUsers(vectors map[uint][]float64, cfg Config) ClusteringResult {
	res := ClusteringResult{
		Assignments: make(map[uint]Assignment, len(vectors)),
		Scores:      make(map[int]float64),
		Silhouette:  math.NaN(),
	}

	ids := make([]uint, 0, len(vectors))
	for id := range vectors {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	valid := make([]uint, 0, len(ids))
	points := make([][]float64, 0, len(ids))
	for _, id := range ids {
		v := vectors[id]
		if !isFinite(v) {
			logger.Warn("excluding user with non-finite features from clustering", "user_id", id)
			res.Excluded = append(res.Excluded, id)
			res.Assignments[id] = Assignment{ClusterID: UnclusteredID}
			continue
		}
		valid = append(valid, id)
		points = append(points, v)
	}

	n := len(points)
	if n == 0 {
		res.Degenerate = true
		return res
	}

	if n < 2*cfg.MinClusters || distinctPoints(points, cfg.MinClusters) < cfg.MinClusters {
		centroid := meanPoint(points)
		res.K = 1
		res.Degenerate = true
		res.Centroids = [][]float64{centroid}
		for i, id := range valid {
			res.Assignments[id] = Assignment{ClusterID: 0, Distance: euclidean(points[i], centroid)}
		}
		return res
	}

	maxK := cfg.MaxClusters
	if maxK > n-1 {
		maxK = n - 1
	}

	var bestLabels []int
	var bestCentroids [][]float64
	bestScore := math.Inf(-1)

	for k := cfg.MinClusters; k <= maxK; k++ {
		labels, centroids := kMeans(points, k, cfg, cfg.Seed+int64(k))
		s := silhouette(points, labels, k, cfg.SilhouetteSampleSize, cfg.Seed)
		res.Scores[k] = s
		if s > bestScore+scoreEpsilon {
			bestScore = s
			bestLabels = labels
			bestCentroids = centroids
		}
	}

	labels, centroids := canonicalize(bestLabels, bestCentroids)
	res.K = len(centroids)
	res.Silhouette = bestScore
	res.Centroids = centroids
	for i, id := range valid {
		c := labels[i]
		res.Assignments[id] = Assignment{ClusterID: c, Distance: euclidean(points[i], centroids[c])}
	}

	return res
}

// Members returns the user ids assigned to each cluster.
func (r ClusteringResult) Members() map[int][]uint {
	out := make(map[int][]uint)
	for id, a := range r.Assignments {
		if a.ClusterID == UnclusteredID {
			continue
		}
		out[a.ClusterID] = append(out[a.ClusterID], id)
	}
	for c := range out {
		sort.Slice(out[c], func(i, j int) bool { return out[c][i] < out[c][j] })
	}
	return out
}

// kMeans runs seeded k-means++ with a few restarts and keeps the run with
// the lowest inertia.
func kMeans(points [][]float64, k int, cfg Config, seed int64) ([]int, [][]float64) {
	restarts := cfg.KMeansRestarts
	if restarts < 1 {
		restarts = 1
	}
	rng := rand.New(rand.NewSource(seed))

	var bestLabels []int
	var bestCentroids [][]float64
	bestInertia := math.Inf(1)

	for r := 0; r < restarts; r++ {
		centroids := seedCentroids(points, k, rng)
		labels := make([]int, len(points))
		for i := range labels {
			labels[i] = -1
		}

		for iter := 0; iter < cfg.KMeansMaxIter; iter++ {
			changed := false
			for i, p := range points {
				c := nearest(p, centroids)
				if c != labels[i] {
					labels[i] = c
					changed = true
				}
			}
			centroids = recomputeCentroids(points, labels, centroids, rng)
			if !changed {
				break
			}
		}

		inertia := 0.0
		for i, p := range points {
			d := euclidean(p, centroids[labels[i]])
			inertia += d * d
		}
		if inertia < bestInertia {
			bestInertia = inertia
			bestLabels = append([]int(nil), labels...)
			bestCentroids = centroids
		}
	}
	return bestLabels, bestCentroids
}

func seedCentroids(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	centroids := make([][]float64, 0, k)
	first := points[rng.Intn(len(points))]
	centroids = append(centroids, append([]float64(nil), first...))

	dist := make([]float64, len(points))
	for len(centroids) < k {
		total := 0.0
		for i, p := range points {
			d := euclidean(p, centroids[nearest(p, centroids)])
			dist[i] = d * d
			total += dist[i]
		}
		var next []float64
		if total == 0 {
			next = points[rng.Intn(len(points))]
		} else {
			target := rng.Float64() * total
			acc := 0.0
			for i, d := range dist {
				acc += d
				if acc >= target {
					next = points[i]
					break
				}
			}
			if next == nil {
				next = points[len(points)-1]
			}
		}
		centroids = append(centroids, append([]float64(nil), next...))
	}
	return centroids
}

func nearest(p []float64, centroids [][]float64) int {
	best, bestD := 0, math.Inf(1)
	for c, centroid := range centroids {
		if d := euclidean(p, centroid); d < bestD {
			best, bestD = c, d
		}
	}
	return best
}

// recomputeCentroids moves each centroid to the mean of its members. An
// emptied cluster is re-seeded on the point farthest from its centroid.
func recomputeCentroids(points [][]float64, labels []int, prev [][]float64, rng *rand.Rand) [][]float64 {
	dim := len(points[0])
	sums := make([][]float64, len(prev))
	counts := make([]int, len(prev))
	for c := range sums {
		sums[c] = make([]float64, dim)
	}
	for i, p := range points {
		floats.Add(sums[labels[i]], p)
		counts[labels[i]]++
	}
	for c := range sums {
		if counts[c] == 0 {
			far, farD := rng.Intn(len(points)), -1.0
			for i, p := range points {
				if d := euclidean(p, prev[labels[i]]); d > farD {
					far, farD = i, d
				}
			}
			sums[c] = append([]float64(nil), points[far]...)
			continue
		}
		floats.Scale(1/float64(counts[c]), sums[c])
	}
	return sums
}

// silhouette is the mean silhouette coefficient. Above sampleSize points it
// is estimated on a seeded sample, still measured against every point.
func silhouette(points [][]float64, labels []int, k, sampleSize int, seed int64) float64 {
	n := len(points)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	if sampleSize > 0 && n > sampleSize {
		rng := rand.New(rand.NewSource(seed))
		rng.Shuffle(n, func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
		idx = idx[:sampleSize]
	}

	sizes := make([]int, k)
	for _, l := range labels {
		sizes[l]++
	}

	total := 0.0
	sum := make([]float64, k)
	for _, i := range idx {
		if sizes[labels[i]] <= 1 {
			// singleton clusters score 0
			continue
		}
		for c := range sum {
			sum[c] = 0
		}
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			sum[labels[j]] += euclidean(points[i], points[j])
		}
		own := labels[i]
		a := sum[own] / float64(sizes[own]-1)
		b := math.Inf(1)
		for c := 0; c < k; c++ {
			if c == own || sizes[c] == 0 {
				continue
			}
			if m := sum[c] / float64(sizes[c]); m < b {
				b = m
			}
		}
		if math.IsInf(b, 1) {
			continue
		}
		if den := math.Max(a, b); den > 0 {
			total += (b - a) / den
		}
	}
	return total / float64(len(idx))
}

// canonicalize renumbers clusters by first appearance in input order and
// drops clusters that ended up empty.
func canonicalize(labels []int, centroids [][]float64) ([]int, [][]float64) {
	remap := make(map[int]int)
	out := make([]int, len(labels))
	var ordered [][]float64
	for i, l := range labels {
		nl, ok := remap[l]
		if !ok {
			nl = len(remap)
			remap[l] = nl
			ordered = append(ordered, centroids[l])
		}
		out[i] = nl
	}
	return out, ordered
}

func meanPoint(points [][]float64) []float64 {
	m := make([]float64, len(points[0]))
	for _, p := range points {
		floats.Add(m, p)
	}
	floats.Scale(1/float64(len(points)), m)
	return m
}

// distinctPoints counts distinct vectors, stopping early once limit is hit.
func distinctPoints(points [][]float64, limit int) int {
	var distinct [][]float64
	for _, p := range points {
		seen := false
		for _, d := range distinct {
			if floats.Equal(p, d) {
				seen = true
				break
			}
		}
		if !seen {
			distinct = append(distinct, p)
			if len(distinct) >= limit {
				return len(distinct)
			}
		}
	}
	return len(distinct)
}
