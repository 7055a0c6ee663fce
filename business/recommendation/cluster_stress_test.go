//go:build !integration

package recommendation

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scenario params
const (
	stressNumUsers    = 1500
	stressArchetypes  = 5
	stressDims        = 6
	stressNoise       = 0.3
	stressCenterSpace = 6.0
)

func TestClusterUsers_StressArchetypes(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	centers := make([][]float64, stressArchetypes)
	for a := range centers {
		centers[a] = make([]float64, stressDims)
		// each archetype sits on its own axis
		centers[a][a%stressDims] = stressCenterSpace
	}

	vectors := make(map[uint][]float64, stressNumUsers)
	archetype := make(map[uint]int, stressNumUsers)
	for u := 1; u <= stressNumUsers; u++ {
		a := u % stressArchetypes
		v := make([]float64, stressDims)
		for d := range v {
			v[d] = centers[a][d] + rng.NormFloat64()*stressNoise
		}
		vectors[uint(u)] = v
		archetype[uint(u)] = a
	}

	start := time.Now()
	res := ClusterUsers(vectors, DefaultConfig())
	t.Logf("[CLUSTER] users=%d k=%d silhouette=%.4f took=%s", stressNumUsers, res.K, res.Silhouette, time.Since(start))

	require.False(t, res.Degenerate)
	assert.Equal(t, stressArchetypes, res.K)
	assert.Greater(t, res.Silhouette, 0.7)

	// every archetype maps onto exactly one cluster
	label := make(map[int]int)
	for id, a := range archetype {
		c := res.Assignments[id].ClusterID
		if prev, ok := label[a]; ok {
			assert.Equal(t, prev, c, "archetype %d split", a)
			continue
		}
		label[a] = c
	}
	assert.Len(t, label, stressArchetypes)
}
