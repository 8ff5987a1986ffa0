package testutil

import (
	"fmt"
	"math/rand"
	"sync"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float32 returns, as a float32, a pseudo-random number in [0.0,1.0).
func (r *RNG) Float32() float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float32()
}

// FillUniform fills dst with random values in range [0, 1).
// Locks only once per call (preferred over calling Float32 in a loop).
func (r *RNG) FillUniform(dst []float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range dst {
		dst[i] = r.rand.Float32()
	}
}

// FillGaussian fills dst with normally distributed values around mean with
// the given standard deviation.
func (r *RNG) FillGaussian(dst []float32, mean, stddev float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range dst {
		dst[i] = float32(r.rand.NormFloat64()*stddev + mean)
	}
}

// SHA returns a deterministic 64-character hex identifier for index i,
// shaped like a SHA-256 digest.
func SHA(i int) string {
	return fmt.Sprintf("%064x", i)
}

// RecordLine returns one raw JSON record line with the given identifier
// index and scalar label.
func RecordLine(i int, label float64) string {
	return fmt.Sprintf(`{"sha256":"%s","label":%g}`, SHA(i), label)
}

// Embedding returns a fresh dim-width embedding drawn uniformly from [0, 1).
func (r *RNG) Embedding(dim int) []float32 {
	v := make([]float32, dim)
	r.FillUniform(v)
	return v
}

// LabeledCluster is a set of embeddings sharing one ground-truth label,
// generated as Gaussian noise around a common centroid.
type LabeledCluster struct {
	Label      float64
	Centroid   []float32
	Embeddings [][]float32
}

// Clusters generates count well-separated labeled clusters of size members
// each. Centroids are spread on distinct axes scaled far apart relative to
// the noise, so same-cluster members are always nearer than cross-cluster
// ones under cosine similarity.
func (r *RNG) Clusters(count, members, dim int) []LabeledCluster {
	if dim < count {
		dim = count
	}

	out := make([]LabeledCluster, count)
	for c := range out {
		centroid := make([]float32, dim)
		centroid[c] = 100

		embeddings := make([][]float32, members)
		for m := range embeddings {
			e := make([]float32, dim)
			r.FillGaussian(e, 0, 0.1)
			for i := range e {
				e[i] += centroid[i]
			}
			embeddings[m] = e
		}

		out[c] = LabeledCluster{
			Label:      float64(c),
			Centroid:   centroid,
			Embeddings: embeddings,
		}
	}
	return out
}
