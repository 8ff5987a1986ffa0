// Package ranking computes rank-based retrieval quality metrics over
// relevance sequences.
//
// A relevance sequence is the ordered list of binary flags obtained by
// sorting retrieval candidates by similarity to a query (best first) and
// marking each candidate as relevant (1) or not (0). Relevance is binary:
// any nonzero flag counts as relevant. All computations here are pure and
// stateless.
package ranking

import "fmt"

// ReciprocalRank returns 1/(rank of the first relevant item), ranks starting
// at 1, or 0 when the sequence contains no relevant item.
func ReciprocalRank(rs []float64) float64 {
	for i, r := range rs {
		if r != 0 {
			return 1 / float64(i+1)
		}
	}
	return 0
}

// PrecisionAtK returns the fraction of relevant items among the first k,
// 1-indexed. k must be in [1, len(rs)].
func PrecisionAtK(rs []float64, k int) (float64, error) {
	if k < 1 {
		return 0, fmt.Errorf("ranking: k must be >= 1, got %d", k)
	}
	if k > len(rs) {
		return 0, fmt.Errorf("ranking: relevance sequence length %d < k %d", len(rs), k)
	}

	relevant := 0
	for _, r := range rs[:k] {
		if r != 0 {
			relevant++
		}
	}
	return float64(relevant) / float64(k), nil
}

// AveragePrecision returns the mean of precision-at-k over every position k
// holding a relevant item, or 0 when no item is relevant.
func AveragePrecision(rs []float64) float64 {
	var sum float64
	hits := 0
	for i, r := range rs {
		if r == 0 {
			continue
		}
		hits++
		// precision at the 1-indexed position i+1; hits relevant so far.
		sum += float64(hits) / float64(i+1)
	}
	if hits == 0 {
		return 0
	}
	return sum / float64(hits)
}

// MeanReciprocalRank returns the arithmetic mean of per-query reciprocal
// ranks over a query set.
func MeanReciprocalRank(queries [][]float64) float64 {
	if len(queries) == 0 {
		return 0
	}
	var sum float64
	for _, rs := range queries {
		sum += ReciprocalRank(rs)
	}
	return sum / float64(len(queries))
}

// MeanAveragePrecision returns the arithmetic mean of per-query average
// precisions over a query set.
func MeanAveragePrecision(queries [][]float64) float64 {
	if len(queries) == 0 {
		return 0
	}
	var sum float64
	for _, rs := range queries {
		sum += AveragePrecision(rs)
	}
	return sum / float64(len(queries))
}

// MaxReciprocalRankIndex returns the index of the query with the highest
// reciprocal rank (first on ties), or -1 for an empty set.
func MaxReciprocalRankIndex(queries [][]float64) int {
	return argBest(queries, ReciprocalRank, false)
}

// MinReciprocalRankIndex returns the index of the query with the lowest
// reciprocal rank (first on ties), or -1 for an empty set.
func MinReciprocalRankIndex(queries [][]float64) int {
	return argBest(queries, ReciprocalRank, true)
}

// MaxAveragePrecisionIndex returns the index of the query with the highest
// average precision (first on ties), or -1 for an empty set.
func MaxAveragePrecisionIndex(queries [][]float64) int {
	return argBest(queries, AveragePrecision, false)
}

// MinAveragePrecisionIndex returns the index of the query with the lowest
// average precision (first on ties), or -1 for an empty set.
func MinAveragePrecisionIndex(queries [][]float64) int {
	return argBest(queries, AveragePrecision, true)
}

func argBest(queries [][]float64, score func([]float64) float64, min bool) int {
	best := -1
	var bestScore float64
	for i, rs := range queries {
		s := score(rs)
		if best == -1 || (min && s < bestScore) || (!min && s > bestScore) {
			best = i
			bestScore = s
		}
	}
	return best
}
