package ranking

import (
	"sort"

	"github.com/hupe1980/emberstore/distance"
)

// Similarity scores a candidate embedding against a query embedding.
// Higher is more similar.
type Similarity func(query, candidate []float32) float32

// CosineSim is the default similarity for joint-embedding evaluation.
// Zero-magnitude vectors score 0.
func CosineSim(query, candidate []float32) float32 {
	sim, err := distance.CosineSimilarity(query, candidate)
	if err != nil {
		return 0
	}
	return sim
}

// Candidate is one retrieval candidate: an embedding and its ground-truth
// category label.
type Candidate struct {
	Label     float64
	Embedding []float32
}

// Relevance ranks candidates by descending similarity to the query (stable:
// ties keep original candidate order) and returns the binary relevance
// sequence, flagging candidates whose label matches queryLabel.
func Relevance(query []float32, queryLabel float64, candidates []Candidate, sim Similarity) []float64 {
	if sim == nil {
		sim = CosineSim
	}

	scores := make([]float32, len(candidates))
	order := make([]int, len(candidates))
	for i, c := range candidates {
		scores[i] = sim(query, c.Embedding)
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	rs := make([]float64, len(candidates))
	for rank, i := range order {
		if candidates[i].Label == queryLabel {
			rs[rank] = 1
		}
	}
	return rs
}

// SelfRelevance treats every member of set as a query against all the other
// members, returning one relevance sequence per query. This mirrors
// family-retrieval evaluation, where queries and candidates are the same
// embedded sample set and the query itself is excluded from its own ranking.
func SelfRelevance(set []Candidate, sim Similarity) [][]float64 {
	queries := make([][]float64, len(set))
	for i, q := range set {
		others := make([]Candidate, 0, len(set)-1)
		others = append(others, set[:i]...)
		others = append(others, set[i+1:]...)
		queries[i] = Relevance(q.Embedding, q.Label, others, sim)
	}
	return queries
}
