package extract

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strconv"

	"github.com/hupe1980/emberstore/codec"
	"github.com/hupe1980/emberstore/record"
)

// Hashing is a feature-hashing extractor: every numeric leaf of the raw JSON
// payload adds its value to the bucket selected by hashing its path, every
// string leaf adds 1 to the bucket selected by hashing path and value.
// Envelope fields (sha256, label, labels) are excluded from the payload.
//
// The mapping depends only on the configured dimension, and contributions are
// folded into the vector in sorted path order. Float accumulation order is
// therefore fixed, so the same record always yields bit-identical vectors
// even when buckets collide.
type Hashing struct {
	dim   int
	codec codec.Codec
}

// NewHashing creates a hashing extractor with the given output dimension.
func NewHashing(dim int, c codec.Codec) (*Hashing, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("extract: dimension must be positive, got %d", dim)
	}
	if c == nil {
		c = codec.Default
	}
	return &Hashing{dim: dim, codec: c}, nil
}

// Dim returns the fixed feature vector length.
func (h *Hashing) Dim() int { return h.dim }

// Extract hashes the record's feature payload into a dense vector.
func (h *Hashing) Extract(raw *record.Raw) ([]float32, error) {
	var payload map[string]any
	if err := h.codec.Unmarshal(raw.Line, &payload); err != nil {
		return nil, fmt.Errorf("extract: decode payload: %w", err)
	}
	delete(payload, "sha256")
	delete(payload, "label")
	delete(payload, "labels")

	// Maps iterate in randomized order, so contributions are collected
	// first and folded in sorted path order. Paths are unique (object keys
	// and array indices), which makes the fold order total.
	var contribs []contribution
	h.walk(&contribs, "", payload)
	sort.Slice(contribs, func(i, j int) bool {
		return contribs[i].path < contribs[j].path
	})

	vec := make([]float32, h.dim)
	for _, c := range contribs {
		vec[h.bucket(c.path)] += c.value
	}
	return vec, nil
}

// contribution is one leaf's addend, keyed by the path that selects its
// bucket.
type contribution struct {
	path  string
	value float32
}

func (h *Hashing) walk(out *[]contribution, path string, v any) {
	switch val := v.(type) {
	case map[string]any:
		for k, child := range val {
			h.walk(out, path+"."+k, child)
		}
	case []any:
		for i, child := range val {
			h.walk(out, path+"["+strconv.Itoa(i)+"]", child)
		}
	case float64:
		*out = append(*out, contribution{path: path, value: float32(val)})
	case bool:
		if val {
			*out = append(*out, contribution{path: path, value: 1})
		}
	case string:
		*out = append(*out, contribution{path: path + "=" + val, value: 1})
	}
}

func (h *Hashing) bucket(key string) int {
	f := fnv.New64a()
	f.Write([]byte(key))
	return int(f.Sum64() % uint64(h.dim))
}
