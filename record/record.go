// Package record parses raw per-sample feature records.
//
// A raw record is one JSON object with at least a sha256 identifier and a
// label payload: either a scalar "label" (single target, e.g. a family index)
// or a "labels" block carrying the malware flag, detection count and per-tag
// flags that get packed into one label row. The rest of the object is the
// opaque feature payload; it is never interpreted here, only handed to the
// feature extractor.
package record

import (
	"errors"
	"fmt"

	"github.com/hupe1980/emberstore/codec"
)

var (
	// ErrMissingSHA is returned when a record has no sha256 field.
	ErrMissingSHA = errors.New("record: missing sha256")
	// ErrMissingLabel is returned when a record has neither a scalar label
	// nor a labels block.
	ErrMissingLabel = errors.New("record: missing label")
)

// LabelBlock is the multi-target label payload: one malware flag, one
// detection count and a fixed number of per-tag flags.
type LabelBlock struct {
	Malware float64   `json:"malware"`
	Count   float64   `json:"count"`
	Tags    []float64 `json:"tags"`
}

type envelope struct {
	SHA256 string      `json:"sha256"`
	Label  *float64    `json:"label"`
	Labels *LabelBlock `json:"labels"`
}

// Raw is a parsed raw record. The feature payload stays in Line, untouched,
// for the extractor.
type Raw struct {
	SHA256 string
	Label  *float64
	Labels *LabelBlock

	// Line is the full original record line.
	Line []byte
}

// Parse decodes the record envelope from one raw line using c (codec.Default
// if nil). The returned Raw keeps its own copy of line.
func Parse(c codec.Codec, line []byte) (*Raw, error) {
	if c == nil {
		c = codec.Default
	}

	var env envelope
	if err := c.Unmarshal(line, &env); err != nil {
		return nil, fmt.Errorf("record: decode: %w", err)
	}
	if env.SHA256 == "" {
		return nil, ErrMissingSHA
	}
	if env.Label == nil && env.Labels == nil {
		return nil, ErrMissingLabel
	}

	return &Raw{
		SHA256: env.SHA256,
		Label:  env.Label,
		Labels: env.Labels,
		Line:   append([]byte(nil), line...),
	}, nil
}

// LabelRow packs the record's label payload into a row of exactly width
// float32 values. A scalar label fills width 1; a labels block fills
// 1 (malware) + 1 (count) + len(tags).
func (r *Raw) LabelRow(width int) ([]float32, error) {
	row := make([]float32, width)

	switch {
	case r.Labels != nil:
		if want := 2 + len(r.Labels.Tags); want != width {
			return nil, fmt.Errorf("record %s: label block has %d values, layout wants %d", r.SHA256, want, width)
		}
		row[0] = float32(r.Labels.Malware)
		row[1] = float32(r.Labels.Count)
		for i, tag := range r.Labels.Tags {
			row[2+i] = float32(tag)
		}
	case r.Label != nil:
		if width != 1 {
			return nil, fmt.Errorf("record %s: scalar label, layout wants width %d", r.SHA256, width)
		}
		row[0] = float32(*r.Label)
	default:
		return nil, ErrMissingLabel
	}

	return row, nil
}
