// Package dataset adapts a feature store for training and evaluation loops.
//
// Dataset exposes the indexable, length-known contract consumers expect,
// with label-row slicing into the malware/count/tags targets. Loader iterates
// a Dataset in (optionally shuffled) fixed-size batches, one epoch per call.
package dataset

import (
	"fmt"

	"github.com/hupe1980/emberstore/store"
)

// Options selects which parts of a row an Item carries.
type Options struct {
	// ReturnSHAs includes the sample identifier in every item.
	ReturnSHAs bool
	// ReturnMalicious includes the malware flag (label slot 0).
	ReturnMalicious bool
	// ReturnCounts includes the detection count (label slot 1).
	ReturnCounts bool
	// ReturnTags includes the per-tag flags (label slots 2+).
	ReturnTags bool
}

// Item is one sample as consumed by a training loop.
type Item struct {
	Index    int
	SHA      string
	Features []float32

	// Target is the scalar label of single-target stores (label width 1).
	Target float32

	Malware float32
	Count   float32
	Tags    []float32
}

// Dataset provides random access by row over an open store.
type Dataset struct {
	reader *store.Reader
	opts   Options
}

// New wraps an open store reader. The reader must outlive the dataset.
func New(reader *store.Reader, optFns ...func(*Options)) (*Dataset, error) {
	var opts Options
	for _, fn := range optFns {
		fn(&opts)
	}

	width := reader.Layout().LabelWidth
	if opts.ReturnCounts && width < 2 {
		return nil, fmt.Errorf("dataset: store has label width %d, counts need at least 2", width)
	}
	if opts.ReturnTags && width < 3 {
		return nil, fmt.Errorf("dataset: store has label width %d, tags need at least 3", width)
	}

	return &Dataset{reader: reader, opts: opts}, nil
}

// Len returns the number of samples.
func (d *Dataset) Len() int {
	return d.reader.Len()
}

// Item returns the sample at index i.
func (d *Dataset) Item(i int) (Item, error) {
	row, err := d.reader.Row(i)
	if err != nil {
		return Item{}, err
	}

	item := Item{
		Index:    i,
		Features: row.Features,
	}
	if d.opts.ReturnSHAs {
		item.SHA = row.ID
	}

	if len(row.Labels) == 1 {
		item.Target = row.Labels[0]
	}
	if d.opts.ReturnMalicious {
		item.Malware = row.Labels[0]
	}
	if d.opts.ReturnCounts {
		item.Count = row.Labels[1]
	}
	if d.opts.ReturnTags {
		item.Tags = row.Labels[2:]
	}

	return item, nil
}
