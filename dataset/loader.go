package dataset

import (
	"context"
	"math/rand"
)

// LoaderOptions configures batch iteration.
type LoaderOptions struct {
	// BatchSize is the number of items per batch. The final batch of an
	// epoch may be smaller.
	BatchSize int
	// Shuffle visits rows in a random permutation instead of store order.
	Shuffle bool
	// Seed fixes the permutation for reproducible epochs. Ignored unless
	// Shuffle is set.
	Seed int64
}

// DefaultLoaderOptions visit the store in order, 1024 items at a time.
var DefaultLoaderOptions = LoaderOptions{
	BatchSize: 1024,
}

// Loader iterates a Dataset in fixed-size batches.
type Loader struct {
	ds   *Dataset
	opts LoaderOptions
}

// NewLoader creates a batch loader over ds.
func NewLoader(ds *Dataset, optFns ...func(*LoaderOptions)) *Loader {
	opts := DefaultLoaderOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.BatchSize < 1 {
		opts.BatchSize = DefaultLoaderOptions.BatchSize
	}

	return &Loader{ds: ds, opts: opts}
}

// Batches returns the number of batches per epoch.
func (l *Loader) Batches() int {
	n := l.ds.Len()
	return (n + l.opts.BatchSize - 1) / l.opts.BatchSize
}

// Each runs one epoch, calling fn once per batch. A non-nil error from fn
// stops the epoch and is returned. Shuffled epochs reuse the seed, so two
// loaders with the same seed visit identical permutations.
func (l *Loader) Each(ctx context.Context, fn func(batch []Item) error) error {
	n := l.ds.Len()

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	if l.opts.Shuffle {
		rng := rand.New(rand.NewSource(l.opts.Seed))
		rng.Shuffle(n, func(a, b int) {
			order[a], order[b] = order[b], order[a]
		})
	}

	batch := make([]Item, 0, l.opts.BatchSize)
	for start := 0; start < n; start += l.opts.BatchSize {
		if err := ctx.Err(); err != nil {
			return err
		}

		end := start + l.opts.BatchSize
		if end > n {
			end = n
		}

		batch = batch[:0]
		for _, row := range order[start:end] {
			item, err := l.ds.Item(row)
			if err != nil {
				return err
			}
			batch = append(batch, item)
		}

		if err := fn(batch); err != nil {
			return err
		}
	}

	return nil
}
