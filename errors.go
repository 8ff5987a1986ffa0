package emberstore

import (
	"errors"
	"fmt"

	"github.com/hupe1980/emberstore/manifest"
)

var (
	// ErrStoreIncomplete is returned when a store directory has no committed
	// manifest: the build never ran, was aborted, or failed. The arrays in
	// such a directory must not be trusted.
	ErrStoreIncomplete = errors.New("store incomplete: no committed manifest")
)

func translateError(err error) error {
	if err == nil {
		return nil
	}

	var noManifest *manifest.ErrNoManifest
	if errors.As(err, &noManifest) {
		return fmt.Errorf("%w: %w", ErrStoreIncomplete, err)
	}

	return err
}
