package keygraph

import (
	"errors"
	"fmt"

	"github.com/hupe1980/keygraph/blobstore"
	"github.com/hupe1980/keygraph/checkpoint"
	"github.com/hupe1980/keygraph/internal/resource"
	"github.com/hupe1980/keygraph/matcher"
	"github.com/hupe1980/keygraph/model"
)

var (
	// ErrNotFound is returned when a checkpoint or the CURRENT pointer does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidSnapshot is returned when a snapshot violates its tiling invariants.
	ErrInvalidSnapshot = errors.New("invalid snapshot")

	// ErrCorruptCheckpoint is returned when a checkpoint artifact cannot be decoded.
	ErrCorruptCheckpoint = errors.New("corrupt checkpoint")

	// ErrMemoryLimitExceeded is returned when extraction exceeds the memory budget.
	ErrMemoryLimitExceeded = errors.New("memory limit exceeded")

	// ErrInvalidOptions is returned for out-of-range matcher options.
	ErrInvalidOptions = errors.New("invalid options")
)

var corruptionErrors = []error{
	checkpoint.ErrInvalidMagic,
	checkpoint.ErrUnsupportedVersion,
	checkpoint.ErrUnknownEncoding,
	checkpoint.ErrUnknownCompression,
	checkpoint.ErrTruncated,
	checkpoint.ErrTrailingData,
}

// IsDataError reports whether err stems from bad input data rather than the environment.
func IsDataError(err error) bool {
	return errors.Is(err, ErrInvalidSnapshot) || errors.Is(err, ErrCorruptCheckpoint)
}

func translateError(err error) error {
	if err == nil {
		return nil
	}

	// Not found unification.
	if errors.Is(err, blobstore.ErrNotFound) || errors.Is(err, checkpoint.ErrNoCheckpoint) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	// A corrupt artifact may still decode into an invalid snapshot; report the artifact.
	var fe *checkpoint.FieldError
	if errors.As(err, &fe) || checkpoint.IsChecksumMismatch(err) {
		return fmt.Errorf("%w: %w", ErrCorruptCheckpoint, err)
	}
	for _, target := range corruptionErrors {
		if errors.Is(err, target) {
			return fmt.Errorf("%w: %w", ErrCorruptCheckpoint, err)
		}
	}

	var ve *model.ValidationError
	if errors.As(err, &ve) {
		return fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}
	if errors.Is(err, resource.ErrMemoryLimitExceeded) {
		return fmt.Errorf("%w: %w", ErrMemoryLimitExceeded, err)
	}
	if errors.Is(err, matcher.ErrInvalidOptions) {
		return fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}

	return err
}
