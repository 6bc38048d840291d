package tdigest

import (
	"errors"
	"fmt"
)

// Sentinel errors forming the digest's error taxonomy. Wrap these with
// fmt.Errorf("...: %w", ...) at call sites so callers can still match
// with errors.Is while getting a specific message.
var (
	// ErrBadInput is returned for caller mistakes: NaN passed to Fit,
	// non-finite values passed to CDF, quantiles outside [0,1], or
	// merging digests with incompatible sample-log settings.
	ErrBadInput = errors.New("tdigest: bad input")

	// ErrBadFormat is returned by FromBytes when the encoding tag is
	// not one this package knows how to read.
	ErrBadFormat = errors.New("tdigest: unrecognized serialization format")

	// ErrInvariantViolated signals an internal bug: an assertion that
	// should always hold after compression did not. It is never
	// caused by caller input. After this error the digest's state is
	// undefined and it must be discarded.
	ErrInvariantViolated = errors.New("tdigest: invariant violated")
)

func badInputf(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrBadInput)...)
}

func badFormatf(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrBadFormat)...)
}

func invariantViolatedf(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrInvariantViolated)...)
}
