package loghist

import (
	"errors"
	"fmt"
)

// ErrBadInput is returned for setup parameters or operations that
// violate the histogram's contract: non-positive or out-of-order
// bounds, more than 10,000 bins, or merging two non-conformal
// histograms.
var ErrBadInput = errors.New("loghist: bad input")

func badInputf(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrBadInput)...)
}
