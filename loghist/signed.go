package loghist

import "math"

// SignedHistogram extends Histogram to values of either sign by
// routing each sample's magnitude into one of two conformal
// Histograms - one for values > 0, one for values < 0 - mirroring the
// positive/negative bucket split used by magnitude-bucketed digests
// for signed inputs.
type SignedHistogram struct {
	pos, neg *Histogram
}

// NewSigned creates a SignedHistogram whose positive and negative
// sides both cover magnitudes in [min, max] at relative resolution
// eps.
func NewSigned(min, max, eps float64) (*SignedHistogram, error) {
	pos, err := New(min, max, eps)
	if err != nil {
		return nil, err
	}
	neg, err := New(min, max, eps)
	if err != nil {
		return nil, err
	}
	return &SignedHistogram{pos: pos, neg: neg}, nil
}

// Fit counts one occurrence of x, any finite value other than zero.
func (s *SignedHistogram) Fit(x float64) error {
	if x >= 0 {
		return s.pos.Fit(x)
	}
	return s.neg.Fit(-x)
}

// Total returns the number of samples counted so far, across both
// sides.
func (s *SignedHistogram) Total() uint64 {
	return s.pos.Total() + s.neg.Total()
}

// Merge vector-adds other's bin counts into s. Both sides must be
// pairwise conformal; see Histogram.Merge.
func (s *SignedHistogram) Merge(other *SignedHistogram) error {
	if other == nil {
		return nil
	}
	if err := s.pos.Merge(other.pos); err != nil {
		return err
	}
	return s.neg.Merge(other.neg)
}

// CDF estimates the fraction of recorded samples that are <= x.
func (s *SignedHistogram) CDF(x float64) (float64, error) {
	total := s.Total()
	if total == 0 {
		return math.NaN(), nil
	}

	if x >= 0 {
		posCDF, err := s.pos.CDF(x)
		if err != nil {
			return 0, err
		}
		if math.IsNaN(posCDF) {
			posCDF = 1
		}
		posBelow := posCDF * float64(s.pos.Total())
		return (float64(s.neg.Total()) + posBelow) / float64(total), nil
	}

	// A negative sample's rank among negatives grows as its magnitude
	// shrinks, so the fraction of negatives <= x is the complement of
	// the negative-side (magnitude) CDF evaluated at -x.
	negCDF, err := s.neg.CDF(-x)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(negCDF) {
		negCDF = 0
	}
	negBelow := (1 - negCDF) * float64(s.neg.Total())
	return negBelow / float64(total), nil
}

// Quantile estimates the value below which the given fraction (in
// [0,1]) of recorded samples falls.
func (s *SignedHistogram) Quantile(q float64) (float64, error) {
	if math.IsNaN(q) || q < 0 || q > 1 {
		return 0, badInputf("q must be in [0,1], got %v", q)
	}
	total := s.Total()
	if total == 0 {
		return math.NaN(), nil
	}

	negTotal := s.neg.Total()
	target := q * float64(total)

	if target <= float64(negTotal) {
		// Rank `target` among negatives, counted from the largest
		// magnitude (most negative) up, matches counting from the
		// smallest actual value up.
		negQuantile, err := s.neg.Quantile(clamp01(1 - target/float64(negTotal)))
		if err != nil {
			return 0, err
		}
		return -negQuantile, nil
	}

	posTarget := target - float64(negTotal)
	posTotal := s.pos.Total()
	if posTotal == 0 {
		return 0, nil
	}
	return s.pos.Quantile(clamp01(posTarget / float64(posTotal)))
}
