// Package loghist provides fixed-bin histograms whose bin width grows
// geometrically, so that a bounded number of bins covers a wide
// dynamic range at constant relative resolution. It is a standalone,
// coarser summary than a Digest, with a cheap, mergeable CDF/quantile.
package loghist

import (
	"math"

	"github.com/streamsketch/tdigest/internal/fenwick"
)

const maxBins = 10000

// Histogram counts positive values into geometrically growing bins
// covering [min, max]. Bin counts are held in a Fenwick tree so CDF
// reads the prefix sum below x's bin in O(log n) instead of rescanning
// the bins before it; Quantile walks the bins in order.
type Histogram struct {
	min, max  float64
	logFactor float64
	logOffset float64
	counts    *fenwick.List
	total     uint64
}

// New creates a Histogram covering [min, max] with relative resolution
// eps: adjacent bin edges differ by a factor of roughly 1+eps. It
// rejects non-positive bounds, max <= 2*min (too narrow a range for
// geometric bucketing to be meaningful), and configurations that would
// need more than 10,000 bins.
func New(min, max, eps float64) (*Histogram, error) {
	if min <= 0 || max <= 0 {
		return nil, badInputf("min and max must be positive, got min=%v max=%v", min, max)
	}
	if max <= 2*min {
		return nil, badInputf("max must exceed twice min, got min=%v max=%v", min, max)
	}
	if eps <= 0 || math.IsNaN(eps) {
		return nil, badInputf("epsilon must be positive, got %v", eps)
	}

	logFactor := math.Log(2) / math.Log(1+eps)
	logOffset := approxLog2(min) * logFactor

	h := &Histogram{min: min, max: max, logFactor: logFactor, logOffset: logOffset}
	binCount := h.bucketIndex(max) + 1
	if binCount > maxBins {
		return nil, badInputf("bin count %d exceeds the %d-bin limit", binCount, maxBins)
	}
	if binCount < 1 {
		binCount = 1
	}
	h.counts = fenwick.New(make([]uint64, binCount)...)
	return h, nil
}

// bucketIndex is the unclamped 1-based bin index for x, per the raw
// ceil(approxLog2(x)*logFactor - logOffset) formula.
func (h *Histogram) bucketIndex(x float64) int {
	return int(math.Ceil(approxLog2(x)*h.logFactor - h.logOffset))
}

// bucket clamps bucketIndex's result into [1, binCount] and converts
// to a 0-based slot into counts.
func (h *Histogram) bucket(x float64) int {
	raw := h.bucketIndex(x)
	if raw < 1 {
		raw = 1
	}
	if n := h.counts.Len(); raw > n {
		raw = n
	}
	return raw - 1
}

// binLowerBound returns the value at the lower edge of 0-based bin i,
// the exact inverse of bucket via pow2.
func (h *Histogram) binLowerBound(i int) float64 {
	return pow2((float64(i) + h.logOffset) / h.logFactor)
}

// Fit counts one occurrence of x. x must be a positive, finite value;
// values outside [min, max] are not rejected, they saturate into the
// first or last bin.
func (h *Histogram) Fit(x float64) error {
	if x <= 0 || math.IsNaN(x) || math.IsInf(x, 0) {
		return badInputf("sample must be a positive finite value, got %v", x)
	}
	h.counts.Add(h.bucket(x), 1)
	h.total++
	return nil
}

// Total returns the number of samples counted so far.
func (h *Histogram) Total() uint64 {
	return h.total
}

// Merge vector-adds other's bin counts into h. The two histograms
// must be conformal: identical bounds and bin count. Non-conformal
// histograms cannot be merged meaningfully since their bin edges
// don't line up.
func (h *Histogram) Merge(other *Histogram) error {
	if other == nil {
		return nil
	}
	if h.min != other.min || h.max != other.max || h.counts.Len() != other.counts.Len() {
		return badInputf("cannot merge non-conformal histograms")
	}
	for i := 0; i < h.counts.Len(); i++ {
		if c := other.counts.Get(i); c > 0 {
			h.counts.Add(i, c)
		}
	}
	h.total += other.total
	return nil
}

// CDF estimates the fraction of recorded samples that are <= x,
// interpolating linearly across the bin x falls into.
func (h *Histogram) CDF(x float64) (float64, error) {
	if h.total == 0 {
		return math.NaN(), nil
	}
	if x <= 0 {
		return 0, nil
	}

	idx := h.bucket(x)
	before := h.counts.Sum(idx)
	within := h.counts.Get(idx)

	frac := h.fractionWithinBin(idx, x, within)
	cum := float64(before) + float64(within)*frac
	return cum / float64(h.total), nil
}

// Quantile estimates the value below which the given fraction (in
// [0,1]) of recorded samples falls.
func (h *Histogram) Quantile(q float64) (float64, error) {
	if math.IsNaN(q) || q < 0 || q > 1 {
		return 0, badInputf("q must be in [0,1], got %v", q)
	}
	if h.total == 0 {
		return math.NaN(), nil
	}

	target := q * float64(h.total)
	n := h.counts.Len()
	cum := uint64(0)
	for i := 0; i < n; i++ {
		c := h.counts.Get(i)
		if float64(cum+c) >= target || i == n-1 {
			lower, upper := h.binLowerBound(i), h.binLowerBound(i+1)
			frac := 0.0
			if c > 0 {
				frac = (target - float64(cum)) / float64(c)
			}
			frac = clamp01(frac)
			return lower + (upper-lower)*frac, nil
		}
		cum += c
	}
	return h.binLowerBound(n), nil
}

func (h *Histogram) fractionWithinBin(idx int, x float64, within uint64) float64 {
	if within == 0 {
		return 0
	}
	lower, upper := h.binLowerBound(idx), h.binLowerBound(idx+1)
	if upper <= lower {
		return 0
	}
	return clamp01((x - lower) / (upper - lower))
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
