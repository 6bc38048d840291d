package tdigest

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Digest is a quantile approximation data structure. The zero value is
// not usable; construct one with New.
type Digest struct {
	scale               Scale
	publicCompression   float64
	privateCompression  float64
	maxPending          int
	maxSize             int
	twoLevelCompression bool
	logData             bool

	s           *summary
	totalWeight float64
	mergeCount  uint64
	watermark   int
	isReversed  bool
}

// New creates a Digest with the given compression (delta). Compression
// controls the accuracy/size trade-off: higher values produce a more
// accurate, larger digest. Compression below 10 is clamped to 10, since
// below that the scale functions no longer produce a meaningful
// centroid bound.
//
// The default scale function is K3 and two-level compression is
// enabled; both can be overridden with options.
func New(compression float64, opts ...Option) (*Digest, error) {
	if compression <= 0 || math.IsNaN(compression) {
		return nil, badInputf("compression must be positive, got %v", compression)
	}
	if compression < 10 {
		compression = 10
	}

	d := &Digest{
		scale:               ScaleK3,
		publicCompression:   compression,
		maxPending:          int(5 * compression),
		twoLevelCompression: true,
	}

	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}

	d.maxSize = int(2*d.publicCompression) + maxInt(50, d.maxPending)
	if d.twoLevelCompression {
		d.privateCompression = d.publicCompression * math.Sqrt(float64(d.maxSize)/(2*d.publicCompression))
	} else {
		d.privateCompression = d.publicCompression
	}

	d.s = newSummaryWithCapacity(d.maxSize + d.maxPending)
	if d.logData {
		d.s.ensureLogs()
	}

	return d, nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Fit registers a single sample in the digest.
//
// It returns ErrBadInput if x is NaN.
func (d *Digest) Fit(x float64) error {
	if math.IsNaN(x) {
		return badInputf("sample must not be NaN")
	}

	d.s.appendCentroid(x, 1)
	d.totalWeight++

	if d.s.len() > d.maxSize {
		return d.compress(false, d.privateCompression)
	}
	return nil
}

// FitSlice registers every sample in xs. Samples are applied in chunks
// so that a single call never has to grow the backing array past its
// current capacity by more than a bounded amount.
//
// FitSlice validates the entire slice before mutating the digest: if
// any element is NaN, it returns ErrBadInput and leaves the digest
// exactly as it was before the call.
func (d *Digest) FitSlice(xs []float64) error {
	for _, x := range xs {
		if math.IsNaN(x) {
			return badInputf("sample must not be NaN")
		}
	}

	const chunkSize = 10000
	for len(xs) > 0 {
		n := chunkSize
		if n > len(xs) {
			n = len(xs)
		}
		chunk := xs[:n]
		xs = xs[n:]

		for _, x := range chunk {
			d.s.appendCentroid(x, 1)
		}
		d.totalWeight += float64(len(chunk))

		if d.s.len() > d.maxSize {
			if err := d.compress(false, d.privateCompression); err != nil {
				return err
			}
		}
	}
	return nil
}

// Merge folds another digest's centroids into this one.
//
// Merging is how independently collected digests - say, one per node
// of a cluster - are combined into a single system-wide view. Merging
// a digest that tracks per-centroid sample logs into one that doesn't
// (or vice versa) is rejected, since the result could not honor both
// digests' logging contract.
func (d *Digest) Merge(other *Digest) error {
	if other == nil || other.s.len() == 0 {
		return nil
	}
	if d.logData != other.logData {
		return badInputf("cannot merge digests with mismatched sample-log tracking")
	}

	d.s.appendAll(other.s)
	d.totalWeight += other.totalWeight

	if d.s.len() > d.maxSize {
		return d.compress(false, d.privateCompression)
	}
	return nil
}

// Compress forces a full compaction pass at the digest's public
// compression value. Fit and Merge already trigger internal
// compactions as needed; calling Compress explicitly is mostly useful
// right before serializing a digest, since the wire formats assume a
// compacted centroid sequence.
func (d *Digest) Compress() error {
	return d.compress(true, d.publicCompression)
}

// queryCompress forces compaction at the tighter private compression
// level before a read - CDF and Quantile must operate on a sequence
// compacted to at least that precision regardless of how much pending
// data has accumulated since the last automatic compaction.
func (d *Digest) queryCompress() error {
	return d.compress(true, d.privateCompression)
}

// compress runs the greedy scale-function-bounded merge pass described
// by the digest's invariants. It alternates the direction it scans the
// centroid sequence in between calls (unless force is set, in which
// case it always scans ascending) to avoid a size bias that a
// fixed-direction merge would introduce when many samples share the
// same value.
//
// The merge works over the single backing array in place: the already
// established prefix (everything up to watermark from the previous
// pass) is reversed in place whenever this pass's direction differs
// from the previous one, so a stable sort preserves its established
// relative order instead of scrambling ties.
func (d *Digest) compress(force bool, level float64) error {
	m := d.s.len()
	if m < 2 {
		d.watermark = m
		return nil
	}

	ascending := force || d.mergeCount%2 == 0
	previousAscending := !d.isReversed
	if ascending != previousAscending {
		d.s.reversePrefix(d.watermark)
	}

	d.s.stableSort(!ascending)

	if ascending && !force && float64(d.s.len()) < level {
		d.watermark = d.s.len()
		d.isReversed = false
		d.mergeCount++
		return nil
	}

	if err := d.mergePass(level); err != nil {
		return err
	}

	d.watermark = d.s.len()
	d.mergeCount++
	d.isReversed = !ascending
	return nil
}

// mergePass performs the single greedy left-to-right scan that
// collapses the (now sorted) centroid sequence down to one honoring
// the scale function's per-centroid step bound, in place.
func (d *Digest) mergePass(level float64) error {
	m := d.s.len()
	total := d.totalWeight
	n := d.scale.normalizer(level, total)

	// The write cursor starts at slot 1, not slot 0: the first centroid
	// (slot 0) is never a merge target, so it structurally remains a
	// singleton regardless of what the scale function's boundary step
	// happens to allow. Slot 1 starts as a copy of the second original
	// centroid and is where merging actually begins.
	to := 1
	wSoFar := d.s.counts[0] + d.s.counts[1]
	k0 := d.scale.k(d.s.counts[0]/total, n)
	limitW := total * d.scale.q(k0+1, n)

	for from := 2; from < m; from++ {
		mean, count := d.s.means[from], d.s.counts[from]
		last := from == m-1

		if wSoFar+count > limitW || last {
			to++
			d.s.means[to] = mean
			d.s.counts[to] = count
			if d.s.logs != nil {
				d.s.logs[to] = d.s.logs[from]
			}
			k0 = d.scale.k(wSoFar/total, n)
			limitW = total * d.scale.q(k0+1, n)
			wSoFar += count
		} else {
			merged := mergeCentroids(Centroid{d.s.means[to], d.s.counts[to]}, Centroid{mean, count})
			d.s.means[to] = merged.Mean
			d.s.counts[to] = merged.Count
			if d.s.logs != nil {
				d.s.logs[to] = append(d.s.logs[to], d.s.logs[from]...)
			}
			wSoFar += count
		}

		if to > from {
			return invariantViolatedf("compression cursor invariant broken: from=%d to=%d", from, to)
		}
		if to < 1 {
			return invariantViolatedf("compression cursor invariant broken: write cursor reached slot 0 (from=%d to=%d)", from, to)
		}
	}

	newLen := to + 1
	d.s.truncate(newLen)

	if d.s.counts[0] != 1 {
		return invariantViolatedf("first centroid must remain a singleton after compression, got count=%v", d.s.counts[0])
	}
	if d.s.counts[newLen-1] != 1 {
		return invariantViolatedf("last centroid must remain a singleton after compression, got count=%v", d.s.counts[newLen-1])
	}
	return nil
}

// CDF estimates the fraction of recorded samples that are below x,
// counting samples equal to x as half.
func (d *Digest) CDF(x float64) (float64, error) {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0, badInputf("cdf: x must be finite, got %v", x)
	}
	if err := d.queryCompress(); err != nil {
		return 0, err
	}

	n := d.s.len()
	if n == 0 {
		return math.NaN(), nil
	}
	total := d.totalWeight

	if n == 1 {
		switch {
		case x < d.s.means[0]:
			return 0, nil
		case x > d.s.means[0]:
			return 1, nil
		default:
			return 0.5, nil
		}
	}

	min, max := d.s.means[0], d.s.means[n-1]
	switch {
	case x < min:
		return 0, nil
	case x > max:
		return 1, nil
	case x == min:
		sum := 0.0
		for i := 0; i < n && d.s.means[i] == x; i++ {
			sum += d.s.counts[i]
		}
		return sum / (2 * total), nil
	case x == max:
		return 1 - 0.5/total, nil
	}

	weightSoFar := 0.0
	for i := 0; i < n; i++ {
		if d.s.means[i] == x {
			runSum := 0.0
			for j := i; j < n && d.s.means[j] == x; j++ {
				runSum += d.s.counts[j]
			}
			return (weightSoFar + runSum/2) / total, nil
		}
		if i+1 < n && d.s.means[i] < x && x < d.s.means[i+1] {
			c1 := Centroid{d.s.means[i], d.s.counts[i]}
			c2 := Centroid{d.s.means[i+1], d.s.counts[i+1]}

			if c1.IsSingleton() && c2.IsSingleton() {
				return (weightSoFar + 1) / total, nil
			}

			leftExcluded, rightExcluded := 0.0, 0.0
			if c1.IsSingleton() {
				leftExcluded = 0.5
			}
			if c2.IsSingleton() {
				rightExcluded = 0.5
			}

			dw := (c1.Count + c2.Count) / 2
			dwNoSingleton := dw - leftExcluded - rightExcluded
			frac := (x - c1.Mean) / (c2.Mean - c1.Mean)
			return (weightSoFar + c1.Count/2 + leftExcluded + dwNoSingleton*frac) / total, nil
		}
		weightSoFar += d.s.counts[i]
	}

	// min < x < max was established above, so the loop always finds a
	// match or a bracketing pair before reaching here.
	return 1, nil
}

// Quantile estimates the value at which the given quantile (in [0,1])
// of recorded samples falls.
func (d *Digest) Quantile(q float64) (float64, error) {
	if math.IsNaN(q) || q < 0 || q > 1 {
		return 0, badInputf("quantile: q must be in [0,1], got %v", q)
	}
	if err := d.queryCompress(); err != nil {
		return 0, err
	}

	n := d.s.len()
	if n == 0 {
		return math.NaN(), nil
	}
	if n == 1 {
		return d.s.means[0], nil
	}

	total := d.totalWeight
	index := q * total
	if index < 1 {
		return d.s.means[0], nil
	}
	if index > total-1 {
		return d.s.means[n-1], nil
	}

	weightSoFar := d.s.counts[0] / 2
	for i := 0; i < n-1; i++ {
		dw := (d.s.counts[i] + d.s.counts[i+1]) / 2
		if weightSoFar+dw > index {
			c1 := Centroid{d.s.means[i], d.s.counts[i]}
			c2 := Centroid{d.s.means[i+1], d.s.counts[i+1]}

			leftUnit := 0.0
			if c1.IsSingleton() {
				if index-weightSoFar < 0.5 {
					return c1.Mean, nil
				}
				leftUnit = 0.5
			}
			rightUnit := 0.0
			if c2.IsSingleton() {
				if weightSoFar+dw-index <= 0.5 {
					return c2.Mean, nil
				}
				rightUnit = 0.5
			}

			z2 := weightSoFar + dw - index - rightUnit
			z1 := index - weightSoFar - leftUnit
			res := (c1.Mean*z2 + c2.Mean*z1) / (z1 + z2)

			lo, hi := c1.Mean, c2.Mean
			if lo > hi {
				lo, hi = hi, lo
			}
			if res < lo {
				res = lo
			}
			if res > hi {
				res = hi
			}
			return res, nil
		}
		weightSoFar += dw
	}

	return 0, invariantViolatedf("quantile: walk fell off the end of the centroid sequence")
}

// Min returns the smallest recorded sample, or NaN if the digest is
// empty.
func (d *Digest) Min() float64 {
	return d.extreme(func(a, b float64) bool { return b < a })
}

// Max returns the largest recorded sample, or NaN if the digest is
// empty.
func (d *Digest) Max() float64 {
	return d.extreme(func(a, b float64) bool { return b > a })
}

func (d *Digest) extreme(better func(current, candidate float64) bool) float64 {
	if d.s.len() == 0 {
		return math.NaN()
	}
	best := d.s.means[0]
	for _, m := range d.s.means[1:] {
		if better(best, m) {
			best = m
		}
	}
	return best
}

// Len returns the number of centroids currently stored. Until the next
// compaction this may include singletons that have not yet been
// folded into the compacted sequence.
func (d *Digest) Len() int {
	return d.s.len()
}

// CheckWeights verifies the digest's centroid invariants: the first
// and last centroid are singletons, the centroid weights sum to the
// total recorded weight, and no non-singleton centroid spans more than
// one scale-function step. It returns ErrInvariantViolated describing
// the first violation found, or nil if the digest is consistent.
//
// This is a diagnostic, not something normal use of the digest needs
// to call - it exists for tests and for debugging a digest that
// produces surprising quantiles.
func (d *Digest) CheckWeights() error {
	snap := d.s.clone()
	snap.stableSort(false)

	m := snap.len()
	if m == 0 {
		return nil
	}
	if snap.counts[0] != 1 {
		return invariantViolatedf("first centroid must be a singleton, got count=%v", snap.counts[0])
	}
	if snap.counts[m-1] != 1 {
		return invariantViolatedf("last centroid must be a singleton, got count=%v", snap.counts[m-1])
	}

	sum := floats.Sum(snap.counts)
	if math.Abs(sum-d.totalWeight) > 1e-6*math.Max(1, d.totalWeight) {
		return invariantViolatedf("centroid weights sum to %v, want %v", sum, d.totalWeight)
	}
	if m > d.maxSize {
		return invariantViolatedf("centroid count %d exceeds maxSize %d", m, d.maxSize)
	}

	n := d.scale.normalizer(d.publicCompression, d.totalWeight)
	cum := 0.0
	prevK := d.scale.k(0, n)
	for i := 0; i < m; i++ {
		cum += snap.counts[i]
		qi := cum / d.totalWeight
		ki := d.scale.k(qi, n)
		if snap.counts[i] > 1 && ki-prevK > 1+1e-9 {
			return invariantViolatedf("centroid %d spans k-step %.6f, exceeding 1", i, ki-prevK)
		}
		prevK = ki
	}
	return nil
}
