package loghist

import "math"

// approxLog2 is a fast approximation of log2(v) for v > 0, accurate to
// within 0.01 and exact at every power of two. It works by
// splitting v's IEEE-754 bit pattern into its exponent and a rebuilt
// mantissa m in [1,2), then evaluating a quadratic fit of log2(m) on
// that range.
//
// The exponent offset below (1024, not the usual 1023 double bias) is
// not a typo: at m=1 the quadratic term minus the 2.0/3.0 constant is
// exactly 1, and the offset's extra -1 cancels it, which is what makes
// the result exact at powers of two. Bucket boundaries are defined as the exact
// inverse of this function (see pow2), not of the true log2, so any
// deviation here shifts bucket edges rather than just adding noise.
func approxLog2(v float64) float64 {
	bits := math.Float64bits(v)

	e := int64((bits>>52)&0x7ff) - 1024

	mantissaBits := (bits &^ (uint64(0x7ff) << 52)) | (uint64(1023) << 52)
	m := math.Float64frombits(mantissaBits)

	return m*(2-m/3) + float64(e) - 2.0/3.0
}

// pow2 is the exact inverse of approxLog2, to within 1e-13 absolute
// error for x in (0.001, 100).
func pow2(x float64) float64 {
	e := math.Floor(x) - 1
	xp := x - e
	m := 3 - math.Sqrt(7-3*xp)
	return math.Ldexp(m, int(e)+1)
}
