package tdigest

import "math"

// Scale identifies which k-scale function a Digest uses to bound how
// much mass a centroid may absorb as a function of its position in
// the distribution. The default, and the one recommended for general
// use, is ScaleK3.
type Scale int

const (
	// ScaleK0 gives every centroid the same target size regardless of
	// quantile. It exists for diagnostics and comparison only - it has
	// no tail-accuracy advantage over a plain histogram.
	ScaleK0 Scale = iota
	// ScaleK1 makes cluster size proportional to sqrt(q(1-q)).
	ScaleK1
	// ScaleK2 makes cluster size proportional to q(1-q), bounding the
	// total centroid count independently of the number of samples n.
	ScaleK2
	// ScaleK3 makes cluster size proportional to min(q, 1-q), giving a
	// tighter tail bound than K2. This is the default scale.
	ScaleK3
)

const smallest = 1e-15

// limit clamps q into [smallest, 1-smallest] before handing it to f.
// This keeps every scale function's k() finite and defends the
// boundaries the spec calls out explicitly.
func limit(q float64) float64 {
	if q < smallest {
		return smallest
	}
	if q > 1-smallest {
		return 1 - smallest
	}
	return q
}

// normalizer precomputes the constant N such that k(q, delta, n) =
// N*f(q) + c, so that repeated evaluations of k during a single
// compression pass are cheap.
func (s Scale) normalizer(delta, n float64) float64 {
	switch s {
	case ScaleK0:
		return delta / n
	case ScaleK1:
		return delta / (2 * math.Pi)
	case ScaleK2:
		return delta / z24(delta, n)
	case ScaleK3:
		return delta / z21(delta, n)
	default:
		return delta / z21(delta, n)
	}
}

func z24(delta, n float64) float64 {
	return 4*math.Log(n/delta) + 24
}

func z21(delta, n float64) float64 {
	return 4*math.Log(n/delta) + 21
}

// k maps a quantile q in [0,1] to the scale coordinate, using the
// already-computed normalizer N.
func (s Scale) k(q, normalizer float64) float64 {
	switch s {
	case ScaleK0:
		return limit(q) / normalizer
	case ScaleK1:
		lq := limit(q)
		return normalizer * math.Asin(2*lq-1)
	case ScaleK2:
		return s.k2(q, normalizer)
	case ScaleK3:
		return s.k3(q, normalizer)
	default:
		return s.k3(q, normalizer)
	}
}

// k2 mirrors the doubling-at-the-boundary defense of the reference
// K2 scale function: right at the clamp boundary, returning 2x the
// boundary's own k value keeps the function's inverse from flattening
// out exactly where tail accuracy matters most.
func (s Scale) k2(q, normalizer float64) float64 {
	if q < smallest {
		return 2 * s.k2(smallest, normalizer)
	}
	if q > 1-smallest {
		return 2 * s.k2(1-smallest, normalizer)
	}
	return math.Log(q/(1-q)) * normalizer
}

// k3 mirrors the reference K3 scale function's own boundary defense
// (a 10x push instead of K2's 2x, since K3's tail falls off faster).
func (s Scale) k3(q, normalizer float64) float64 {
	if q < smallest {
		return 10 * s.k3(smallest, normalizer)
	}
	if q > 1-smallest {
		return 10 * s.k3(1-smallest, normalizer)
	}
	if q <= 0.5 {
		return math.Log(2*q) * normalizer
	}
	return -s.k3(1-q, normalizer)
}

// q is the inverse of k: given a scale coordinate, recover the
// quantile it corresponds to.
func (s Scale) q(k, normalizer float64) float64 {
	switch s {
	case ScaleK0:
		return limit(k * normalizer)
	case ScaleK1:
		return limit((math.Sin(k/normalizer) + 1) / 2)
	case ScaleK2:
		w := math.Exp(k / normalizer)
		return limit(w / (1 + w))
	case ScaleK3:
		return limit(s.q3(k, normalizer))
	default:
		return limit(s.q3(k, normalizer))
	}
}

func (s Scale) q3(k, normalizer float64) float64 {
	if k <= 0 {
		return math.Exp(k/normalizer) / 2
	}
	return 1 - s.q3(-k, normalizer)
}

// maxStep returns the largest delta-q such that a centroid centered
// at q may consume while keeping k(q+delta-q) - k(q) <= 1. It is
// obtained by inverting k at k(q)+1 and clamping to [0,1].
func (s Scale) maxStep(q, normalizer float64) float64 {
	q = limit(q)
	step := s.q(s.k(q, normalizer)+1, normalizer) - q
	if step < 0 {
		return 0
	}
	if step > 1-q {
		return 1 - q
	}
	return step
}

// kDelta, qDelta are the 3-argument (delta, n) convenience forms used
// by callers that have not already computed a normalizer.
func (s Scale) kDelta(q, delta, n float64) float64 {
	return s.k(q, s.normalizer(delta, n))
}

func (s Scale) qDelta(k, delta, n float64) float64 {
	return s.q(k, s.normalizer(delta, n))
}

func (s Scale) maxStepDelta(q, delta, n float64) float64 {
	return s.maxStep(q, s.normalizer(delta, n))
}
