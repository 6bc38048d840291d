package tdigest

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	rng "github.com/leesper/go_rng"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
)

func refCDF(xs []float64, x float64) float64 {
	lt, eq := 0, 0
	for _, v := range xs {
		if v < x {
			lt++
		} else if v == x {
			eq++
		}
	}
	return (float64(lt) + float64(eq)/2) / float64(len(xs))
}

// refQuantile is the sample quantile gonum's stat.Quantile computes
// under linear interpolation between closest ranks - the same
// definition the digest's own Quantile approximates.
func refQuantile(xs []float64, q float64) float64 {
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	if len(sorted) == 1 {
		return sorted[0]
	}
	return stat.Quantile(q, stat.LinInterp, sorted, nil)
}

// uniformStream draws n samples in [0,1) using go_rng's uniform
// generator rather than math/rand, matching the generator the
// property tests of the invariant-preservation and merge-envelope
// scenarios are specified against.
func uniformStream(seed int64, n int) []float64 {
	gen := rng.NewUniformGenerator(seed)
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = gen.Float64Range(0, 1)
	}
	return xs
}

// gaussianStream draws n samples from a Gaussian(mean, stdDev) using
// go_rng's Gaussian generator.
func gaussianStream(seed int64, n int, mean, stdDev float64) []float64 {
	gen := rng.NewGaussianGenerator(seed)
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = gen.Gaussian(mean, stdDev)
	}
	return xs
}

func TestNewRejectsBadCompression(t *testing.T) {
	_, err := New(0)
	require.ErrorIs(t, err, ErrBadInput)

	_, err = New(math.NaN())
	require.ErrorIs(t, err, ErrBadInput)
}

func TestNewClampsSmallCompression(t *testing.T) {
	d, err := New(1)
	require.NoError(t, err)
	require.NoError(t, d.Fit(1))
}

func TestFitRejectsNaN(t *testing.T) {
	d, err := New(100)
	require.NoError(t, err)
	require.ErrorIs(t, d.Fit(math.NaN()), ErrBadInput)
}

func TestFitSliceIsAllOrNothing(t *testing.T) {
	d, err := New(100)
	require.NoError(t, err)
	require.NoError(t, d.Fit(1))

	err = d.FitSlice([]float64{2, 3, math.NaN(), 4})
	require.ErrorIs(t, err, ErrBadInput)
	require.Equal(t, 1, d.Len())
}

func TestMergeRejectsMismatchedSampleLogSetting(t *testing.T) {
	a, _ := New(100)
	b, _ := New(100, WithSampleLog())
	require.NoError(t, b.Fit(1))
	require.ErrorIs(t, a.Merge(b), ErrBadInput)
}

func TestMergeOfNilOrEmptyIsNoOp(t *testing.T) {
	a, _ := New(100)
	require.NoError(t, a.Fit(1))
	require.NoError(t, a.Merge(nil))

	empty, _ := New(100)
	require.NoError(t, a.Merge(empty))
	require.Equal(t, 1, a.Len())
}

func TestFourPointDataset(t *testing.T) {
	d, err := New(100)
	require.NoError(t, err)
	data := []float64{1, 2, 3, 5}
	require.NoError(t, d.FitSlice(data))

	cdf0, err := d.CDF(0)
	require.NoError(t, err)
	require.Equal(t, 0.0, cdf0)

	cdf10, err := d.CDF(10)
	require.NoError(t, err)
	require.Equal(t, 1.0, cdf10)

	q0, err := d.Quantile(0.0)
	require.NoError(t, err)
	require.Equal(t, 1.0, q0)

	q1, err := d.Quantile(1.0)
	require.NoError(t, err)
	require.Equal(t, 5.0, q1)

	for _, v := range data {
		for _, probe := range []float64{math.Nextafter(v, math.Inf(-1)), v, math.Nextafter(v, math.Inf(1))} {
			got, err := d.CDF(probe)
			require.NoError(t, err)
			want := refCDF(data, probe)
			require.InDelta(t, want, got, 1e-9, "probe=%v", probe)
		}
	}
}

func TestTwentySingletons(t *testing.T) {
	d, err := New(100)
	require.NoError(t, err)

	data := make([]float64, 20)
	for i := range data {
		data[i] = float64(i)
	}
	require.NoError(t, d.FitSlice(data))
	require.NoError(t, d.Compress())
	require.Equal(t, 20, d.Len())

	min, max := data[0], data[len(data)-1]
	const steps = 20000
	for i := 0; i <= steps; i++ {
		x := (min - 0.1) + (max-min+0.2)*float64(i)/steps
		got, err := d.CDF(x)
		require.NoError(t, err)
		want := refCDF(data, x)
		require.InDelta(t, want, got, 1e-9, "x=%v", x)
	}
}

func TestThreePointFractions(t *testing.T) {
	d, err := New(100)
	require.NoError(t, err)
	require.NoError(t, d.Fit(1))
	require.NoError(t, d.Fit(2))
	require.NoError(t, d.Fit(3))

	cases := []struct {
		x    float64
		want float64
	}{
		{1, 1.0 / 6},
		{math.Nextafter(1, math.Inf(1)), 1.0 / 3},
		{2, 1.0 / 2},
		{math.Nextafter(2, math.Inf(1)), 2.0 / 3},
		{3, 5.0 / 6},
		{math.Nextafter(3, math.Inf(1)), 1.0},
	}
	for _, c := range cases {
		got, err := d.CDF(c.x)
		require.NoError(t, err)
		require.InDelta(t, c.want, got, 1e-9, "x=%v", c.x)
	}
}

func TestBoundaryEndpoints(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	for _, n := range []int{1, 10, 100, 1000} {
		d, err := New(100)
		require.NoError(t, err)
		xs := make([]float64, n)
		for i := range xs {
			xs[i] = r.Float64() * 1000
			require.NoError(t, d.Fit(xs[i]))
		}
		require.NoError(t, d.Compress())

		min := d.Min()
		max := d.Max()

		cdfMin, err := d.CDF(min)
		require.NoError(t, err)
		require.InDelta(t, 0.5/float64(n), cdfMin, 1e-9)

		cdfBelow, err := d.CDF(min - 1)
		require.NoError(t, err)
		require.Equal(t, 0.0, cdfBelow)

		cdfMax, err := d.CDF(max)
		require.NoError(t, err)
		require.InDelta(t, 1-0.5/float64(n), cdfMax, 1e-9)

		cdfAbove, err := d.CDF(max + 1)
		require.NoError(t, err)
		require.Equal(t, 1.0, cdfAbove)

		qMin, err := d.Quantile(0)
		require.NoError(t, err)
		require.Equal(t, min, qMin)

		qMax, err := d.Quantile(1)
		require.NoError(t, err)
		require.Equal(t, max, qMax)
	}
}

func TestSingletonsOnlyMatchReferenceExactly(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	const delta = 100
	xs := make([]float64, 50)
	for i := range xs {
		xs[i] = r.Float64() * 100
	}

	d, err := New(delta)
	require.NoError(t, err)
	require.NoError(t, d.FitSlice(xs))
	require.NoError(t, d.Compress())
	require.Equal(t, len(xs), d.Len())

	probes := append([]float64{}, xs...)
	for _, v := range xs {
		probes = append(probes, math.Nextafter(v, math.Inf(-1)), math.Nextafter(v, math.Inf(1)))
	}
	for _, x := range probes {
		got, err := d.CDF(x)
		require.NoError(t, err)
		want := refCDF(xs, x)
		require.InDelta(t, want, got, 1e-9, "x=%v", x)
	}

	for _, q := range []float64{0, 0.1, 0.25, 0.5, 0.75, 0.9, 1} {
		got, err := d.Quantile(q)
		require.NoError(t, err)
		want := refQuantile(xs, q)
		require.InDelta(t, want, got, 1e-9, "q=%v", q)
	}
}

func TestInvariantPreservationAcrossScalesAndSizes(t *testing.T) {
	scales := []Scale{ScaleK1, ScaleK2, ScaleK3}
	sizes := []int{1, 10, 100, 1000, 1000000}

	for _, s := range scales {
		for _, n := range sizes {
			r := rand.New(rand.NewSource(int64(n*7 + int(s))))
			d, err := New(100, WithScale(s))
			require.NoError(t, err)

			const chunk = 10000
			remaining := n
			for remaining > 0 {
				c := chunk
				if c > remaining {
					c = remaining
				}
				xs := make([]float64, c)
				for i := range xs {
					xs[i] = r.Float64()
				}
				require.NoError(t, d.FitSlice(xs))
				remaining -= c
			}

			require.NoError(t, d.Compress())
			require.NoError(t, d.CheckWeights(), "scale=%v n=%v", s, n)
		}
	}
}

func TestInvariantPreservationAfterPairwiseMerge(t *testing.T) {
	scales := []Scale{ScaleK1, ScaleK2, ScaleK3}
	for _, s := range scales {
		r := rand.New(rand.NewSource(int64(s) + 1))
		a, err := New(100, WithScale(s))
		require.NoError(t, err)
		b, err := New(100, WithScale(s))
		require.NoError(t, err)

		for i := 0; i < 5000; i++ {
			require.NoError(t, a.Fit(r.Float64()))
		}
		for i := 0; i < 5000; i++ {
			require.NoError(t, b.Fit(r.Float64()))
		}

		require.NoError(t, a.Merge(b))
		require.NoError(t, a.Compress())
		require.NoError(t, a.CheckWeights(), "scale=%v", s)
	}
}

func TestRepeatedValueStress(t *testing.T) {
	base := []float64{1, 2, 2, 2, 2, 2, 3, 3, 3, 3, 3, 4, 5, 6, 7}
	var xs []float64
	for i := 0; i < 100; i++ {
		xs = append(xs, base...)
	}

	d, err := New(100)
	require.NoError(t, err)
	require.NoError(t, d.FitSlice(xs))
	require.NoError(t, d.Compress())

	median, err := d.Quantile(0.5)
	require.NoError(t, err)
	trueMedian := refQuantile(xs, 0.5)
	require.InDelta(t, trueMedian, median, 0.2)

	fresh, err := New(100)
	require.NoError(t, err)
	require.NoError(t, fresh.Merge(d))
	require.NoError(t, fresh.Compress())

	roundTripped, err := fresh.Quantile(0.5)
	require.NoError(t, err)
	require.InDelta(t, median, roundTripped, 0.01)
}

func TestIssue114Stress(t *testing.T) {
	var xs []float64
	for i := 0; i < 2; i++ {
		xs = append(xs, 9000)
	}
	for i := 0; i < 11; i++ {
		xs = append(xs, 3000)
	}
	for i := 0; i < 26; i++ {
		xs = append(xs, 1000)
	}

	d, err := New(100)
	require.NoError(t, err)
	require.NoError(t, d.FitSlice(xs))
	require.NoError(t, d.Compress())
	require.Equal(t, len(xs), d.Len())

	for _, q := range []float64{0.9, 0.95} {
		got, err := d.Quantile(q)
		require.NoError(t, err)
		want := refQuantile(xs, q)
		require.InDelta(t, want, got, 1e-9, "q=%v", q)
	}
}

func TestMergedUniformDigestsStayWithinEnvelope(t *testing.T) {
	a, err := New(100, WithScale(ScaleK3))
	require.NoError(t, err)
	b, err := New(100, WithScale(ScaleK3))
	require.NoError(t, err)

	const n = 1000000
	xs := uniformStream(99, n)
	require.NoError(t, a.FitSlice(xs[:n/2]))
	require.NoError(t, b.FitSlice(xs[n/2:]))

	require.NoError(t, a.Merge(b))
	require.NoError(t, a.Compress())
	require.NoError(t, a.CheckWeights())

	for _, q := range []float64{0.001, 0.01, 0.1, 0.5, 0.9, 0.99, 0.999} {
		got, err := a.CDF(q)
		require.NoError(t, err)
		require.InDelta(t, q, got, 0.005, "q=%v", q)
	}
}

func TestMinMaxOnEmptyDigestIsNaN(t *testing.T) {
	d, err := New(100)
	require.NoError(t, err)
	require.True(t, math.IsNaN(d.Min()))
	require.True(t, math.IsNaN(d.Max()))
}

func TestCDFRejectsNonFiniteInput(t *testing.T) {
	d, err := New(100)
	require.NoError(t, err)
	require.NoError(t, d.Fit(1))

	_, err = d.CDF(math.NaN())
	require.ErrorIs(t, err, ErrBadInput)
	_, err = d.CDF(math.Inf(1))
	require.ErrorIs(t, err, ErrBadInput)
}

// TestInvariantPreservationOnGaussianStream exercises the property of
// spec.md's §8 item 2 against a non-uniform input distribution: a
// digest fed a Gaussian stream, in chunks, still satisfies every
// centroid invariant after compression.
func TestInvariantPreservationOnGaussianStream(t *testing.T) {
	d, err := New(100, WithScale(ScaleK3))
	require.NoError(t, err)

	const n = 200000
	xs := gaussianStream(7, n, 0, 1)
	require.NoError(t, d.FitSlice(xs))
	require.NoError(t, d.Compress())
	require.NoError(t, d.CheckWeights())

	median, err := d.Quantile(0.5)
	require.NoError(t, err)
	require.InDelta(t, 0, median, 0.05)
}

func TestQuantileRejectsOutOfRangeInput(t *testing.T) {
	d, err := New(100)
	require.NoError(t, err)
	require.NoError(t, d.Fit(1))

	_, err = d.Quantile(-0.1)
	require.ErrorIs(t, err, ErrBadInput)
	_, err = d.Quantile(1.1)
	require.ErrorIs(t, err, ErrBadInput)
}
