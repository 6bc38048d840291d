package tdigest

import "sort"

// summary is the ordered centroid sequence backing a Digest: a single
// growable array holding both freshly appended singleton samples and
// previously compressed centroids, interleaved. Compression works in
// place over this one array rather than copying into a second one, so
// the digest's steady-state footprint never exceeds maxSize centroids
// plus whatever has been appended since the last compaction.
type summary struct {
	means  []float64
	counts []float64

	// logs holds, for each centroid, the raw samples that were folded
	// into it. It is nil unless sample-log tracking is enabled (it
	// exists purely for debugging and defaults to off - see
	// Digest.logData). When present it is always kept the same length
	// and in the same order as means/counts, including across sorts
	// and merges.
	logs [][]float64
}

func newSummaryWithCapacity(capacity int) *summary {
	return &summary{
		means:  make([]float64, 0, capacity),
		counts: make([]float64, 0, capacity),
	}
}

func (s *summary) len() int {
	return len(s.means)
}

func (s *summary) appendCentroid(mean, count float64) {
	s.means = append(s.means, mean)
	s.counts = append(s.counts, count)
	if s.logs != nil {
		s.logs = append(s.logs, []float64{mean})
	}
}

// appendAll copies every centroid of other onto the end of s. Used by
// Merge to append another digest's centroids.
func (s *summary) appendAll(other *summary) {
	s.means = append(s.means, other.means...)
	s.counts = append(s.counts, other.counts...)
	if s.logs != nil || other.logs != nil {
		s.ensureLogs()
		for i := range other.means {
			if other.logs != nil {
				s.logs = append(s.logs, other.logs[i])
			} else {
				s.logs = append(s.logs, []float64{other.means[i]})
			}
		}
	}
}

func (s *summary) ensureLogs() {
	if s.logs != nil {
		return
	}
	s.logs = make([][]float64, len(s.means))
	for i, m := range s.means {
		s.logs[i] = []float64{m}
	}
}

func (s *summary) truncate(n int) {
	s.means = s.means[:n]
	s.counts = s.counts[:n]
	if s.logs != nil {
		s.logs = s.logs[:n]
	}
}

func (s *summary) clone() *summary {
	out := &summary{
		means:  append([]float64(nil), s.means...),
		counts: append([]float64(nil), s.counts...),
	}
	if s.logs != nil {
		out.logs = make([][]float64, len(s.logs))
		for i, l := range s.logs {
			out.logs[i] = append([]float64(nil), l...)
		}
	}
	return out
}

// reversePrefix reverses the first n elements of s in place. Used to
// keep the watermark prefix in a logically consistent order when the
// compression pass alternates sort direction.
func (s *summary) reversePrefix(n int) {
	for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
		s.means[i], s.means[j] = s.means[j], s.means[i]
		s.counts[i], s.counts[j] = s.counts[j], s.counts[i]
		if s.logs != nil {
			s.logs[i], s.logs[j] = s.logs[j], s.logs[i]
		}
	}
}

// sortableSummary adapts summary to sort.Interface with a selectable
// direction, so that a single stable sort call can run either way.
// Swapping logs alongside means/counts is how a sample log - if
// enabled - ends up permuted exactly in step with the centroid array,
// per the spec's requirement that any reordering apply identically to
// both.
type sortableSummary struct {
	s          *summary
	descending bool
}

func (a sortableSummary) Len() int { return a.s.len() }
func (a sortableSummary) Less(i, j int) bool {
	if a.descending {
		return a.s.means[i] > a.s.means[j]
	}
	return a.s.means[i] < a.s.means[j]
}
func (a sortableSummary) Swap(i, j int) {
	a.s.means[i], a.s.means[j] = a.s.means[j], a.s.means[i]
	a.s.counts[i], a.s.counts[j] = a.s.counts[j], a.s.counts[i]
	if a.s.logs != nil {
		a.s.logs[i], a.s.logs[j] = a.s.logs[j], a.s.logs[i]
	}
}

// stableSort orders s by mean, ascending unless descending is set.
// sort.Stable is load-bearing: with many repeated means a non-stable
// sort would reshuffle which centroid absorbs the duplicates on every
// pass, and that's exactly the oscillation the alternating-direction
// trick (see Digest.compress) is designed to prevent.
func (s *summary) stableSort(descending bool) {
	sort.Stable(sortableSummary{s: s, descending: descending})
}
