// Package tdigest provides a highly accurate mergeable data structure
// for streaming quantile estimation: a t-digest biased toward tail
// accuracy.
//
// A t-digest ingests real-valued samples one at a time or in bulk and,
// at any moment, approximates the empirical CDF and its inverse (the
// quantile function). Unlike a uniform histogram, centroid size is
// allowed to vary with quantile position: centroids near the median
// are allowed to absorb many samples while centroids near the tails
// stay small, so the absolute error at q=0.001 or q=0.999 is much
// smaller than the error at q=0.5 for the same memory budget.
//
// Typical use cases involve accumulating metrics on several distinct
// nodes of a cluster and then merging them together to get a
// system-wide quantile overview: sensor data from IoT devices,
// quantiles over enormous document datasets, latency percentiles for
// distributed systems, and so on.
//
// After you create (and configure, if desired) the digest:
//
//	digest, err := tdigest.New(100)
//
// you can feed it samples:
//
//	err := digest.Fit(value)
//
// estimate quantiles:
//
//	q, err := digest.Quantile(0.99)
//
// or merge it with another digest gathered elsewhere:
//
//	err := digest.Merge(otherDigest)
//
// The package also exposes two auxiliary, independently useful pieces:
// a fixed-bin log-scale histogram (subpackage loghist) for cheap
// distribution summaries at a fixed relative precision, and a
// variable-bit integer codec (subpackage simplecodec) that can pack
// sequences of small counts, such as that histogram's bin counts,
// densely. The two subpackages do not call each other.
package tdigest
