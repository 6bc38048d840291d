package tdigest

import (
	"bytes"
	"encoding/binary"
	"io"
)

// Wire encoding tags. Both formats lead with one of these so FromBytes
// can dispatch without the caller having to remember which form a
// given blob was written in.
const (
	encodingVerbose uint32 = 1
	encodingSmall   uint32 = 2
)

var byteOrder = binary.BigEndian

// ByteSize reports how many bytes AsBytes would produce for the
// centroid sequence as it stands right now. Since AsBytes forces a
// compaction before writing, call Compress first if an exact
// prediction of the next AsBytes call's size is needed.
func (d *Digest) ByteSize() int {
	return verboseSize(d.s.len())
}

// SmallByteSize reports how many bytes AsSmallBytes would produce for
// the centroid sequence as it stands right now. See ByteSize.
func (d *Digest) SmallByteSize() int {
	return smallSize(d.s.len())
}

func verboseSize(m int) int {
	return 32 + 16*middleCentroids(m)
}

func smallSize(m int) int {
	return 30 + 8*middleCentroids(m)
}

func middleCentroids(m int) int {
	if m <= 2 {
		return 0
	}
	return m - 2
}

// AsBytes serializes the digest in the verbose (full float64 precision)
// wire format: a header naming the digest's min, max and public
// compression, followed by every centroid except the first and last -
// those are reconstructed on read as singletons at min and max, since
// singleton discipline guarantees they always are.
//
// AsBytes forces a public compaction first.
func (d *Digest) AsBytes() ([]byte, error) {
	if err := d.Compress(); err != nil {
		return nil, err
	}

	m := d.s.len()
	buf := new(bytes.Buffer)
	buf.Grow(verboseSize(m))

	var min, max float64
	if m > 0 {
		min, max = d.s.means[0], d.s.means[m-1]
	}

	_ = binary.Write(buf, byteOrder, encodingVerbose)
	_ = binary.Write(buf, byteOrder, min)
	_ = binary.Write(buf, byteOrder, max)
	_ = binary.Write(buf, byteOrder, d.publicCompression)
	_ = binary.Write(buf, byteOrder, uint32(m))

	for i := 1; i < m-1; i++ {
		_ = binary.Write(buf, byteOrder, d.s.counts[i])
		_ = binary.Write(buf, byteOrder, d.s.means[i])
	}

	return buf.Bytes(), nil
}

// AsSmallBytes serializes the digest in the small (float32) wire
// format, trading precision for roughly half the size of AsBytes. It
// also records the backing array's current capacities, mostly as a
// debugging aid for callers inspecting a dump.
//
// AsSmallBytes forces a public compaction first.
func (d *Digest) AsSmallBytes() ([]byte, error) {
	if err := d.Compress(); err != nil {
		return nil, err
	}

	m := d.s.len()
	buf := new(bytes.Buffer)
	buf.Grow(smallSize(m))

	var min, max float64
	if m > 0 {
		min, max = d.s.means[0], d.s.means[m-1]
	}

	_ = binary.Write(buf, byteOrder, encodingSmall)
	_ = binary.Write(buf, byteOrder, min)
	_ = binary.Write(buf, byteOrder, max)
	_ = binary.Write(buf, byteOrder, float32(d.publicCompression))
	_ = binary.Write(buf, byteOrder, int16(cap(d.s.means)))
	_ = binary.Write(buf, byteOrder, int16(cap(d.s.counts)))
	_ = binary.Write(buf, byteOrder, int16(m))

	for i := 1; i < m-1; i++ {
		_ = binary.Write(buf, byteOrder, float32(d.s.counts[i]))
		_ = binary.Write(buf, byteOrder, float32(d.s.means[i]))
	}

	return buf.Bytes(), nil
}

// FromBytes reconstructs a Digest from a blob produced by AsBytes or
// AsSmallBytes, dispatching on the leading encoding tag. It returns
// ErrBadFormat for any other tag.
func FromBytes(r io.Reader) (*Digest, error) {
	var tag uint32
	if err := binary.Read(r, byteOrder, &tag); err != nil {
		return nil, err
	}

	switch tag {
	case encodingVerbose:
		return fromVerboseBytes(r)
	case encodingSmall:
		return fromSmallBytes(r)
	default:
		return nil, badFormatf("unrecognized encoding tag %d", tag)
	}
}

func fromVerboseBytes(r io.Reader) (*Digest, error) {
	var min, max, compression float64
	var m uint32

	for _, field := range []interface{}{&min, &max, &compression, &m} {
		if err := binary.Read(r, byteOrder, field); err != nil {
			return nil, err
		}
	}

	means := make([]float64, 0, m)
	counts := make([]float64, 0, m)
	if m > 0 {
		means = append(means, min)
		counts = append(counts, 1)
	}
	for i := 0; i < int(m)-2; i++ {
		var count, mean float64
		if err := binary.Read(r, byteOrder, &count); err != nil {
			return nil, err
		}
		if err := binary.Read(r, byteOrder, &mean); err != nil {
			return nil, err
		}
		means = append(means, mean)
		counts = append(counts, count)
	}
	if m > 1 {
		means = append(means, max)
		counts = append(counts, 1)
	}

	return digestFromCentroids(compression, means, counts)
}

func fromSmallBytes(r io.Reader) (*Digest, error) {
	var min, max float64
	var compression float32
	var meanCap, countCap, m int16

	if err := binary.Read(r, byteOrder, &min); err != nil {
		return nil, err
	}
	if err := binary.Read(r, byteOrder, &max); err != nil {
		return nil, err
	}
	if err := binary.Read(r, byteOrder, &compression); err != nil {
		return nil, err
	}
	if err := binary.Read(r, byteOrder, &meanCap); err != nil {
		return nil, err
	}
	if err := binary.Read(r, byteOrder, &countCap); err != nil {
		return nil, err
	}
	if err := binary.Read(r, byteOrder, &m); err != nil {
		return nil, err
	}

	means := make([]float64, 0, m)
	counts := make([]float64, 0, m)
	if m > 0 {
		means = append(means, min)
		counts = append(counts, 1)
	}
	for i := 0; i < int(m)-2; i++ {
		var count, mean float32
		if err := binary.Read(r, byteOrder, &count); err != nil {
			return nil, err
		}
		if err := binary.Read(r, byteOrder, &mean); err != nil {
			return nil, err
		}
		means = append(means, float64(mean))
		counts = append(counts, float64(count))
	}
	if m > 1 {
		means = append(means, max)
		counts = append(counts, 1)
	}

	return digestFromCentroids(float64(compression), means, counts)
}

func digestFromCentroids(compression float64, means, counts []float64) (*Digest, error) {
	d, err := New(compression)
	if err != nil {
		return nil, err
	}
	d.s.means = means
	d.s.counts = counts
	d.watermark = len(means)

	total := 0.0
	for _, c := range counts {
		total += c
	}
	d.totalWeight = total

	return d, nil
}
