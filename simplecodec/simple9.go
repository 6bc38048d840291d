package simplecodec

// Simple9 packs a stream of small non-negative integers (each fitting
// in 28 bits) into 32-bit words, four bits of which are a size code
// naming how the other 28 are split.
type Simple9 struct {
	c *core
}

// NewSimple9 creates an empty Simple9 encoder.
func NewSimple9() *Simple9 {
	return &Simple9{c: newCore(32, simple9Table)}
}

// Add buffers v, returning any word(s) it completed as a result. Most
// calls complete zero words; an occasional call completes one.
func (e *Simple9) Add(v uint32) ([]uint32, error) {
	word, ok, err := e.c.add(uint64(v))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return []uint32{uint32(word)}, nil
}

// Flush forces out every remaining buffered value, zero-padded to
// fill its final word(s).
func (e *Simple9) Flush() []uint32 {
	words := e.c.flush()
	out := make([]uint32, len(words))
	for i, w := range words {
		out[i] = uint32(w)
	}
	return out
}

// DecodeSimple9 expands a sequence of Simple9 words back into the
// integers packed into them, including any zero padding Flush added.
func DecodeSimple9(words []uint32) []uint32 {
	in := make([]uint64, len(words))
	for i, w := range words {
		in[i] = uint64(w)
	}
	out := newCore(32, simple9Table).decode(in)
	res := make([]uint32, len(out))
	for i, v := range out {
		res[i] = uint32(v)
	}
	return res
}
