package simplecodec

// Simple16 packs a stream of small non-negative integers (each
// fitting in 60 bits) into 64-bit words, four bits of which are a size
// code naming how the other 60 are split. Despite the name this is not
// the classic Simple16 scheme (whose selector encodes up to 16
// differently-shaped rows); it is the 64-bit counterpart of Simple9
// using the wider size-code table.
type Simple16 struct {
	c *core
}

// NewSimple16 creates an empty Simple16 encoder.
func NewSimple16() *Simple16 {
	return &Simple16{c: newCore(64, simple16Table)}
}

// Add buffers v, returning any word it completed as a result.
func (e *Simple16) Add(v uint64) ([]uint64, error) {
	word, ok, err := e.c.add(v)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return []uint64{word}, nil
}

// Flush forces out every remaining buffered value, zero-padded to
// fill its final word(s).
func (e *Simple16) Flush() []uint64 {
	return e.c.flush()
}

// DecodeSimple16 expands a sequence of Simple16 words back into the
// integers packed into them, including any zero padding Flush added.
func DecodeSimple16(words []uint64) []uint64 {
	return newCore(64, simple16Table).decode(words)
}
