package fitstream

import "io"

// CachedDecoder decorates a Decoder so every message it yields is retained,
// letting a caller replay the stream without re-parsing (spec.md §4.10).
// Modeled on the small wrapper-struct idiom the teacher uses for
// canboat.Decoder wrapping a CanboatSchema, rather than on any streaming
// cache the teacher itself implements.
type CachedDecoder struct {
	d       *Decoder
	cache   []DataMessage
	drained bool
}

// Next returns the next message, pulling a fresh one from the underlying
// Decoder and appending it to the cache. Once the stream is exhausted it
// keeps returning io.EOF.
func (c *CachedDecoder) Next() (DataMessage, error) {
	if c.drained {
		return DataMessage{}, io.EOF
	}
	msg, err := c.d.Next()
	if err != nil {
		c.drained = true
		return DataMessage{}, err
	}
	c.cache = append(c.cache, msg)
	return msg, nil
}

// Messages drains the remainder of the stream and returns every message
// seen so far, in order.
func (c *CachedDecoder) Messages() []DataMessage {
	for !c.drained {
		if _, err := c.Next(); err != nil {
			break
		}
	}
	return c.cache
}
