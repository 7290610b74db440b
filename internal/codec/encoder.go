package codec

import (
	"math"
	"unicode/utf8"

	"google.golang.org/protobuf/encoding/protowire"
)

// Encoder appends canonical encodings to an in-memory buffer.
//
// Encoder carries a sticky error: after the first failure every write is a
// no-op and Bytes returns that error. Callers compose writes freely and check
// once at the end.
type Encoder struct {
	buf []byte
	err error
}

// NewEncoder creates an empty encoder.
func NewEncoder() *Encoder {
	return &Encoder{buf: make([]byte, 0, 256)}
}

// Bytes returns the encoded buffer, or the first error recorded.
// The returned slice aliases the encoder's buffer.
func (e *Encoder) Bytes() ([]byte, error) {
	if e.err != nil {
		return nil, e.err
	}
	return e.buf, nil
}

// Len returns the number of bytes written so far.
func (e *Encoder) Len() int {
	return len(e.buf)
}

// Err returns the sticky error, if any.
func (e *Encoder) Err() error {
	return e.err
}

// Fail records err for field unless an earlier error is already recorded.
func (e *Encoder) Fail(field string, err error) {
	if e.err != nil {
		return
	}
	e.err = &EncodeError{Field: field, Err: err}
}

// Uvarint appends v as an LEB128 varint.
func (e *Encoder) Uvarint(v uint64) {
	if e.err != nil {
		return
	}
	e.buf = protowire.AppendVarint(e.buf, v)
}

// Uint64 appends v as 8 little-endian bytes.
func (e *Encoder) Uint64(v uint64) {
	if e.err != nil {
		return
	}
	e.buf = protowire.AppendFixed64(e.buf, v)
}

// Int64 appends v zigzag-mapped as a varint.
func (e *Encoder) Int64(v int64) {
	e.Uvarint(protowire.EncodeZigZag(v))
}

// Float64 appends the IEEE-754 bit pattern of f as a u64.
func (e *Encoder) Float64(f float64) {
	e.Uint64(math.Float64bits(f))
}

// Bool appends a single 0 or 1 byte.
func (e *Encoder) Bool(b bool) {
	if e.err != nil {
		return
	}
	if b {
		e.buf = append(e.buf, 1)
		return
	}
	e.buf = append(e.buf, 0)
}

// String appends a varint length followed by the UTF-8 bytes of s.
// Strings that are not valid UTF-8 have no canonical encoding; the failure
// names field.
func (e *Encoder) String(field, s string) {
	if e.err != nil {
		return
	}
	if !utf8.ValidString(s) {
		e.Fail(field, ErrInvalidUTF8)
		return
	}
	e.buf = protowire.AppendString(e.buf, s)
}

// Blob appends a varint length followed by b.
func (e *Encoder) Blob(b []byte) {
	if e.err != nil {
		return
	}
	e.buf = protowire.AppendBytes(e.buf, b)
}

// WriteOptional appends a presence flag and, when v is non-nil, the value.
func WriteOptional[T any](e *Encoder, v *T, write func(*Encoder, T)) {
	if v == nil {
		e.Bool(false)
		return
	}
	e.Bool(true)
	write(e, *v)
}

// WriteArray appends the element count followed by every element in order.
func WriteArray[T any](e *Encoder, items []T, write func(*Encoder, T)) {
	e.Uvarint(uint64(len(items)))
	for _, item := range items {
		if e.err != nil {
			return
		}
		write(e, item)
	}
}
