package codec

import (
	"errors"
	"fmt"
	"io"
	"math"
	"unicode/utf8"

	"google.golang.org/protobuf/encoding/protowire"
)

// Decoder reads canonical encodings from a byte cursor.
//
// Each read consumes exactly the bytes its matching Encoder write produced.
// A failed read leaves the cursor where the failing field started.
type Decoder struct {
	buf []byte
	off int
}

// NewDecoder creates a decoder positioned at the start of buf.
// The decoder never mutates buf; blobs are copied out.
func NewDecoder(buf []byte) *Decoder {
	return &Decoder{buf: buf}
}

// Offset returns the cursor position.
func (d *Decoder) Offset() int {
	return d.off
}

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int {
	return len(d.buf) - d.off
}

// Fail builds a DecodeError for field at the current offset.
func (d *Decoder) Fail(field string, err error) *DecodeError {
	return &DecodeError{Field: field, Offset: d.off, Err: err}
}

// Uvarint reads an LEB128 varint. Overlong forms (continuation bytes that
// add only zero bits) are rejected, so every value has exactly one encoding.
func (d *Decoder) Uvarint(field string) (uint64, error) {
	v, n := protowire.ConsumeVarint(d.buf[d.off:])
	if n < 0 {
		return 0, d.Fail(field, wireError(n))
	}
	if protowire.SizeVarint(v) != n {
		return 0, d.Fail(field, fmt.Errorf("%w: %d bytes for %d", ErrOverlongVarint, n, v))
	}
	d.off += n
	return v, nil
}

// Uint64 reads 8 little-endian bytes.
func (d *Decoder) Uint64(field string) (uint64, error) {
	v, n := protowire.ConsumeFixed64(d.buf[d.off:])
	if n < 0 {
		return 0, d.Fail(field, wireError(n))
	}
	d.off += n
	return v, nil
}

// Int64 reads a zigzag varint.
func (d *Decoder) Int64(field string) (int64, error) {
	v, err := d.Uvarint(field)
	if err != nil {
		return 0, err
	}
	return protowire.DecodeZigZag(v), nil
}

// Float64 reads a u64 and reinterprets it as an IEEE-754 bit pattern.
func (d *Decoder) Float64(field string) (float64, error) {
	bits, err := d.Uint64(field)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(bits), nil
}

// Bool reads one byte that must be 0 or 1.
func (d *Decoder) Bool(field string) (bool, error) {
	if d.Remaining() < 1 {
		return false, d.Fail(field, ErrTruncated)
	}
	switch d.buf[d.off] {
	case 0:
		d.off++
		return false, nil
	case 1:
		d.off++
		return true, nil
	default:
		return false, d.Fail(field, fmt.Errorf("%w: 0x%02x", ErrInvalidBool, d.buf[d.off]))
	}
}

// String reads a length-prefixed UTF-8 string.
func (d *Decoder) String(field string) (string, error) {
	start := d.off
	v, err := d.lengthPrefixed(field)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(v) {
		d.off = start
		return "", d.Fail(field, ErrInvalidUTF8)
	}
	return string(v), nil
}

// Blob reads a length-prefixed byte blob. The result is a copy; an empty
// blob decodes to a non-nil empty slice.
func (d *Decoder) Blob(field string) ([]byte, error) {
	v, err := d.lengthPrefixed(field)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// lengthPrefixed reads a canonical varint length and that many bytes. On
// failure the cursor stays at the length prefix.
func (d *Decoder) lengthPrefixed(field string) ([]byte, error) {
	start := d.off
	n, err := d.Uvarint(field)
	if err != nil {
		return nil, err
	}
	if n > uint64(d.Remaining()) {
		d.off = start
		return nil, d.Fail(field, ErrTruncated)
	}
	v := d.buf[d.off : d.off+int(n)]
	d.off += int(n)
	return v, nil
}

// ReadOptional reads a presence flag and, when set, the value.
// An absent value decodes to nil.
func ReadOptional[T any](d *Decoder, field string, read func(*Decoder) (T, error)) (*T, error) {
	present, err := d.Bool(field + ".present")
	if err != nil {
		return nil, err
	}
	if !present {
		return nil, nil
	}
	v, err := read(d)
	if err != nil {
		return nil, Within(field, err)
	}
	return &v, nil
}

// ReadArray reads an element count and then that many elements.
//
// Every element of every array in the format encodes to at least one byte, so
// a count larger than the remaining input is rejected before allocating.
// The element index is passed to read and used in error paths. A zero count
// decodes to a nil slice: nil and empty slices share one encoding, so the
// format does not distinguish them.
func ReadArray[T any](d *Decoder, field string, read func(*Decoder, int) (T, error)) ([]T, error) {
	count, err := d.Uvarint(field + ".count")
	if err != nil {
		return nil, err
	}
	if count > uint64(d.Remaining()) {
		return nil, d.Fail(field+".count", fmt.Errorf("%w: %d > %d", ErrCountOverflow, count, d.Remaining()))
	}
	if count == 0 {
		return nil, nil
	}
	items := make([]T, 0, int(count))
	for i := 0; i < int(count); i++ {
		item, err := read(d, i)
		if err != nil {
			return nil, Within(fmt.Sprintf("%s[%d]", field, i), err)
		}
		items = append(items, item)
	}
	return items, nil
}

// wireError maps a negative protowire length into one of the package sentinels.
func wireError(n int) error {
	if errors.Is(protowire.ParseError(n), io.ErrUnexpectedEOF) {
		return ErrTruncated
	}
	return ErrMalformedVarint
}
