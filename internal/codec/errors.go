package codec

import (
	"errors"
	"fmt"
)

// Sentinel causes carried by DecodeError and EncodeError.
var (
	// ErrTruncated indicates a read past the end of the buffer.
	ErrTruncated = errors.New("unexpected end of input")

	// ErrMalformedVarint indicates a varint longer than 10 bytes or one that overflows 64 bits.
	ErrMalformedVarint = errors.New("malformed varint")

	// ErrOverlongVarint indicates a varint encoded in more bytes than its value needs.
	ErrOverlongVarint = errors.New("overlong varint")

	// ErrInvalidBool indicates a boolean byte other than 0 or 1.
	ErrInvalidBool = errors.New("invalid boolean byte")

	// ErrInvalidUTF8 indicates string bytes that are not valid UTF-8.
	ErrInvalidUTF8 = errors.New("invalid UTF-8")

	// ErrInvalidTag indicates an unrecognized union variant tag.
	ErrInvalidTag = errors.New("unknown variant tag")

	// ErrInvalidValue indicates a well-formed value outside its domain
	// (unknown enum name, unparsable identity).
	ErrInvalidValue = errors.New("invalid value")

	// ErrCountOverflow indicates an array count that cannot fit in the remaining input.
	ErrCountOverflow = errors.New("element count exceeds remaining input")
)

// DecodeError reports a failure to decode a named field.
//
// Field is a dotted path such as "transitions[4].event.payload.bounds.x".
// Offset is the byte position of the cursor when the failure was detected.
type DecodeError struct {
	Field  string
	Offset int
	Err    error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s at offset %d: %v", e.Field, e.Offset, e.Err)
}

// Unwrap returns the sentinel cause.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// EncodeError reports a value that has no canonical encoding.
// It only arises when an in-memory invariant has been violated.
type EncodeError struct {
	Field string
	Err   error
}

// Error implements the error interface.
func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode %s: %v", e.Field, e.Err)
}

// Unwrap returns the underlying cause.
func (e *EncodeError) Unwrap() error {
	return e.Err
}

// Within prefixes the field path of err with prefix.
//
// DecodeError and EncodeError values are copied with the longer path; other
// errors are returned unchanged. A nil err stays nil.
func Within(prefix string, err error) error {
	if err == nil {
		return nil
	}
	var de *DecodeError
	if errors.As(err, &de) {
		return &DecodeError{Field: joinField(prefix, de.Field), Offset: de.Offset, Err: de.Err}
	}
	var ee *EncodeError
	if errors.As(err, &ee) {
		return &EncodeError{Field: joinField(prefix, ee.Field), Err: ee.Err}
	}
	return err
}

// IsDecodeError reports whether err is or wraps a *DecodeError.
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}

func joinField(prefix, field string) string {
	switch {
	case prefix == "":
		return field
	case field == "":
		return prefix
	case field[0] == '[':
		return prefix + field
	default:
		return prefix + "." + field
	}
}
