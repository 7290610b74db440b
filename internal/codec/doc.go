// Package codec provides the deterministic binary primitives used by the
// notebook file format.
//
// Every value has exactly one byte representation:
//   - unsigned varint: LEB128, 7 data bits per byte, continuation bit on all
//     but the last byte
//   - u64: 8 bytes little-endian
//   - i64: zigzag mapped, then unsigned varint
//   - float64: IEEE-754 bit pattern written as u64 (never a native float encoding)
//   - bool: exactly one byte, 0 or 1
//   - string / blob: varint length followed by the raw bytes (strings must be UTF-8)
//   - optional T: one bool flag byte, then T iff the flag is 1
//   - array of T: varint count, then each element in order
//
// The varint and fixed-width rules are delegated to protowire so this package
// only adds framing, field names and error reporting.
//
// Decoding never substitutes defaults. Any truncation, malformed varint,
// invalid flag byte or invalid UTF-8 is a *DecodeError naming the field.
package codec
