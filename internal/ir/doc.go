// Package ir provides the canonical representation of notelog documents.
//
// This package contains the value types of the transition log (identities,
// states, tools, events, payloads, transitions, metadata) and their canonical
// binary encoding. All other internal packages import ir; ir imports only
// internal/codec. This keeps the persisted format the foundational layer with
// no circular dependencies.
//
// Key design constraints:
//   - Events are a closed set: the Event interface is sealed and every variant
//     is handled by an exhaustive type switch in the encoder and decoder
//   - Floating-point fields are written as their IEEE-754 bit pattern
//   - Property maps are written sorted by key; the decoder rejects any other order
//   - Enum values are written by raw name, never by ordinal
//   - A nil map, pointer or payload means "absent"; empty but present values are
//     preserved through a round trip
//   - Arrays are the exception: an empty slice encodes like nil and decodes to nil
//   - Lengths and counts are minimal varints; padded ones are rejected
package ir
