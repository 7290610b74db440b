// Package store provides a SQLite-backed library of notebooks.
//
// Each notebook is kept twice:
//   - notebooks: the encoded file, zstd-compressed, with an xxhash64
//     checksum of the uncompressed bytes
//   - transitions: one row per transition record, so a log can be listed
//     or filtered without decoding the blob
//
// The blob is authoritative. The transitions table is rewritten from it on
// every PutNotebook, inside the same transaction.
//
// # Ordering
//
// All queries use ORDER BY seq ASC (the record's position in the log) or
// id ASC COLLATE BINARY, never timestamps, so results are identical across
// runs.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Transition rows cascade with their notebook
package store
