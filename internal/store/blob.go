package store

import (
	"fmt"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zstd"
)

// EncodeAll and DecodeAll are safe for concurrent use, so one of each is
// shared by every Store.
var (
	blobEncoder = sync.OnceValues(func() (*zstd.Encoder, error) {
		return zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	})
	blobDecoder = sync.OnceValues(func() (*zstd.Decoder, error) {
		return zstd.NewReader(nil)
	})
)

// packBlob compresses an encoded notebook and returns it with the checksum
// of the uncompressed bytes.
func packBlob(raw []byte) ([]byte, int64, error) {
	enc, err := blobEncoder()
	if err != nil {
		return nil, 0, fmt.Errorf("compressor: %w", err)
	}
	return enc.EncodeAll(raw, nil), checksum(raw), nil
}

// unpackBlob decompresses a stored blob and verifies it against sum.
func unpackBlob(blob []byte, sum int64) ([]byte, error) {
	dec, err := blobDecoder()
	if err != nil {
		return nil, fmt.Errorf("decompressor: %w", err)
	}
	raw, err := dec.DecodeAll(blob, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress blob: %w", err)
	}
	if got := checksum(raw); got != sum {
		return nil, fmt.Errorf("%w: stored %016x, computed %016x", ErrChecksumMismatch, uint64(sum), uint64(got))
	}
	return raw, nil
}

// checksum is xxhash64 reinterpreted as signed, since SQLite integers are
// 64-bit signed.
func checksum(raw []byte) int64 {
	return int64(xxhash.Sum64(raw))
}
