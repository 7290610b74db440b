// Package document is the file boundary of a notebook: whole-file reads,
// atomic whole-file writes and the safe-default load policy.
//
// Nothing in the codec, machine or engine layers touches the filesystem;
// they exchange complete byte buffers with this package.
package document

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/roach88/notelog/internal/ir"
)

// FileMode is the permission used for new notebook files.
const FileMode os.FileMode = 0o644

// ReadFile reads the whole notebook file at path.
// A missing file yields an error wrapping fs.ErrNotExist.
func ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read notebook: %w", err)
	}
	return data, nil
}

// WriteFileAtomic replaces path with data.
//
// Atomic write flow:
//  1. write to a temporary file in the same directory
//  2. fsync the temporary file
//  3. rename it over path
//
// On any failure the temporary file is removed and the previous contents of
// path are untouched.
func WriteFileAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp notebook: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("write temp notebook: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp notebook: %w", err)
	}
	if err = tmp.Chmod(FileMode); err != nil {
		return fmt.Errorf("chmod temp notebook: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp notebook: %w", err)
	}
	if err = os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("replace notebook: %w", err)
	}
	return nil
}

// Encode returns the canonical bytes of f.
func Encode(f ir.NotebookFile) ([]byte, error) {
	data, err := ir.EncodeFile(f)
	if err != nil {
		return nil, fmt.Errorf("encode notebook: %w", err)
	}
	return data, nil
}

// Load strictly decodes data.
func Load(data []byte) (ir.NotebookFile, error) {
	f, err := ir.DecodeFile(data)
	if err != nil {
		return ir.NotebookFile{}, fmt.Errorf("decode notebook: %w", err)
	}
	return f, nil
}

// LoadOrDefault decodes data, substituting the empty default document when
// it does not decode. The decode error is logged and returned alongside the
// default so callers can tell the user; it is never fatal.
func LoadOrDefault(data []byte, logger *slog.Logger) (ir.NotebookFile, error) {
	f, err := Load(data)
	if err != nil {
		if logger == nil {
			logger = slog.Default()
		}
		logger.Warn("notebook did not decode, using empty default", "error", err, "bytes", len(data))
		return ir.EmptyNotebook(), err
	}
	return f, nil
}
