// Package columnar persists typed record batches as parquet files.
//
// The parquet format is not appendable in place, so Append performs a full
// read-modify-write: existing rows are read back, the new rows are
// concatenated, and the result is written to a temporary file that is renamed
// over the target. Readers always see either the old complete file or the new
// complete file.
package columnar

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"
)

var (
	// ErrSchema marks a file that exists but cannot be decoded with the
	// expected record layout. It is fatal for that path only.
	ErrSchema = errors.New("columnar: incompatible file schema")
)

// ReadAll returns every record ever appended to the file at path, in write
// order. A missing file yields an empty result, not an error.
func ReadAll[R any](path string) ([]R, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	rows, err := parquet.Read[R](f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSchema, path, err)
	}
	return rows, nil
}

// Append adds records to the file at path, creating the file and any missing
// directories if absent and preserving all previously written records.
func Append[R any](path string, records []R) error {
	if len(records) == 0 {
		return nil
	}

	existing, err := ReadAll[R](path)
	if err != nil {
		return err
	}
	rows := make([]R, 0, len(existing)+len(records))
	rows = append(rows, existing...)
	rows = append(rows, records...)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir %s: %w", dir, err)
	}

	// Write the complete new content to a temporary file first so a crash
	// mid-write never leaves a truncated target.
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if err := parquet.Write(tmp, rows); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write %s: %w", tmpPath, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("sync %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close %s: %w", tmpPath, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
