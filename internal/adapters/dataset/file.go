// Package dataset reads, writes and watches catalogue files in YAML or JSON.
//
// Readers take a shared lock and writers an exclusive one on a sidecar
// "<file>.lock", so a reload never observes a half-written file even when the
// writer is another process.
package dataset

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"gopkg.in/yaml.v3"

	"github.com/okian/scout/internal/domain/model"
)

const lockRetryDelay = 50 * time.Millisecond

// Format is the on-disk encoding of a dataset.
type Format int

// Supported formats.
const (
	YAML Format = iota
	JSON
)

// FormatOf picks the format from the file extension; anything other than
// .json is treated as YAML.
func FormatOf(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return JSON
	}
	return YAML
}

func lockPath(path string) string {
	return path + ".lock"
}

// Load reads the dataset at path under a shared lock.
func Load(ctx context.Context, path string) (model.Dataset, error) {
	if path == "" {
		return model.Dataset{}, ErrEmptyPath
	}
	fl := flock.New(lockPath(path))
	locked, err := fl.TryRLockContext(ctx, lockRetryDelay)
	if err != nil {
		return model.Dataset{}, fmt.Errorf("locking %s: %w", path, err)
	}
	if !locked {
		return model.Dataset{}, fmt.Errorf("%s: %w", path, ErrLocked)
	}
	defer fl.Unlock() //nolint:errcheck // released on close anyway

	raw, err := os.ReadFile(path)
	if err != nil {
		return model.Dataset{}, fmt.Errorf("reading dataset: %w", err)
	}
	return Decode(raw, FormatOf(path))
}

// Decode parses raw as a dataset in the given format.
func Decode(raw []byte, f Format) (model.Dataset, error) {
	var ds model.Dataset
	var err error
	switch f {
	case JSON:
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		err = dec.Decode(&ds)
	default:
		dec := yaml.NewDecoder(bytes.NewReader(raw))
		dec.KnownFields(true)
		err = dec.Decode(&ds)
		if err != nil && len(bytes.TrimSpace(raw)) == 0 {
			err = nil
		}
	}
	if err != nil {
		return model.Dataset{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return ds, nil
}

// Encode renders ds in the given format.
func Encode(ds model.Dataset, f Format) ([]byte, error) {
	if f == JSON {
		raw, err := json.MarshalIndent(ds, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encoding json: %w", err)
		}
		return append(raw, '\n'), nil
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(ds); err != nil {
		return nil, fmt.Errorf("encoding yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding yaml: %w", err)
	}
	return buf.Bytes(), nil
}

// Save writes ds to path under an exclusive lock. The file is replaced
// atomically through a temporary file in the same directory.
func Save(ctx context.Context, path string, ds model.Dataset) error {
	if path == "" {
		return ErrEmptyPath
	}
	raw, err := Encode(ds, FormatOf(path))
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating dataset directory: %w", err)
	}

	fl := flock.New(lockPath(path))
	locked, err := fl.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("locking %s: %w", path, err)
	}
	if !locked {
		return fmt.Errorf("%s: %w", path, ErrLocked)
	}
	defer fl.Unlock() //nolint:errcheck // released on close anyway

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after rename

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing dataset: %w", err)
	}
	return nil
}
