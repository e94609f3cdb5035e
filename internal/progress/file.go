package progress

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FilePersister keeps the whole record in a single JSON file that is rewritten on
// every save. Concurrent writers are not coordinated: the last write wins.
type FilePersister struct {
	path string
}

// NewFilePersister creates a persister for the JSON file at path.
func NewFilePersister(path string) *FilePersister {
	return &FilePersister{path: path}
}

func (p *FilePersister) Load() (*Record, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading progress file: %w", err)
	}
	return DecodeRecord(data, p.path), nil
}

func (p *FilePersister) Save(rec *Record, _ Event) error {
	data, err := EncodeRecord(rec)
	if err != nil {
		return err
	}

	dir := filepath.Dir(p.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating progress directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(p.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp progress file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing progress file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing progress file: %w", err)
	}
	if err := os.Rename(tmp.Name(), p.path); err != nil {
		return fmt.Errorf("replacing progress file: %w", err)
	}
	return nil
}

func (p *FilePersister) Close() error {
	return nil
}
