package holdings

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cleared-dev/folio/internal/model"
)

// FileName is the holdings snapshot inside the data directory.
const FileName = "holdings.csv"

// Store persists the holdings snapshot. Replace overwrites the whole
// snapshot; there is no incremental update and no concurrency check.
type Store interface {
	Read(ctx context.Context) ([]model.Holding, error)
	Replace(ctx context.Context, holdings []model.Holding) error
}

// CSVStore keeps holdings in <dir>/holdings.csv.
type CSVStore struct {
	dir string
}

// NewCSVStore creates a CSVStore rooted at dir.
func NewCSVStore(dir string) *CSVStore {
	return &CSVStore{dir: dir}
}

// Path returns the snapshot file path.
func (s *CSVStore) Path() string {
	return filepath.Join(s.dir, FileName)
}

// Exists reports whether the snapshot file has been written.
func (s *CSVStore) Exists() bool {
	_, err := os.Stat(s.Path())
	return err == nil
}

// Read returns the holdings in the snapshot file.
func (s *CSVStore) Read(_ context.Context) ([]model.Holding, error) {
	f, err := os.Open(s.Path())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening holdings: %w", err)
	}
	defer f.Close()

	hs, err := ReadHoldings(f)
	if err != nil {
		return nil, fmt.Errorf("reading holdings %s: %w", s.Path(), err)
	}
	return hs, nil
}

// Replace writes the snapshot to a temp file and renames it into place.
func (s *CSVStore) Replace(_ context.Context, holdings []model.Holding) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, ".holdings-*.csv")
	if err != nil {
		return fmt.Errorf("creating holdings file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := WriteHoldings(tmp, holdings); err != nil {
		tmp.Close()
		return fmt.Errorf("writing holdings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing holdings file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.Path()); err != nil {
		return fmt.Errorf("replacing holdings: %w", err)
	}
	return nil
}
