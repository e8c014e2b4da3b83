package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/srikandi-id/harvester/internal/types"
)

const spillPrefix = "failed_inserts_"

// Spiller writes batches the store would not take to timestamped JSON
// files that `reingest` can read back.
type Spiller struct {
	dir    string
	now    func() time.Time
	logger *slog.Logger
}

// NewSpiller creates a spiller writing into dir.
func NewSpiller(dir string, logger *slog.Logger) *Spiller {
	if dir == "" {
		dir = "."
	}
	return &Spiller{
		dir:    dir,
		now:    time.Now,
		logger: logger.With("component", "spill"),
	}
}

// Write stores records as an indented JSON array in a new file named
// failed_inserts_YYYYMMDD_HHMMSS.json and returns its path. An existing
// file is never overwritten.
func (s *Spiller) Write(records []types.ArticleRecord) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create spill dir: %w", err)
	}

	stamp := s.now().Format("20060102_150405")
	var (
		f    *os.File
		path string
		err  error
	)
	for i := 0; i < 100; i++ {
		name := spillPrefix + stamp + ".json"
		if i > 0 {
			name = fmt.Sprintf("%s%s_%d.json", spillPrefix, stamp, i)
		}
		path = filepath.Join(s.dir, name)
		f, err = os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil || !errors.Is(err, fs.ErrExist) {
			break
		}
	}
	if err != nil {
		return "", fmt.Errorf("create spill file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return path, fmt.Errorf("encode spill file: %w", err)
	}
	if err := f.Sync(); err != nil {
		return path, fmt.Errorf("sync spill file: %w", err)
	}

	s.logger.Info("batch spilled", "path", path, "records", len(records))
	return path, nil
}

// ReadSpill loads a spill file written by Spiller.Write.
func ReadSpill(path string) ([]types.ArticleRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read spill file: %w", err)
	}
	var records []types.ArticleRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode spill file %s: %w", path, err)
	}
	return records, nil
}
