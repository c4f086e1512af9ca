// Package cas implements a content-addressed export store for rendered meshes.
package cas

import (
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"go.trai.ch/lathe/internal/core/domain"
	"go.trai.ch/lathe/internal/core/ports"
	"go.trai.ch/zerr"
)

// ManifestName is the JSON index of exported meshes inside the store directory.
const ManifestName = "manifest.json"

var _ ports.ExportStore = (*Store)(nil)

// Store implements ports.ExportStore as a directory of <fingerprint>.stl files and a
// flat JSON manifest.
type Store struct {
	dir   string
	mu    sync.RWMutex
	cache map[domain.Fingerprint]domain.ExportRecord
}

// NewStore creates a Store rooted at dir, loading an existing manifest if present.
func NewStore(dir string) (*Store, error) {
	s := &Store{
		dir:   filepath.Clean(dir),
		cache: make(map[domain.Fingerprint]domain.ExportRecord),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Dir returns the store directory.
func (s *Store) Dir() string { return s.dir }

func (s *Store) manifestPath() string {
	return filepath.Join(s.dir, ManifestName)
}

func (s *Store) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	//nolint:gosec // Path is cleaned and provided by trusted caller
	data, err := os.ReadFile(s.manifestPath())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return zerr.Wrap(domain.ErrStoreReadFailed, err.Error())
	}

	if len(data) == 0 {
		return nil
	}

	var records []domain.ExportRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return zerr.With(zerr.Wrap(domain.ErrStoreReadFailed, "failed to unmarshal manifest"), "path", s.manifestPath())
	}
	for _, r := range records {
		s.cache[r.Fingerprint] = r
	}
	return nil
}

// saveLocked writes the manifest. The caller holds s.mu.
func (s *Store) saveLocked() error {
	records := make([]domain.ExportRecord, 0, len(s.cache))
	for _, r := range s.cache {
		records = append(records, r)
	}
	// Fingerprint order keeps the manifest deterministic.
	slices.SortFunc(records, func(a, b domain.ExportRecord) int {
		return bytes.Compare(a.Fingerprint[:], b.Fingerprint[:])
	})

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return zerr.Wrap(err, "failed to marshal manifest")
	}
	return writeAtomic(s.manifestPath(), data)
}

// Get retrieves the export record for a fingerprint.
func (s *Store) Get(fp domain.Fingerprint) (*domain.ExportRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.cache[fp]
	if !ok {
		return nil, nil
	}
	return &record, nil
}

// Put writes data to <fingerprint>.stl and records the export. It returns the file path.
func (s *Store) Put(record domain.ExportRecord, data []byte) (string, error) {
	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return "", zerr.With(zerr.Wrap(domain.ErrStoreWriteFailed, err.Error()), "dir", s.dir)
	}

	path := filepath.Join(s.dir, record.Fingerprint.String()+".stl")
	if err := writeAtomic(path, data); err != nil {
		return "", err
	}
	record.Path = path

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[record.Fingerprint] = record
	if err := s.saveLocked(); err != nil {
		return "", err
	}
	return path, nil
}

// writeAtomic writes data to a sibling temp file and renames it over path.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return zerr.With(zerr.Wrap(domain.ErrStoreWriteFailed, err.Error()), "path", path)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // Already renamed on success

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return zerr.With(zerr.Wrap(domain.ErrStoreWriteFailed, err.Error()), "path", path)
	}
	if err := tmp.Close(); err != nil {
		return zerr.With(zerr.Wrap(domain.ErrStoreWriteFailed, err.Error()), "path", path)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return zerr.With(zerr.Wrap(domain.ErrStoreWriteFailed, err.Error()), "path", path)
	}
	return nil
}
