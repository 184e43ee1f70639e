package history

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"videoquiz/internal/logger"
	"videoquiz/internal/models"
)

// Mirror receives a copy of the history document after every successful write.
type Mirror interface {
	PutHistory(ctx context.Context, data []byte) error
}

// Store keeps one HistoryRecord per video id in a single JSON document.
// Writes are serialized within the process; the document is replaced
// atomically via rename so a crash never leaves a truncated file.
type Store struct {
	path   string
	mu     sync.Mutex
	mirror Mirror
	log    *logger.Logger
}

type Option func(*Store)

func WithMirror(m Mirror) Option {
	return func(s *Store) { s.mirror = m }
}

func WithLogger(l *logger.Logger) Option {
	return func(s *Store) { s.log = l }
}

func New(path string, opts ...Option) *Store {
	s := &Store{path: path, log: logger.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ReadAll returns every record in insertion order. A missing or malformed
// document reads as an empty history.
func (s *Store) ReadAll() []models.HistoryRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Get returns the record for videoID, if any.
func (s *Store) Get(videoID string) (models.HistoryRecord, bool) {
	for _, r := range s.ReadAll() {
		if r.VideoID == videoID {
			return r, true
		}
	}
	return models.HistoryRecord{}, false
}

// Upsert replaces the record with the same video id in place, or appends a new
// one, and rewrites the whole document.
func (s *Store) Upsert(ctx context.Context, rec models.HistoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.load()
	replaced := false
	for i := range records {
		if records[i].VideoID == rec.VideoID {
			records[i] = rec
			replaced = true
			break
		}
	}
	if !replaced {
		records = append(records, rec)
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding history: %w", err)
	}
	if err := writeFileAtomic(s.path, data); err != nil {
		return fmt.Errorf("writing history: %w", err)
	}
	s.log.Debug("history updated", "videoId", rec.VideoID, "replaced", replaced, "records", len(records))

	if s.mirror != nil {
		if err := s.mirror.PutHistory(ctx, data); err != nil {
			s.log.Warn("history mirror upload failed", "error", err)
		}
	}
	return nil
}

func (s *Store) load() []models.HistoryRecord {
	records := []models.HistoryRecord{}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn("reading history failed", "path", s.path, "error", err)
		}
		return records
	}
	if err := json.Unmarshal(data, &records); err != nil {
		s.log.Warn("history document is malformed, treating as empty", "path", s.path, "error", err)
		return []models.HistoryRecord{}
	}
	return records
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
