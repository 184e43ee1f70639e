package chunkstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"videoquiz/internal/logger"
	"videoquiz/internal/models"
)

var (
	// ErrNoPending is returned when there is no chunk set to summarize.
	ErrNoPending = errors.New("no pending transcript chunks")
	// ErrInvalidSession is returned for a malformed session id.
	ErrInvalidSession = errors.New("invalid session id")

	unsafeName = regexp.MustCompile(`[^A-Za-z0-9_-]+`)
)

// Set is the chunked transcript of one fetch, waiting to be summarized.
type Set struct {
	SessionID string                   `json:"sessionId"`
	VideoID   string                   `json:"videoId"`
	Timestamp float64                  `json:"timestamp"`
	Chunks    []models.TranscriptChunk `json:"chunks"`

	path string
}

type pendingWrite struct {
	done chan struct{}
	err  error
}

// Store persists chunk sets as one JSON file per fetch.
type Store struct {
	dir string
	log *logger.Logger

	mu      sync.Mutex
	pending map[string]*pendingWrite
}

func New(dir string, log *logger.Logger) *Store {
	if log == nil {
		log = logger.Nop()
	}
	return &Store{dir: dir, log: log, pending: make(map[string]*pendingWrite)}
}

// Save writes the set synchronously.
func (s *Store) Save(set *Set) error {
	if _, err := uuid.Parse(set.SessionID); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidSession, set.SessionID)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating chunk dir: %w", err)
	}

	data, err := json.MarshalIndent(set, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding chunks: %w", err)
	}

	path := filepath.Join(s.dir, fileName(set))
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing chunks: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("writing chunks: %w", err)
	}
	set.path = path

	s.log.Debug("chunks saved", "sessionId", set.SessionID, "videoId", set.VideoID, "chunks", len(set.Chunks))
	return nil
}

// SaveAsync writes the set in the background. Load waits for it.
func (s *Store) SaveAsync(set *Set) {
	p := &pendingWrite{done: make(chan struct{})}
	s.mu.Lock()
	s.pending[set.SessionID] = p
	s.mu.Unlock()

	go func() {
		defer close(p.done)
		if err := s.Save(set); err != nil {
			p.err = err
			s.log.Error("background chunk save failed", "sessionId", set.SessionID, "error", err)
		}
	}()
}

// Load returns the chunk set of sessionID. With an empty sessionID it returns
// the most recently written set.
func (s *Store) Load(ctx context.Context, sessionID string) (*Set, error) {
	if sessionID != "" {
		if _, err := uuid.Parse(sessionID); err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidSession, sessionID)
		}
	}
	if err := s.wait(ctx, sessionID); err != nil {
		return nil, err
	}

	var path string
	var err error
	if sessionID != "" {
		path, err = s.findSession(sessionID)
	} else {
		path, err = s.newest()
	}
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoPending
		}
		return nil, fmt.Errorf("reading chunks: %w", err)
	}
	var set Set
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("decoding chunks %s: %w", filepath.Base(path), err)
	}
	set.path = path
	return &set, nil
}

// Remove deletes the file backing a loaded or saved set.
func (s *Store) Remove(set *Set) error {
	if set == nil || set.path == "" {
		return nil
	}
	if err := os.Remove(set.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing chunks: %w", err)
	}
	return nil
}

// Wait blocks until every background save has finished.
func (s *Store) Wait() {
	s.wait(context.Background(), "")
}

// wait blocks on the background write for sessionID, or on all of them when
// sessionID is empty, and reports a failed write.
func (s *Store) wait(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	var targets map[string]*pendingWrite
	if sessionID != "" {
		if p, ok := s.pending[sessionID]; ok {
			targets = map[string]*pendingWrite{sessionID: p}
		}
	} else {
		targets = make(map[string]*pendingWrite, len(s.pending))
		for id, p := range s.pending {
			targets[id] = p
		}
	}
	s.mu.Unlock()

	var failed error
	for id, p := range targets {
		select {
		case <-p.done:
		case <-ctx.Done():
			return ctx.Err()
		}
		s.mu.Lock()
		if s.pending[id] == p {
			delete(s.pending, id)
		}
		s.mu.Unlock()
		if p.err != nil && failed == nil {
			failed = fmt.Errorf("saving chunks for session %s: %w", id, p.err)
		}
	}
	if sessionID != "" {
		return failed
	}
	// Without a session the newest file on disk wins even if a write failed.
	if failed != nil {
		s.log.Warn("ignoring failed background save while picking newest chunks", "error", failed)
	}
	return nil
}

// Sweep removes chunk sets last written before cutoff, skipping sets whose
// background save is still running. It returns the number of files removed.
func (s *Store) Sweep(cutoff time.Time) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("listing chunks: %w", err)
	}

	s.mu.Lock()
	busy := make(map[string]bool, len(s.pending))
	for id := range s.pending {
		busy[id] = true
	}
	s.mu.Unlock()

	removed := 0
	var errs []error
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") || busy[sessionOf(name)] {
			continue
		}
		info, err := e.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	if removed > 0 {
		s.log.Info("swept stale chunk sets", "removed", removed, "cutoff", cutoff)
	}
	return removed, errors.Join(errs...)
}

// sessionOf extracts the session id from a chunk file name.
func sessionOf(name string) string {
	base := strings.TrimSuffix(name, ".json")
	if i := strings.LastIndexByte(base, '_'); i >= 0 {
		return base[i+1:]
	}
	return ""
}

func (s *Store) findSession(sessionID string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "*_"+sessionID+".json"))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", ErrNoPending
	}
	return matches[0], nil
}

func (s *Store) newest() (string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNoPending
		}
		return "", fmt.Errorf("listing chunks: %w", err)
	}

	var best string
	var bestMod time.Time
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if best == "" || info.ModTime().After(bestMod) || (info.ModTime().Equal(bestMod) && e.Name() > best) {
			best, bestMod = e.Name(), info.ModTime()
		}
	}
	if best == "" {
		return "", ErrNoPending
	}
	return filepath.Join(s.dir, best), nil
}

func fileName(set *Set) string {
	video := unsafeName.ReplaceAllString(set.VideoID, "")
	if video == "" {
		video = "video"
	}
	return fmt.Sprintf("%s_%d_%s.json", video, time.Now().UnixNano(), set.SessionID)
}
