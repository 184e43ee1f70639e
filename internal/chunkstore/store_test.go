package chunkstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"videoquiz/internal/models"
)

func newSet(videoID string) *Set {
	return &Set{
		SessionID: uuid.NewString(),
		VideoID:   videoID,
		Timestamp: 1700000000,
		Chunks:    []models.TranscriptChunk{{ChunkID: 1, Content: "hello world"}},
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, nil)
	set := newSet("dQw4w9WgXcQ")

	if err := s.Save(set); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	matches, _ := filepath.Glob(filepath.Join(dir, "dQw4w9WgXcQ_*_"+set.SessionID+".json"))
	if len(matches) != 1 {
		t.Fatalf("expected one chunk file, found %v", matches)
	}

	got, err := s.Load(context.Background(), set.SessionID)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.VideoID != set.VideoID || len(got.Chunks) != 1 || got.Chunks[0].Content != "hello world" {
		t.Errorf("Load = %+v", got)
	}

	if err := s.Remove(got); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Load(context.Background(), set.SessionID); !errors.Is(err, ErrNoPending) {
		t.Errorf("Load after Remove err = %v, want ErrNoPending", err)
	}
}

func TestLoad_Empty(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "missing"), nil)
	if _, err := s.Load(context.Background(), ""); !errors.Is(err, ErrNoPending) {
		t.Errorf("err = %v, want ErrNoPending", err)
	}
	if _, err := s.Load(context.Background(), uuid.NewString()); !errors.Is(err, ErrNoPending) {
		t.Errorf("err = %v, want ErrNoPending", err)
	}
}

func TestLoad_InvalidSession(t *testing.T) {
	s := New(t.TempDir(), nil)
	for _, id := range []string{"../../etc/passwd", "*", "not-a-uuid"} {
		if _, err := s.Load(context.Background(), id); !errors.Is(err, ErrInvalidSession) {
			t.Errorf("Load(%q) err = %v, want ErrInvalidSession", id, err)
		}
	}
	if err := s.Save(&Set{SessionID: "bad", VideoID: "x"}); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("Save err = %v, want ErrInvalidSession", err)
	}
}

func TestLoad_NewestWithoutSession(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, nil)
	older, newer := newSet("aaaaaaaaaaa"), newSet("bbbbbbbbbbb")
	if err := s.Save(older); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(newer); err != nil {
		t.Fatal(err)
	}

	now := time.Now()
	os.Chtimes(older.path, now, now.Add(time.Minute))
	os.Chtimes(newer.path, now, now.Add(-time.Minute))

	got, err := s.Load(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if got.SessionID != older.SessionID {
		t.Errorf("picked %s, want the file with the latest modification time", got.VideoID)
	}
}

func TestLoad_ConcurrentSessionsIsolated(t *testing.T) {
	s := New(t.TempDir(), nil)
	a, b := newSet("aaaaaaaaaaa"), newSet("bbbbbbbbbbb")
	a.Chunks[0].Content = "from a"
	b.Chunks[0].Content = "from b"
	s.SaveAsync(a)
	s.SaveAsync(b)

	gotA, err := s.Load(context.Background(), a.SessionID)
	if err != nil {
		t.Fatal(err)
	}
	gotB, err := s.Load(context.Background(), b.SessionID)
	if err != nil {
		t.Fatal(err)
	}
	if gotA.Chunks[0].Content != "from a" || gotB.Chunks[0].Content != "from b" {
		t.Errorf("sessions mixed up: %q, %q", gotA.Chunks[0].Content, gotB.Chunks[0].Content)
	}
}

func TestSaveAsync_FailureSurfacesOnLoad(t *testing.T) {
	base := t.TempDir()
	blocker := filepath.Join(base, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	// The chunk dir sits beneath a regular file, so MkdirAll fails.
	s := New(filepath.Join(blocker, "chunks"), nil)
	set := newSet("aaaaaaaaaaa")
	s.SaveAsync(set)

	_, err := s.Load(context.Background(), set.SessionID)
	if err == nil || errors.Is(err, ErrNoPending) {
		t.Fatalf("err = %v, want the background write failure", err)
	}
	if !strings.Contains(err.Error(), set.SessionID) {
		t.Errorf("error %q does not name the session", err)
	}
}

func TestLoad_ContextCanceled(t *testing.T) {
	s := New(t.TempDir(), nil)
	id := uuid.NewString()
	p := &pendingWrite{done: make(chan struct{})}
	s.pending[id] = p

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Load(ctx, id); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	close(p.done)
}

func TestFileName_SanitizesVideoID(t *testing.T) {
	set := newSet("../evil/..")
	name := fileName(set)
	if strings.ContainsAny(name, "/\\") || strings.HasPrefix(name, ".") {
		t.Errorf("unsafe file name %q", name)
	}
	if !strings.HasSuffix(name, "_"+set.SessionID+".json") {
		t.Errorf("file name %q does not end with the session id", name)
	}
}

func TestSweep(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, nil)
	stale, fresh, busy := newSet("aaaaaaaaaaa"), newSet("bbbbbbbbbbb"), newSet("ccccccccccc")
	for _, set := range []*Set{stale, fresh, busy} {
		if err := s.Save(set); err != nil {
			t.Fatal(err)
		}
	}
	old := time.Now().Add(-48 * time.Hour)
	os.Chtimes(stale.path, old, old)
	os.Chtimes(busy.path, old, old)

	p := &pendingWrite{done: make(chan struct{})}
	s.pending[busy.SessionID] = p
	defer close(p.done)

	n, err := s.Sweep(time.Now().Add(-24 * time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("removed %d files, want 1", n)
	}
	if _, err := os.Stat(stale.path); !os.IsNotExist(err) {
		t.Error("stale chunk set was not removed")
	}
	for _, set := range []*Set{fresh, busy} {
		if _, err := os.Stat(set.path); err != nil {
			t.Errorf("%s removed: %v", set.VideoID, err)
		}
	}
}

func TestSweep_MissingDir(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "absent"), nil)
	if n, err := s.Sweep(time.Now()); n != 0 || err != nil {
		t.Errorf("Sweep = %d, %v, want 0, nil", n, err)
	}
}
