package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func noEnvFile(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATA_DIR", "/tmp/vq")

	cfg, err := Load(noEnvFile(t))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.EnvFileLoaded {
		t.Error("EnvFileLoaded = true for missing file")
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.Gemini.SummaryModel != "gemini-2.5-flash" {
		t.Errorf("SummaryModel = %q", cfg.Gemini.SummaryModel)
	}
	if cfg.Gemini.EvaluationModel != "gemini-2.5-pro" {
		t.Errorf("EvaluationModel = %q", cfg.Gemini.EvaluationModel)
	}
	if cfg.Gemini.Timeout != 2*time.Minute {
		t.Errorf("Timeout = %v", cfg.Gemini.Timeout)
	}
	if cfg.Storage.ChunkMaxWords != 2000 {
		t.Errorf("ChunkMaxWords = %d", cfg.Storage.ChunkMaxWords)
	}
	if !cfg.Storage.AsyncChunkSave {
		t.Error("AsyncChunkSave = false, want true")
	}
	if cfg.Storage.ChunkTTL != 24*time.Hour {
		t.Errorf("ChunkTTL = %v", cfg.Storage.ChunkTTL)
	}
	if cfg.Storage.HistoryPath != filepath.Join("/tmp/vq", "history.json") {
		t.Errorf("HistoryPath = %q", cfg.Storage.HistoryPath)
	}
	if cfg.Storage.ChunksDir != filepath.Join("/tmp/vq", "chunks") {
		t.Errorf("ChunksDir = %q", cfg.Storage.ChunksDir)
	}
	if len(cfg.SessionSecret) != 64 {
		t.Errorf("generated SessionSecret length = %d, want 64", len(cfg.SessionSecret))
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Errorf("CORSOrigins = %v", cfg.CORSOrigins)
	}
	if cfg.R2.Enabled() {
		t.Error("R2 enabled without settings")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("CHUNK_MAX_WORDS", "50")
	t.Setenv("LLM_TIMEOUT", "15s")
	t.Setenv("CORS_ORIGINS", "http://a.test,http://b.test")
	t.Setenv("ASYNC_CHUNK_SAVE", "false")
	t.Setenv("HISTORY_PATH", "/srv/h.json")

	cfg, err := Load(noEnvFile(t))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != "9999" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.Storage.ChunkMaxWords != 50 {
		t.Errorf("ChunkMaxWords = %d", cfg.Storage.ChunkMaxWords)
	}
	if cfg.Gemini.Timeout != 15*time.Second {
		t.Errorf("Timeout = %v", cfg.Gemini.Timeout)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "http://b.test" {
		t.Errorf("CORSOrigins = %v", cfg.CORSOrigins)
	}
	if cfg.Storage.AsyncChunkSave {
		t.Error("AsyncChunkSave = true, want false")
	}
	if cfg.Storage.HistoryPath != "/srv/h.json" {
		t.Errorf("HistoryPath = %q", cfg.Storage.HistoryPath)
	}
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("YOUTUBE_LANG=de\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("YOUTUBE_LANG") })

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !cfg.EnvFileLoaded {
		t.Error("EnvFileLoaded = false")
	}
	if cfg.YouTube.Lang != "de" {
		t.Errorf("YouTube.Lang = %q, want de", cfg.YouTube.Lang)
	}
}

func TestLoad_RejectsNonPositiveChunkSize(t *testing.T) {
	t.Setenv("CHUNK_MAX_WORDS", "0")
	if _, err := Load(noEnvFile(t)); err == nil {
		t.Fatal("expected error for CHUNK_MAX_WORDS=0")
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{}
	if err := cfg.ValidateServer(); err == nil {
		t.Error("ValidateServer passed without API_TOKEN")
	}
	cfg.APIToken = "tok"
	if err := cfg.ValidateServer(); err == nil {
		t.Error("ValidateServer passed without GEMINI_API_KEY")
	}
	cfg.Gemini.APIKey = "key"
	if err := cfg.ValidateServer(); err != nil {
		t.Errorf("ValidateServer: %v", err)
	}
}
