package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Env  string `envconfig:"APP_ENV" default:"dev"`
	Port string `envconfig:"PORT" default:"8080"`

	APIToken      string   `envconfig:"API_TOKEN"`
	SessionSecret string   `envconfig:"SESSION_SECRET"`
	DatabaseURL   string   `envconfig:"DATABASE_URL"`
	CORSOrigins   []string `envconfig:"CORS_ORIGINS" default:"*"`

	Gemini  GeminiConfig
	YouTube YouTubeConfig
	Storage StorageConfig
	R2      R2Config

	DiscordWebhookURL string `envconfig:"DISCORD_WEBHOOK_URL"`

	// EnvFileLoaded reports whether a .env file was found.
	EnvFileLoaded bool `ignored:"true"`
}

type GeminiConfig struct {
	APIKey             string        `envconfig:"GEMINI_API_KEY"`
	SummaryModel       string        `envconfig:"SUMMARY_MODEL" default:"gemini-2.5-flash"`
	QuestionnaireModel string        `envconfig:"QUESTIONNAIRE_MODEL" default:"gemini-2.5-flash"`
	EvaluationModel    string        `envconfig:"EVALUATION_MODEL" default:"gemini-2.5-pro"`
	Timeout            time.Duration `envconfig:"LLM_TIMEOUT" default:"2m"`
	Temperature        float32       `envconfig:"LLM_TEMPERATURE" default:"0.4"`
}

type YouTubeConfig struct {
	APIKey string `envconfig:"YOUTUBE_API_KEY"`
	Lang   string `envconfig:"YOUTUBE_LANG"`
}

type StorageConfig struct {
	DataDir        string        `envconfig:"DATA_DIR" default:"data"`
	HistoryPath    string        `envconfig:"HISTORY_PATH"`
	ChunksDir      string        `envconfig:"CHUNKS_DIR"`
	ChunkMaxWords  int           `envconfig:"CHUNK_MAX_WORDS" default:"2000"`
	AsyncChunkSave bool          `envconfig:"ASYNC_CHUNK_SAVE" default:"true"`
	ChunkTTL       time.Duration `envconfig:"CHUNK_TTL" default:"24h"`
}

type R2Config struct {
	AccountID       string `envconfig:"CLOUDFLARE_ACCOUNT_ID"`
	BucketName      string `envconfig:"R2_BUCKET_NAME"`
	AccessKeyID     string `envconfig:"R2_ACCESS_KEY_ID"`
	SecretAccessKey string `envconfig:"R2_SECRET_ACCESS_KEY"`
}

// Enabled reports whether every R2 setting is present.
func (r R2Config) Enabled() bool {
	return r.AccountID != "" && r.BucketName != "" && r.AccessKeyID != "" && r.SecretAccessKey != ""
}

// Load reads an optional .env file and then decodes the environment.
// A missing .env file is not an error; any other failure to read it is.
func Load(envFiles ...string) (*Config, error) {
	loaded := true
	if err := godotenv.Load(envFiles...); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("loading .env file: %w", err)
		}
		loaded = false
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}
	cfg.EnvFileLoaded = loaded

	if cfg.Storage.HistoryPath == "" {
		cfg.Storage.HistoryPath = filepath.Join(cfg.Storage.DataDir, "history.json")
	}
	if cfg.Storage.ChunksDir == "" {
		cfg.Storage.ChunksDir = filepath.Join(cfg.Storage.DataDir, "chunks")
	}
	if cfg.Storage.ChunkMaxWords <= 0 {
		return nil, fmt.Errorf("CHUNK_MAX_WORDS must be positive, got %d", cfg.Storage.ChunkMaxWords)
	}
	if cfg.SessionSecret == "" {
		secret, err := randomSecret()
		if err != nil {
			return nil, err
		}
		cfg.SessionSecret = secret
	}
	return &cfg, nil
}

// ValidateLLM checks the settings needed to talk to the LLM.
func (c *Config) ValidateLLM() error {
	if c.Gemini.APIKey == "" {
		return errors.New("GEMINI_API_KEY environment variable not set")
	}
	return nil
}

// ValidateServer checks the settings needed to serve HTTP.
func (c *Config) ValidateServer() error {
	if c.APIToken == "" {
		return errors.New("API_TOKEN is not set in environment variables")
	}
	return c.ValidateLLM()
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating session secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}
