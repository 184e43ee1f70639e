package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"videoquiz/internal/logger"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	// DefaultTimeout bounds a single completion call
	DefaultTimeout = 2 * time.Minute
	// DefaultTemperature is used unless WithTemperature overrides it
	DefaultTemperature = 0.4
)

var (
	ErrRateLimited   = errors.New("gemini: rate limited")
	ErrTimeout       = errors.New("gemini: request timed out")
	ErrEmptyResponse = errors.New("gemini: no content generated")
)

// Client wraps the Gemini client
type Client struct {
	client      *genai.Client
	timeout     time.Duration
	temperature float32
	log         *logger.Logger
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithTemperature(t float32) Option {
	return func(c *Client) { c.temperature = t }
}

func WithLogger(l *logger.Logger) Option {
	return func(c *Client) { c.log = l }
}

// NewClient creates a new Gemini client
func NewClient(ctx context.Context, apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	c := &Client{
		client:      client,
		timeout:     DefaultTimeout,
		temperature: DefaultTemperature,
		log:         logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Close closes the Gemini client
func (c *Client) Close() {
	c.client.Close()
}

// Complete sends a single-shot text prompt to the named model and returns the
// concatenated text of the first candidate.
func (c *Client) Complete(ctx context.Context, model, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	m := c.client.GenerativeModel(model)
	m.SetTemperature(c.temperature)

	start := time.Now()
	resp, err := m.GenerateContent(ctx, genai.Text(prompt))
	elapsed := time.Since(start)
	if err != nil {
		c.log.Warn("gemini request failed", "model", model, "elapsed", elapsed.String(), "error", err)
		return "", classify(err)
	}
	c.log.Info("gemini request completed", "model", model, "elapsed", elapsed.String())

	text := responseText(resp)
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String()
}

// classify maps transport errors onto the package sentinels while keeping the
// original error in the chain.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %w", ErrRateLimited, err)
		case http.StatusGatewayTimeout, http.StatusRequestTimeout:
			return fmt.Errorf("%w: %w", ErrTimeout, err)
		}
	}

	switch status.Code(err) {
	case codes.ResourceExhausted:
		return fmt.Errorf("%w: %w", ErrRateLimited, err)
	case codes.DeadlineExceeded:
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return fmt.Errorf("gemini: %w", err)
}
