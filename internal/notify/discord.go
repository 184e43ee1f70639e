package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"videoquiz/internal/logger"
)

// Embed colors.
const (
	ColorInfo  = 0x3498DB
	ColorError = 0xE74C3C
)

type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type EmbedFooter struct {
	Text string `json:"text,omitempty"`
}

type Embed struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	URL         string       `json:"url,omitempty"`
	Timestamp   string       `json:"timestamp,omitempty"` // ISO8601
	Color       int          `json:"color,omitempty"`
	Footer      *EmbedFooter `json:"footer,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty"`
}

// WebhookPayload is the body Discord expects for webhook requests with embeds.
type WebhookPayload struct {
	Username string  `json:"username,omitempty"`
	Content  string  `json:"content,omitempty"`
	Embeds   []Embed `json:"embeds"`
}

// Discord posts embeds to a webhook. A zero URL disables it.
type Discord struct {
	url    string
	client *http.Client
	log    *logger.Logger
	wg     sync.WaitGroup
}

func NewDiscord(webhookURL string, log *logger.Logger) *Discord {
	if log == nil {
		log = logger.Nop()
	}
	return &Discord{
		url:    webhookURL,
		client: &http.Client{Timeout: 5 * time.Second},
		log:    log,
	}
}

func (d *Discord) Enabled() bool { return d != nil && d.url != "" }

// Send posts one embed and waits for the response.
func (d *Discord) Send(ctx context.Context, embed Embed) error {
	if !d.Enabled() {
		return nil
	}
	if embed.Timestamp == "" {
		embed.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	payload, err := json.Marshal(WebhookPayload{Username: "videoquiz", Embeds: []Embed{embed}})
	if err != nil {
		return fmt.Errorf("marshal discord payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create discord request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("send discord notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("discord notification failed with status %d: %s", resp.StatusCode, body)
	}
	return nil
}

// Notify sends in the background; failures are only logged.
func (d *Discord) Notify(embed Embed) {
	if !d.Enabled() {
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := d.Send(ctx, embed); err != nil {
			d.log.Error("discord notification failed", "error", err)
			return
		}
		d.log.Debug("discord notification sent", "title", embed.Title)
	}()
}

// Wait blocks until background notifications have finished.
func (d *Discord) Wait() {
	if d == nil {
		return
	}
	d.wg.Wait()
}

// ErrorEmbed describes a failed request.
func ErrorEmbed(operation, path string, status int, err error) Embed {
	return Embed{
		Title:       "Pipeline error: " + operation,
		Description: fmt.Sprintf("```%v```", err),
		Color:       ColorError,
		Fields: []EmbedField{
			{Name: "HTTP Status", Value: fmt.Sprintf("%d", status), Inline: true},
			{Name: "Path", Value: path, Inline: true},
		},
	}
}
