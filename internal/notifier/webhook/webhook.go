// Package webhook implements an HTTP webhook notifier
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/newthinker/sentinel/internal/core"
	"github.com/newthinker/sentinel/internal/notifier"
)

// Config configures the webhook notifier.
type Config struct {
	Enabled bool              `mapstructure:"enabled" json:"enabled"`
	URL     string            `mapstructure:"url" json:"url" validate:"required_if=Enabled true,omitempty,url"`
	Headers map[string]string `mapstructure:"headers" json:"headers"`
	Timeout time.Duration     `mapstructure:"timeout" json:"timeout" default:"10s"`
}

// Webhook implements the Notifier interface for HTTP webhooks
type Webhook struct {
	url     string
	headers map[string]string
	client  *http.Client
}

// New creates a new Webhook notifier
func New(cfg Config) (*Webhook, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("webhook: url is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Webhook{
		url:     cfg.URL,
		headers: cfg.Headers,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

func (w *Webhook) Name() string { return "webhook" }

// payload is the JSON body posted for each event.
type payload struct {
	Type    core.EventKind `json:"type"`
	EventID string         `json:"event_id"`
	Text    string         `json:"text"`
	Signal  core.Signal    `json:"signal"`
	SentAt  string         `json:"sent_at"`
}

func (w *Webhook) Send(ctx context.Context, event core.Event) error {
	return w.post(ctx, payload{
		Type:    event.Kind,
		EventID: event.ID,
		Text:    notifier.Summary(event),
		Signal:  event.Signal,
		SentAt:  event.Time.UTC().Format(time.RFC3339),
	})
}

func (w *Webhook) post(ctx context.Context, body any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("webhook: failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("webhook: failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	for k, v := range w.headers {
		req.Header.Set(k, v)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return core.WrapError(core.ErrPublishFailed, fmt.Errorf("webhook: request failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return core.WrapError(core.ErrPublishFailed, fmt.Errorf("webhook: server returned %d", resp.StatusCode))
	}
	return nil
}
