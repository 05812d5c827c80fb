package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// DefaultAlertTimeout bounds a single alert webhook delivery.
const DefaultAlertTimeout = 5 * time.Second

// AlertSink posts error notifications to a webhook (Slack-style
// incoming webhook or an internal paging endpoint).
type AlertSink struct {
	endpoint string
	client   *http.Client
}

// NewAlertSink creates an alert sink posting to the given webhook URL.
func NewAlertSink(endpoint string) *AlertSink {
	return &AlertSink{
		endpoint: endpoint,
		client:   &http.Client{Timeout: DefaultAlertTimeout},
	}
}

// NewAlertSinkWithClient creates an alert sink with a custom HTTP
// client.
func NewAlertSinkWithClient(endpoint string, client *http.Client) *AlertSink {
	return &AlertSink{endpoint: endpoint, client: client}
}

type alertPayload struct {
	Text      string         `json:"text"`
	Level     string         `json:"level"`
	Timestamp time.Time      `json:"timestamp"`
	RequestID string         `json:"request_id,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Name implements Sink.
func (s *AlertSink) Name() string { return "alert" }

// Write implements Sink.
func (s *AlertSink) Write(ctx context.Context, entry *Entry) error {
	payload := alertPayload{
		Text:      entry.Message,
		Level:     entry.Level.String(),
		Timestamp: entry.Timestamp,
		RequestID: entry.RequestID,
		Metadata:  entry.Metadata,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal alert payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build alert request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post alert: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("alert webhook returned status %d", resp.StatusCode)
	}
	return nil
}
