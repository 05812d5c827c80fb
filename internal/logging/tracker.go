package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/opencampus/portalgw/internal/observability"
)

// Defaults for the tracker sink.
const (
	DefaultTrackerTimeout   = 5 * time.Second
	defaultBreakerThreshold = 5
	defaultBreakerTimeout   = 30 * time.Second
)

// TrackerSink forwards entries to an external error-tracking service
// as JSON over HTTP. A circuit breaker keeps a flapping tracker from
// adding latency to every logged error.
type TrackerSink struct {
	endpoint string
	client   *http.Client
	breaker  *gobreaker.CircuitBreaker
	logger   observability.Logger
}

// TrackerOption is a functional option for configuring the tracker sink.
type TrackerOption func(*TrackerSink)

// WithTrackerHTTPClient sets the HTTP client used for forwarding.
func WithTrackerHTTPClient(client *http.Client) TrackerOption {
	return func(s *TrackerSink) {
		s.client = client
	}
}

// WithTrackerLogger sets the logger for circuit breaker state changes.
func WithTrackerLogger(logger observability.Logger) TrackerOption {
	return func(s *TrackerSink) {
		s.logger = logger
	}
}

// NewTrackerSink creates a tracker sink posting to the given endpoint.
func NewTrackerSink(endpoint string, opts ...TrackerOption) *TrackerSink {
	s := &TrackerSink{
		endpoint: endpoint,
		client:   &http.Client{Timeout: DefaultTrackerTimeout},
		logger:   observability.NopLogger(),
	}

	for _, opt := range opts {
		opt(s)
	}

	settings := gobreaker.Settings{
		Name:    "log-tracker",
		Timeout: defaultBreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= defaultBreakerThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			s.logger.Warn("tracker circuit breaker state change",
				observability.String("name", name),
				observability.String("from", from.String()),
				observability.String("to", to.String()),
			)
		},
	}
	s.breaker = gobreaker.NewCircuitBreaker(settings)

	return s
}

// trackerPayload is the wire format the tracking service expects.
type trackerPayload struct {
	Message   string         `json:"message"`
	Level     string         `json:"level"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	UserID    string         `json:"user_id,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
	IP        string         `json:"ip,omitempty"`
	UserAgent string         `json:"user_agent,omitempty"`
}

// Name implements Sink.
func (s *TrackerSink) Name() string { return "tracker" }

// Write implements Sink.
func (s *TrackerSink) Write(ctx context.Context, entry *Entry) error {
	payload := trackerPayload{
		Message:   entry.Message,
		Level:     entry.Level.String(),
		Timestamp: entry.Timestamp,
		Metadata:  entry.Metadata,
		UserID:    entry.UserID,
		RequestID: entry.RequestID,
		IP:        entry.IP,
		UserAgent: entry.UserAgent,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal tracker payload: %w", err)
	}

	_, err = s.breaker.Execute(func() (any, error) {
		return nil, s.post(ctx, body)
	})
	return err
}

func (s *TrackerSink) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build tracker request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post to tracker: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("tracker returned status %d", resp.StatusCode)
	}
	return nil
}
