package logging

import (
	"context"

	"github.com/opencampus/portalgw/internal/observability"
)

// Sink receives log entries. Implementations must be safe for
// concurrent use.
type Sink interface {
	// Name identifies the sink in fault reports and metrics.
	Name() string

	// Write delivers a single entry.
	Write(ctx context.Context, entry *Entry) error
}

// localSink writes entries to the process logger. It is the one sink
// that is always present and whose failures cannot lose an entry.
type localSink struct {
	logger observability.Logger
}

func newLocalSink(logger observability.Logger) *localSink {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &localSink{logger: logger}
}

func (s *localSink) Name() string { return "local" }

func (s *localSink) Write(_ context.Context, entry *Entry) error {
	fields := make([]observability.Field, 0, len(entry.Metadata)+5)
	if entry.RequestID != "" {
		fields = append(fields, observability.String("request_id", entry.RequestID))
	}
	if entry.UserID != "" {
		fields = append(fields, observability.String("user_id", entry.UserID))
	}
	if entry.IP != "" {
		fields = append(fields, observability.String("ip", entry.IP))
	}
	if entry.UserAgent != "" {
		fields = append(fields, observability.String("user_agent", entry.UserAgent))
	}
	for k, v := range entry.Metadata {
		fields = append(fields, observability.Any(k, v))
	}

	switch entry.Level {
	case LevelError:
		s.logger.Error(entry.Message, fields...)
	case LevelWarn:
		s.logger.Warn(entry.Message, fields...)
	case LevelHTTP:
		fields = append(fields, observability.String("channel", "http"))
		s.logger.Info(entry.Message, fields...)
	case LevelDebug:
		s.logger.Debug(entry.Message, fields...)
	default:
		s.logger.Info(entry.Message, fields...)
	}
	return nil
}
