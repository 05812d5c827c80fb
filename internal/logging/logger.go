package logging

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/opencampus/portalgw/internal/observability"
)

// DefaultForwardLevel is the minimum level forwarded to the error
// tracking service when no threshold is configured.
const DefaultForwardLevel = LevelError

// Logger fans log entries out to the local sink, persistent storage,
// the error tracker and the alert webhook. The local and persistence
// sinks receive every entry; forwarding is gated on the forward level.
// Sink failures never surface to the caller.
type Logger struct {
	local   Sink
	persist Sink
	tracker Sink
	alerter Sink

	// forwardLevel is atomic so config reloads can adjust it while
	// requests are in flight.
	forwardLevel atomic.Int32

	fallback observability.Logger
	clock    func() time.Time
	fields   map[string]any
}

// Option configures a Logger.
type Option func(*Logger)

// WithPersistSink sets the persistent storage sink.
func WithPersistSink(s Sink) Option {
	return func(l *Logger) { l.persist = s }
}

// WithTrackerSink sets the external error-tracking sink.
func WithTrackerSink(s Sink) Option {
	return func(l *Logger) { l.tracker = s }
}

// WithAlertSink sets the alert webhook sink.
func WithAlertSink(s Sink) Option {
	return func(l *Logger) { l.alerter = s }
}

// WithForwardLevel sets the minimum level forwarded to the tracker.
func WithForwardLevel(level Level) Option {
	return func(l *Logger) { l.forwardLevel.Store(int32(level)) }
}

// WithClock overrides the timestamp source.
func WithClock(clock func() time.Time) Option {
	return func(l *Logger) { l.clock = clock }
}

// New creates a pipeline logger. The process logger backs the local
// sink and receives sink fault reports.
func New(local observability.Logger, opts ...Option) *Logger {
	if local == nil {
		local = observability.NopLogger()
	}
	l := &Logger{
		local:    newLocalSink(local),
		fallback: local,
		clock:    time.Now,
	}
	l.forwardLevel.Store(int32(DefaultForwardLevel))
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// SetForwardLevel adjusts the forwarding threshold at runtime.
func (l *Logger) SetForwardLevel(level Level) {
	l.forwardLevel.Store(int32(level))
}

// ForwardLevel returns the current forwarding threshold.
func (l *Logger) ForwardLevel() Level {
	return Level(l.forwardLevel.Load())
}

// With returns a logger that attaches fields to every entry it emits.
// Call-site metadata wins over attached fields on key collisions.
func (l *Logger) With(fields map[string]any) *Logger {
	merged := make(map[string]any, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}

	scoped := &Logger{
		local:    l.local,
		persist:  l.persist,
		tracker:  l.tracker,
		alerter:  l.alerter,
		fallback: l.fallback,
		clock:    l.clock,
		fields:   merged,
	}
	scoped.forwardLevel.Store(l.forwardLevel.Load())
	return scoped
}

// Debug logs at debug level.
func (l *Logger) Debug(ctx context.Context, msg string, metadata map[string]any) {
	l.Log(ctx, LevelDebug, msg, metadata)
}

// HTTP logs a request outcome record.
func (l *Logger) HTTP(ctx context.Context, msg string, metadata map[string]any) {
	l.Log(ctx, LevelHTTP, msg, metadata)
}

// Info logs at info level.
func (l *Logger) Info(ctx context.Context, msg string, metadata map[string]any) {
	l.Log(ctx, LevelInfo, msg, metadata)
}

// Warn logs at warn level.
func (l *Logger) Warn(ctx context.Context, msg string, metadata map[string]any) {
	l.Log(ctx, LevelWarn, msg, metadata)
}

// Error logs at error level.
func (l *Logger) Error(ctx context.Context, msg string, metadata map[string]any) {
	l.Log(ctx, LevelError, msg, metadata)
}

// Log builds an entry and delivers it to every applicable sink. The
// local and persistence sinks always receive the entry. The tracker
// receives it when the level is at or above the forward threshold, and
// the alert webhook when the level is error. A failing sink is
// reported on the local logger and otherwise ignored.
func (l *Logger) Log(ctx context.Context, level Level, msg string, metadata map[string]any) {
	if ctx == nil {
		ctx = context.Background()
	}

	entry := &Entry{
		ID:        uuid.NewString(),
		Level:     level,
		Message:   msg,
		Metadata:  l.mergeMetadata(metadata),
		Timestamp: l.clock().UTC(),
	}
	if info := RequestInfoFromContext(ctx); info != nil {
		entry.UserID = info.UserID
		entry.IP = info.IP
		entry.UserAgent = info.UserAgent
		entry.RequestID = info.RequestID
	}

	l.deliver(ctx, l.local, entry)
	if l.persist != nil {
		l.deliver(ctx, l.persist, entry)
	}
	if l.tracker != nil && level.AtLeast(l.ForwardLevel()) {
		l.deliver(ctx, l.tracker, entry)
	}
	if l.alerter != nil && level.AtLeast(LevelError) {
		l.deliver(ctx, l.alerter, entry)
	}
}

func (l *Logger) mergeMetadata(metadata map[string]any) map[string]any {
	if len(l.fields) == 0 {
		return metadata
	}
	merged := make(map[string]any, len(l.fields)+len(metadata))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range metadata {
		merged[k] = v
	}
	return merged
}

func (l *Logger) deliver(ctx context.Context, sink Sink, entry *Entry) {
	defer func() {
		if r := recover(); r != nil {
			recordSinkFault(sink.Name())
			l.fallback.Warn("log sink panicked",
				observability.String("sink", sink.Name()),
				observability.Any("panic", r))
		}
	}()

	if err := sink.Write(ctx, entry); err != nil {
		recordSinkFault(sink.Name())
		l.fallback.Warn("log sink write failed",
			observability.String("sink", sink.Name()),
			observability.Error(err))
	}
}
