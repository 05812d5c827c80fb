package logging

import (
	"context"
	"time"
)

// Entry is a single record flowing through the pipeline.
type Entry struct {
	ID        string         `json:"id"`
	Level     Level          `json:"level"`
	Message   string         `json:"message"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	UserID    string         `json:"user_id,omitempty"`
	IP        string         `json:"ip,omitempty"`
	UserAgent string         `json:"user_agent,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
}

// RequestInfo carries per-request client details that enrich every
// entry logged within the request's context.
type RequestInfo struct {
	UserID    string
	IP        string
	UserAgent string
	RequestID string
}

type requestInfoKey struct{}

// ContextWithRequestInfo attaches request details to the context.
func ContextWithRequestInfo(ctx context.Context, info *RequestInfo) context.Context {
	return context.WithValue(ctx, requestInfoKey{}, info)
}

// RequestInfoFromContext returns the request details attached to the
// context, or nil.
func RequestInfoFromContext(ctx context.Context) *RequestInfo {
	if ctx == nil {
		return nil
	}
	info, _ := ctx.Value(requestInfoKey{}).(*RequestInfo)
	return info
}

// SetUserID records the authenticated user on the context's request
// info, if present. Entries logged after authentication pick it up.
func SetUserID(ctx context.Context, userID string) {
	if info := RequestInfoFromContext(ctx); info != nil {
		info.UserID = userID
	}
}
