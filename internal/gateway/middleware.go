package gateway

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/canonica-labs/querygate/internal/errors"
	"github.com/canonica-labs/querygate/internal/observability"
	"github.com/canonica-labs/querygate/pkg/api"
)

type contextKey string

const (
	requestIDKey   contextKey = "request_id"
	requestInfoKey contextKey = "request_info"
)

// RequestID returns the request id stored by the gateway, or "".
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// requestIDMiddleware keeps a client-supplied X-Request-ID or generates one.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(api.HeaderRequestID)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set(api.HeaderRequestID, requestID)

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestInfo collects what handlers learn about a request for the access log.
type requestInfo struct {
	queryKey string
	table    string
	format   string
	window   string
	rows     int
	err      error
}

func infoFrom(ctx context.Context) *requestInfo {
	if info, ok := ctx.Value(requestInfoKey).(*requestInfo); ok {
		return info
	}
	return &requestInfo{}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

// accessLogMiddleware writes one log entry per request after the handler returns.
func (g *Gateway) accessLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		info := &requestInfo{}
		sw := &statusWriter{ResponseWriter: w}

		ctx := context.WithValue(r.Context(), requestInfoKey, info)
		next.ServeHTTP(sw, r.WithContext(ctx))

		status := sw.status
		if status == 0 {
			status = http.StatusOK
		}
		entry := observability.RequestLogEntry{
			RequestID: RequestID(ctx),
			Method:    r.Method,
			Path:      r.URL.Path,
			Status:    status,
			QueryKey:  info.queryKey,
			Table:     info.table,
			Format:    info.format,
			Window:    info.window,
			Rows:      info.rows,
			Duration:  time.Since(start),
		}
		if info.err != nil {
			entry.Error = info.err.Error()
		}
		if err := g.requests.LogRequest(ctx, entry); err != nil {
			g.log.WithError(err).Warn("dropping request log entry")
		}
	})
}

// recoveryMiddleware turns a panic into a 500. Deferred connection releases in the
// handler have already run by the time recover returns.
func (g *Gateway) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				g.writeError(w, r, errors.NewInternal(fmt.Errorf("panic: %v", rec)))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// requireKey rejects the request unless the configured header carries the API key.
func (g *Gateway) requireKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := g.auth.Authenticate(r.Context(), r.Header.Get(g.cfg.AuthHeader)); err != nil {
			g.writeError(w, r, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}
