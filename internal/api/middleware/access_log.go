package middleware

import (
	"encoding/json"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
)

type accessLogEntry struct {
	Timestamp  string `json:"ts"`
	Level      string `json:"level"`
	Method     string `json:"method"`
	Path       string `json:"path"`
	Route      string `json:"route,omitempty"`
	Status     int    `json:"status"`
	BytesIn    int64  `json:"bytes_in,omitempty"`
	Bytes      int    `json:"bytes"`
	DurationMS int64  `json:"duration_ms"`
	RequestID  string `json:"request_id,omitempty"`
	RemoteAddr string `json:"remote_addr,omitempty"`
	UserAgent  string `json:"user_agent,omitempty"`
}

// AccessLog writes one JSON line per request to the standard logger.
// It must run after RequestID.
func AccessLog(next http.Handler) http.Handler {
	return NewAccessLog(log.Default())(next)
}

// NewAccessLog is AccessLog with an explicit destination.
func NewAccessLog(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := wrapWriter(w)

			next.ServeHTTP(sw, r)

			status := sw.Status()
			entry := accessLogEntry{
				Timestamp:  start.UTC().Format(time.RFC3339Nano),
				Level:      levelFor(status),
				Method:     r.Method,
				Path:       r.URL.Path,
				Route:      routePattern(r),
				Status:     status,
				BytesIn:    r.ContentLength,
				Bytes:      sw.bytes,
				DurationMS: time.Since(start).Milliseconds(),
				RequestID:  GetRequestID(r.Context()),
				RemoteAddr: clientIP(r),
				UserAgent:  r.UserAgent(),
			}
			if entry.BytesIn < 0 {
				entry.BytesIn = 0
			}

			payload, err := json.Marshal(entry)
			if err != nil {
				logger.Printf("access_log_marshal_error: %v", err)
				return
			}
			logger.Println(string(payload))
		})
	}
}

func levelFor(status int) string {
	switch {
	case status >= 500:
		return "error"
	case status >= 400:
		return "warn"
	default:
		return "info"
	}
}

// routePattern is the matched chi pattern, empty outside a chi router.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		return rctx.RoutePattern()
	}
	return ""
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
