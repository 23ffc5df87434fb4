package middleware

import (
	"fmt"
	"log"
	"net/http"

	"github.com/cloo-solutions/ragserve/internal/api"
	"github.com/getsentry/sentry-go"
)

// SentryMiddleware runs each request inside its own hub and transaction.
// Panics are captured and answered with the generic 500 body. Without an
// initialized client the transaction is discarded.
func SentryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub := sentry.GetHubFromContext(r.Context())
		if hub == nil {
			hub = sentry.CurrentHub().Clone()
		}

		options := []sentry.SpanOption{
			sentry.WithOpName("http.server"),
			sentry.WithTransactionSource(sentry.SourceURL),
			sentry.ContinueFromRequest(r),
		}
		tx := sentry.StartTransaction(sentry.SetHubOnContext(r.Context(), hub),
			fmt.Sprintf("%s %s", r.Method, r.URL.Path), options...)
		defer tx.Finish()

		requestID := GetRequestID(r.Context())
		hub.Scope().SetRequest(r)
		if requestID != "" {
			hub.Scope().SetTag("request_id", requestID)
			tx.SetTag("request_id", requestID)
		}

		sw := wrapWriter(w)
		r = r.WithContext(tx.Context())

		defer func() {
			if p := recover(); p != nil {
				if p == http.ErrAbortHandler {
					panic(p)
				}
				tx.Status = sentry.SpanStatusInternalError
				hub.RecoverWithContext(r.Context(), p)
				log.Printf("panic serving %s %s (request_id=%s): %v", r.Method, r.URL.Path, requestID, p)
				if !sw.wroteHeader() {
					api.Error(sw, http.StatusInternalServerError, api.InternalErrorMessage)
				}
			}
		}()

		next.ServeHTTP(sw, r)

		if route := routePattern(r); route != "" {
			tx.Name = fmt.Sprintf("%s %s", r.Method, route)
			tx.Source = sentry.SourceRoute
		}
		tx.Status = httpStatusToSpanStatus(sw.Status())
		tx.SetData("http.response.status_code", sw.Status())
	})
}

var spanStatusByCode = map[int]sentry.SpanStatus{
	http.StatusBadRequest:            sentry.SpanStatusInvalidArgument,
	http.StatusNotFound:              sentry.SpanStatusNotFound,
	http.StatusMethodNotAllowed:      sentry.SpanStatusUnimplemented,
	http.StatusRequestEntityTooLarge: sentry.SpanStatusResourceExhausted,
	http.StatusTooManyRequests:       sentry.SpanStatusResourceExhausted,
	499:                              sentry.SpanStatusCanceled,
	http.StatusNotImplemented:        sentry.SpanStatusUnimplemented,
	http.StatusServiceUnavailable:    sentry.SpanStatusUnavailable,
	http.StatusGatewayTimeout:        sentry.SpanStatusDeadlineExceeded,
}

func httpStatusToSpanStatus(status int) sentry.SpanStatus {
	if s, ok := spanStatusByCode[status]; ok {
		return s
	}
	switch {
	case status < 400:
		return sentry.SpanStatusOK
	case status < 500:
		return sentry.SpanStatusInvalidArgument
	default:
		return sentry.SpanStatusInternalError
	}
}
