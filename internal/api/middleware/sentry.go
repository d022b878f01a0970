package middleware

import (
	"fmt"
	"net/http"

	"github.com/getsentry/sentry-go"
)

// SentryMiddleware opens a transaction per request, tags it with the
// request ID, and reports panics and 5xx responses. It degrades to a
// no-op when Sentry was never initialized. Health probes are not traced.
func SentryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		hub := sentry.GetHubFromContext(r.Context())
		if hub == nil {
			hub = sentry.CurrentHub().Clone()
		}

		opts := []sentry.SpanOption{
			sentry.WithOpName("http.server"),
			sentry.WithTransactionSource(sentry.SourceURL),
		}
		if trace := r.Header.Get("sentry-trace"); trace != "" {
			opts = append(opts, sentry.ContinueFromHeaders(trace, r.Header.Get("baggage")))
		}

		tx := sentry.StartTransaction(r.Context(), r.Method+" "+r.URL.Path, opts...)
		defer tx.Finish()

		r = r.WithContext(sentry.SetHubOnContext(tx.Context(), hub))

		hub.Scope().SetContext("request", map[string]interface{}{
			"method":      r.Method,
			"path":        r.URL.Path,
			"query":       r.URL.RawQuery,
			"remote_addr": r.RemoteAddr,
		})
		if id := GetRequestID(r.Context()); id != "" {
			hub.Scope().SetTag("request_id", id)
			tx.SetTag("request_id", id)
		}
		if ua := r.UserAgent(); ua != "" {
			hub.Scope().SetTag("user_agent", ua)
		}

		defer func() {
			if err := recover(); err != nil {
				tx.Status = sentry.SpanStatusInternalError
				hub.RecoverWithContext(r.Context(), err)
				panic(err)
			}
		}()

		sw := &statusWriter{ResponseWriter: w}
		next.ServeHTTP(sw, r)

		status := sw.status
		if status == 0 {
			status = http.StatusOK
		}

		tx.Status = spanStatus(status)
		tx.SetData("http.response.status_code", status)

		if status >= 500 {
			hub.CaptureMessage(fmt.Sprintf("HTTP %d: %s", status, http.StatusText(status)))
		}
	})
}

var spanStatusByCode = map[int]sentry.SpanStatus{
	http.StatusBadRequest:          sentry.SpanStatusInvalidArgument,
	http.StatusUnauthorized:        sentry.SpanStatusUnauthenticated,
	http.StatusForbidden:           sentry.SpanStatusPermissionDenied,
	http.StatusNotFound:            sentry.SpanStatusNotFound,
	http.StatusConflict:            sentry.SpanStatusAlreadyExists,
	http.StatusTooManyRequests:     sentry.SpanStatusResourceExhausted,
	499:                            sentry.SpanStatusCanceled,
	http.StatusNotImplemented:      sentry.SpanStatusUnimplemented,
	http.StatusServiceUnavailable:  sentry.SpanStatusUnavailable,
	http.StatusGatewayTimeout:      sentry.SpanStatusDeadlineExceeded,
	http.StatusInternalServerError: sentry.SpanStatusInternalError,
}

func spanStatus(status int) sentry.SpanStatus {
	if s, ok := spanStatusByCode[status]; ok {
		return s
	}
	switch {
	case status >= 200 && status < 300:
		return sentry.SpanStatusOK
	case status >= 400 && status < 500:
		return sentry.SpanStatusInvalidArgument
	case status >= 500:
		return sentry.SpanStatusInternalError
	default:
		return sentry.SpanStatusUnknown
	}
}
