package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/go-chi/chi/v5"

	"github.com/cloo-solutions/tastyfind/internal/session"
	"github.com/cloo-solutions/tastyfind/internal/telemetry"
)

// SentryMiddleware opens one transaction per request, named after the chi
// route once routing is done, and tags it with the visitor's session and the
// search tab being submitted. Without sentry.Init the transaction is a no-op.
func SentryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub := sentry.GetHubFromContext(r.Context())
		if hub == nil {
			hub = sentry.CurrentHub().Clone()
		}

		options := []sentry.SpanOption{
			sentry.WithOpName("http.server"),
			sentry.WithTransactionSource(sentry.SourceURL),
		}
		if trace := r.Header.Get(sentry.SentryTraceHeader); trace != "" {
			options = append(options, sentry.ContinueFromHeaders(trace, r.Header.Get(sentry.SentryBaggageHeader)))
		}

		transaction := sentry.StartTransaction(r.Context(), r.Method+" "+r.URL.Path, options...)
		defer transaction.Finish()

		r = r.WithContext(sentry.SetHubOnContext(transaction.Context(), hub))

		scope := hub.Scope()
		scope.SetRequest(r)
		tag := func(key, value string) {
			if value == "" {
				return
			}
			scope.SetTag(key, value)
			transaction.SetTag(key, value)
		}
		tag("request_id", GetRequestID(r.Context()))
		if c, err := r.Cookie(session.CookieName); err == nil {
			tag("session_id", c.Value)
		}
		if tab, ok := strings.CutPrefix(r.URL.Path, "/search/"); ok && r.Method == http.MethodPost {
			tag("search_tab", tab)
		}

		defer func() {
			if err := recover(); err != nil {
				transaction.Status = sentry.SpanStatusInternalError
				hub.RecoverWithContext(r.Context(), err)
				panic(err)
			}
		}()

		rec := &responseRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			transaction.Name = r.Method + " " + rctx.RoutePattern()
			transaction.Source = sentry.SourceRoute
		}

		status := rec.statusCode()
		transaction.Status = telemetry.SpanStatusForHTTP(status)
		transaction.SetData("http.response.status_code", status)

		if status >= 500 {
			hub.CaptureMessage(fmt.Sprintf("HTTP %d: %s", status, http.StatusText(status)))
		}
	})
}
