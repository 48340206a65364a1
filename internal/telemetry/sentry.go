// Package telemetry wires Sentry error reporting and tracing for tastyfind.
package telemetry

import (
	"context"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
)

const (
	serverName   = "tastyfind"
	flushTimeout = 5 * time.Second
)

// Config holds the Sentry settings.
type Config struct {
	DSN              string
	Environment      string
	TracesSampleRate float64
	Debug            bool
}

// Transactions that are never worth sampling.
var unsampled = map[string]bool{
	"GET /health":  true,
	"GET /metrics": true,
}

// Init starts the Sentry client and returns a flush function for shutdown.
// An empty DSN disables Sentry. A client that fails to start is logged and
// skipped; it never stops the daemon.
func Init(cfg Config, logger *zap.Logger) (func(), error) {
	noop := func() {}
	if cfg.DSN == "" {
		return noop, nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.TracesSampleRate == 0 {
		cfg.TracesSampleRate = 1.0
	}

	rate := cfg.TracesSampleRate
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		ServerName:       serverName,
		Debug:            cfg.Debug,
		EnableTracing:    true,
		TracesSampleRate: rate,
		TracesSampler: sentry.TracesSampler(func(sc sentry.SamplingContext) float64 {
			if unsampled[sc.Span.Name] {
				return 0
			}
			// Children inherit the parent's decision.
			if sc.Span.ParentSpanID != (sentry.SpanID{}) {
				if sc.Span.Sampled.Bool() {
					return 1
				}
				return 0
			}
			return rate
		}),
	})
	if err != nil {
		logger.Warn("sentry disabled", zap.Error(err))
		return noop, nil
	}

	logger.Info("sentry enabled",
		zap.String("environment", cfg.Environment),
		zap.Float64("sample_rate", rate),
	)
	return func() { sentry.Flush(flushTimeout) }, nil
}

// SpanAttributes describes one backend call.
type SpanAttributes struct {
	Operation string
	Method    string
	Path      string
}

// Span is a nil-safe wrapper over a sentry span.
type Span struct {
	inner *sentry.Span
}

// StartSpan opens a child of the span already in ctx, or a new transaction
// when there is none.
func StartSpan(ctx context.Context, name string, attrs SpanAttributes) (context.Context, *Span) {
	var span *sentry.Span
	if parent := sentry.SpanFromContext(ctx); parent != nil {
		span = parent.StartChild(name)
	} else {
		span = sentry.StartSpan(ctx, name, sentry.WithTransactionName(name))
	}

	if attrs.Operation != "" {
		span.SetTag("operation", attrs.Operation)
	}
	if attrs.Method != "" {
		span.SetData("http.request.method", attrs.Method)
	}
	if attrs.Path != "" {
		span.SetData("url.path", attrs.Path)
	}
	return span.Context(), &Span{inner: span}
}

func (s *Span) End() {
	if s.inner != nil {
		s.inner.Finish()
	}
}

// SetHTTPStatus records the backend response code on the span.
func (s *Span) SetHTTPStatus(code int) {
	if s.inner == nil {
		return
	}
	s.inner.SetData("http.response.status_code", code)
	s.inner.Status = SpanStatusForHTTP(code)
}

// SetError marks the span failed and reports err on the span's hub.
func (s *Span) SetError(err error) {
	if s.inner == nil || err == nil {
		return
	}
	s.inner.Status = sentry.SpanStatusInternalError
	hub := sentry.GetHubFromContext(s.inner.Context())
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.CaptureException(err)
}

// Context returns the span's context, or a background context for a nil span.
func (s *Span) Context() context.Context {
	if s.inner == nil {
		return context.Background()
	}
	return s.inner.Context()
}

var exactStatus = map[int]sentry.SpanStatus{
	http.StatusBadRequest:            sentry.SpanStatusInvalidArgument,
	http.StatusUnauthorized:          sentry.SpanStatusUnauthenticated,
	http.StatusForbidden:             sentry.SpanStatusPermissionDenied,
	http.StatusNotFound:              sentry.SpanStatusNotFound,
	http.StatusConflict:              sentry.SpanStatusAlreadyExists,
	http.StatusRequestEntityTooLarge: sentry.SpanStatusFailedPrecondition,
	http.StatusTooManyRequests:       sentry.SpanStatusResourceExhausted,
	499:                              sentry.SpanStatusCanceled,
	http.StatusNotImplemented:        sentry.SpanStatusUnimplemented,
	http.StatusServiceUnavailable:    sentry.SpanStatusUnavailable,
	http.StatusGatewayTimeout:        sentry.SpanStatusDeadlineExceeded,
}

// SpanStatusForHTTP maps an HTTP status code to a span status.
func SpanStatusForHTTP(code int) sentry.SpanStatus {
	if st, ok := exactStatus[code]; ok {
		return st
	}
	switch {
	case code >= 200 && code < 300:
		return sentry.SpanStatusOK
	case code >= 400 && code < 500:
		return sentry.SpanStatusInvalidArgument
	case code >= 500 && code < 600:
		return sentry.SpanStatusInternalError
	}
	return sentry.SpanStatusUnknown
}
