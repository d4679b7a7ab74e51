// Package telemetry wraps Sentry tracing and error reporting. All helpers
// are no-ops when Sentry is not initialized, so callers never guard.
package telemetry

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/getsentry/sentry-go"
)

var enabled bool

// Init configures the Sentry client. Empty dsn leaves telemetry disabled.
func Init(dsn, environment string, sampleRate float64) error {
	if dsn == "" {
		return nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      environment,
		TracesSampleRate: sampleRate,
		ServerName:       "syllabiq",
	})
	if err != nil {
		return fmt.Errorf("initializing sentry: %w", err)
	}
	enabled = true
	log.Printf("telemetry: sentry enabled (env=%s)", environment)
	return nil
}

// Flush drains pending events on shutdown.
func Flush() {
	if enabled {
		sentry.Flush(2 * time.Second)
	}
}

// Span is a finished-once tracing span. The zero value is a no-op.
type Span struct {
	span *sentry.Span
}

// StartSpan opens a span with optional attributes.
func StartSpan(ctx context.Context, operation string, attrs map[string]string) *Span {
	if !enabled {
		return &Span{}
	}
	s := sentry.StartSpan(ctx, operation)
	for k, v := range attrs {
		s.SetTag(k, v)
	}
	return &Span{span: s}
}

// Finish closes the span.
func (s *Span) Finish() {
	if s.span != nil {
		s.span.Finish()
	}
}

// CaptureError reports an error to Sentry.
func CaptureError(err error) {
	if enabled && err != nil {
		sentry.CaptureException(err)
	}
}
