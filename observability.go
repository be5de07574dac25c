package rxflow

import (
	"time"
)

// Metric names reported through MetricsCollector.
const (
	MetricSubscriptionsOpened  = "rxflow.subscriptions.opened"
	MetricSubscriptionsClosed  = "rxflow.subscriptions.closed"
	MetricSubscriptionLifetime = "rxflow.subscription.lifetime"
	MetricSwitchFirstAdmitted  = "rxflow.switch_first.admitted"
	MetricSwitchFirstDropped   = "rxflow.switch_first.dropped"
	MetricTeardownFailures     = "rxflow.teardown.failures"
	MetricUnhandledErrors      = "rxflow.errors.unhandled"
)

// Span name and statuses reported through TracingCollector.
const (
	SpanSubscription = "rxflow.subscription"

	SpanStatusCompleted = "completed"
	SpanStatusError     = "error"
	SpanStatusCancelled = "cancelled"
)

// Logger is the logging hook used by rxflow. *slog.Logger satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// MetricsCollector receives subscription lifecycle and operator metrics.
type MetricsCollector interface {
	IncrementCounter(metric string, labels map[string]string)
	RecordDuration(metric string, duration time.Duration, labels map[string]string)
}

// TracingCollector opens one span per root subscription and finishes it when the
// subscription is released, with one of the SpanStatus values.
type TracingCollector interface {
	StartSpan(name string, attrs map[string]string) SpanContext
	FinishSpan(span SpanContext, status string, attrs map[string]string)
}

// SpanContext is an active span handed out by a TracingCollector.
type SpanContext interface {
	SetStatus(status string)
	AddAttribute(key, value string)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

type noopMetrics struct{}

func (noopMetrics) IncrementCounter(string, map[string]string)              {}
func (noopMetrics) RecordDuration(string, time.Duration, map[string]string) {}

type noopTracing struct{}

func (noopTracing) StartSpan(string, map[string]string) SpanContext   { return noopSpan{} }
func (noopTracing) FinishSpan(SpanContext, string, map[string]string) {}

type noopSpan struct{}

func (noopSpan) SetStatus(string)            {}
func (noopSpan) AddAttribute(string, string) {}
