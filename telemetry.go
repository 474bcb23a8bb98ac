package yamlls

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	tracer = otel.Tracer("yamlls")
	meter  = otel.Meter("yamlls")
)

var (
	requestLatency metric.Float64Histogram
	resultCount    metric.Int64Histogram
	internalErrors metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics creates the instruments once. Without a configured provider
// they are no-ops.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		requestLatency, err = meter.Float64Histogram(
			"yamlls_request_duration_seconds",
			metric.WithDescription("Duration of language requests"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		resultCount, err = meter.Int64Histogram(
			"yamlls_result_count",
			metric.WithDescription("Number of results returned by language requests"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		internalErrors, err = meter.Int64Counter(
			"yamlls_internal_errors_total",
			metric.WithDescription("Requests that panicked and returned an empty result"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

func startRequestSpan(ctx context.Context, operation, docURI string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "yamlls."+operation,
		trace.WithAttributes(
			attribute.String("yamlls.operation", operation),
			attribute.String("yamlls.uri", docURI),
		),
	)
}

func recordRequest(ctx context.Context, operation string, duration time.Duration, results int, success bool) {
	if err := initMetrics(); err != nil {
		return
	}
	requestLatency.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.Bool("success", success),
	))
	if success {
		resultCount.Record(ctx, int64(results), metric.WithAttributes(
			attribute.String("operation", operation),
		))
	}
}

func recordInternalError(ctx context.Context, operation string) {
	if err := initMetrics(); err != nil {
		return
	}
	internalErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", operation)))
}
