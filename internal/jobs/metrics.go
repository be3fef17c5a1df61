package jobs

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type jobsMetricsCollection struct {
	startedCount   metric.Int64Counter
	completedCount metric.Int64Counter
}

var metrics jobsMetricsCollection

func init() {
	const name = "lantern/jobs"
	meter := otel.Meter(name)

	startedCount, err := meter.Int64Counter(
		"jobs/started_count",
		metric.WithDescription("Total number of background jobs started"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create started count metric: %w", err))
	}

	completedCount, err := meter.Int64Counter(
		"jobs/completed_count",
		metric.WithDescription("Total number of background jobs completed"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create completed count metric: %w", err))
	}

	metrics = jobsMetricsCollection{
		startedCount:   startedCount,
		completedCount: completedCount,
	}
}

func recordJobStarted(ctx context.Context) {
	metrics.startedCount.Add(ctx, 1)
}

func recordJobCompleted(ctx context.Context, success bool) {
	result := "success"
	if !success {
		result = "error"
	}
	metrics.completedCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("result", result),
	))
}
