package classpath

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type readOutcome string

const (
	readOutcomeCacheHit  readOutcome = "cache_hit"
	readOutcomeResolved  readOutcome = "resolved"
	readOutcomePersisted readOutcome = "persisted"
	readOutcomeEmpty     readOutcome = "empty"
)

type classpathMetricsCollection struct {
	readCount       metric.Int64Counter
	resolveDuration metric.Float64Histogram
}

var metrics classpathMetricsCollection

func init() {
	const name = "lantern/classpath"
	meter := otel.Meter(name)

	readCount, err := meter.Int64Counter(
		"classpath/read_count",
		metric.WithDescription("Total number of classpath reads by outcome"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create read count metric: %w", err))
	}

	resolveDuration, err := meter.Float64Histogram(
		"classpath/resolve_duration",
		metric.WithDescription("Duration of model to classpath entry resolution"),
		metric.WithUnit("s"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create resolve duration metric: %w", err))
	}

	metrics = classpathMetricsCollection{
		readCount:       readCount,
		resolveDuration: resolveDuration,
	}
}

func recordRead(ctx context.Context, outcome readOutcome) {
	metrics.readCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", string(outcome)),
	))
}

func recordResolveDuration(ctx context.Context, duration time.Duration) {
	metrics.resolveDuration.Record(ctx, duration.Seconds())
}
