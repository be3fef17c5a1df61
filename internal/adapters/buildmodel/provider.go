package buildmodel

import (
	"context"
	"fmt"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/singleflight"

	"github.com/lantern-dev/lantern/internal/logging"
	"github.com/lantern-dev/lantern/internal/ratelimiting"
	"github.com/lantern-dev/lantern/internal/reporting"
	"github.com/lantern-dev/lantern/internal/strutils"
)

type FetchMode int

const (
	// FetchFast returns the cached model or fails immediately with
	// ErrNotReady. It never talks to the build tool.
	FetchFast FetchMode = iota
	// FetchBlocking returns the cached model if present and otherwise waits
	// for a model build.
	FetchBlocking
)

func (m FetchMode) String() string {
	switch m {
	case FetchFast:
		return "fast"
	case FetchBlocking:
		return "blocking"
	default:
		return fmt.Sprintf("unknown(%d)", int(m))
	}
}

type Provider interface {
	// Get returns the current model for the project. Repeated calls return
	// the identical *Model until a new fetch replaces it, so callers can use
	// pointer equality as a staleness check.
	//
	// Raises ErrNotReady when mode is FetchFast and no model is cached.
	//
	// Raises ErrProjectUnknown when the build tool does not know the project.
	Get(ctx context.Context, projectKey string, mode FetchMode) (*Model, error)
}

type buildLimiter interface {
	LimitCancelable(ctx context.Context, maxOperationTime time.Duration, operation func() bool) bool
}

// Model builds routinely take minutes on large projects.
const expectedBuildTime = 2 * time.Minute

// The build tool degrades badly under concurrent model builds, so fetches
// across all projects share a small window limiter.
const concurrentBuildLimit = 2
const buildWindow = time.Second

type toolingProvider struct {
	toolingAPI ToolingAPI
	models     *ttlcache.Cache[string, *Model]
	group      singleflight.Group
	limiter    buildLimiter

	metrics toolingProviderMetricsCollection
}

func NewProvider(toolingAPI ToolingAPI, modelTTL time.Duration) (Provider, func(), error) {
	meter := otel.Meter("buildmodel/tooling_provider")
	metrics, err := setupToolingProviderMetrics(meter)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up metrics: %w", err)
	}

	models := ttlcache.New[string, *Model](
		ttlcache.WithTTL[string, *Model](modelTTL),
		ttlcache.WithDisableTouchOnHit[string, *Model](),
	)
	go models.Start()

	limiter := ratelimiting.NewWindowLimitRequestLimiter(concurrentBuildLimit, buildWindow, time.Now, time.After)

	return &toolingProvider{
		toolingAPI: toolingAPI,
		models:     models,
		limiter:    limiter,

		metrics: metrics,
	}, models.Stop, nil
}

func (p *toolingProvider) Get(ctx context.Context, projectKey string, mode FetchMode) (*Model, error) {
	if !strutils.ProjectKeyIsNormalized(projectKey) {
		logging.FromContext(ctx).Error("Project key is not normalized", "project", projectKey)
		err := fmt.Errorf("project key is not normalized")
		reporting.Report(ctx, err, map[string]string{
			"project": projectKey,
		})
		return nil, err
	}

	if item := p.models.Get(projectKey); item != nil {
		p.recordGet(ctx, mode, "hit")
		return item.Value(), nil
	}

	if mode == FetchFast {
		p.recordGet(ctx, mode, "miss")
		return nil, ErrNotReady
	}

	model, err := p.fetchModel(ctx, projectKey)
	if err != nil {
		p.recordGet(ctx, mode, "error")
		return nil, err
	}
	p.recordGet(ctx, mode, "fetched")
	return model, nil
}

// fetchModel runs at most one model build per project at a time; concurrent
// blocking gets share the winner's result.
func (p *toolingProvider) fetchModel(ctx context.Context, projectKey string) (*Model, error) {
	result, err, _ := p.group.Do(projectKey, func() (any, error) {
		// A fetch may have completed while we waited our turn
		if item := p.models.Get(projectKey); item != nil {
			return item.Value(), nil
		}

		var model *Model
		var fetchErr error
		ran := p.limiter.LimitCancelable(ctx, expectedBuildTime, func() bool {
			start := time.Now()

			data, statusCode, fetchedAt, err := p.toolingAPI.FetchModel(ctx, projectKey)
			if err != nil {
				// NOTE: ToolingAPI implementations handle their own error reporting
				fetchErr = fmt.Errorf("failed to fetch model: %w", err)
			} else {
				model, fetchErr = ToolingAPIResponseToModel(ctx, projectKey, fetchedAt, data, statusCode)
			}

			p.metrics.buildDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(
				attribute.Bool("success", fetchErr == nil),
			))
			return true
		})
		if !ran {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, fmt.Errorf("gave up waiting for a build slot: %w", ctxErr)
			}
			return nil, fmt.Errorf("%w: not enough time before deadline for a model build", ErrToolingAPI)
		}
		if fetchErr != nil {
			return nil, fetchErr
		}

		p.models.Set(projectKey, model, ttlcache.DefaultTTL)
		return model, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*Model), nil
}

func (p *toolingProvider) recordGet(ctx context.Context, mode FetchMode, outcome string) {
	p.metrics.modelGets.Add(ctx, 1, metric.WithAttributes(
		attribute.String("mode", mode.String()),
		attribute.String("outcome", outcome),
	))
}

type toolingProviderMetricsCollection struct {
	modelGets     metric.Int64Counter
	buildDuration metric.Float64Histogram
}

func setupToolingProviderMetrics(meter metric.Meter) (toolingProviderMetricsCollection, error) {
	modelGets, err := meter.Int64Counter("buildmodel/tooling_provider/model_gets")
	if err != nil {
		return toolingProviderMetricsCollection{}, fmt.Errorf("failed to create metric: %w", err)
	}

	buildDuration, err := meter.Float64Histogram(
		"buildmodel/tooling_provider/build_duration_seconds",
		metric.WithUnit("s"),
	)
	if err != nil {
		return toolingProviderMetricsCollection{}, fmt.Errorf("failed to create metric: %w", err)
	}

	return toolingProviderMetricsCollection{
		modelGets:     modelGets,
		buildDuration: buildDuration,
	}, nil
}
