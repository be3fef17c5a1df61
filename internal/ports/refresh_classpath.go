package ports

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/lantern-dev/lantern/internal/app"
	"github.com/lantern-dev/lantern/internal/domain"
	e "github.com/lantern-dev/lantern/internal/errors"
	"github.com/lantern-dev/lantern/internal/logging"
	"github.com/lantern-dev/lantern/internal/ratelimiting"
	"github.com/lantern-dev/lantern/internal/reporting"
	"github.com/lantern-dev/lantern/internal/strutils"
)

func MakeRefreshClasspathHandler(
	refreshClasspath app.RefreshClasspath,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	ipLimiter, _ := ratelimiting.NewTokenBucketRateLimiter(
		ratelimiting.RefillPerSecond(2),
		ratelimiting.BurstSize(30),
	)
	ipRateLimiter := ratelimiting.NewRequestBasedRateLimiter(
		ipLimiter,
		ratelimiting.IPKeyFunc,
	)
	projectLimiter, _ := ratelimiting.NewTokenBucketRateLimiter(
		ratelimiting.RefillPerSecond(1),
		ratelimiting.BurstSize(10),
	)
	projectRateLimiter := ratelimiting.NewRequestBasedRateLimiter(
		// NOTE: Rate limiting based on user controlled value
		projectLimiter,
		ratelimiting.ProjectKeyFunc,
	)

	makeOnLimitExceeded := func(rateLimiter ratelimiting.RequestRateLimiter) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			logging.FromContext(ctx).Info("Rate limit exceeded", "statusCode", http.StatusTooManyRequests, "reason", "ratelimit exceeded", "key", rateLimiter.KeyFor(r))

			writeErrorResponse(ctx, w, e.RatelimitExceededError)
		}
	}

	middleware := ComposeMiddlewares(
		buildMetricsMiddleware("refresh_classpath"),
		logging.NewRequestLoggerMiddleware(rootLogger),
		sentryMiddleware,
		reporting.NewAddMetaMiddleware("refresh_classpath"),
		NewRateLimitMiddleware(ipRateLimiter, makeOnLimitExceeded(ipRateLimiter)),
		NewRateLimitMiddleware(projectRateLimiter, makeOnLimitExceeded(projectRateLimiter)),
	)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		rawProjectKey := r.PathValue("project")

		clientID := r.Header.Get("X-Client-Id")
		if clientID == "" {
			clientID = "<missing>"
		}
		ctx = reporting.SetUserIDInContext(ctx, clientID)
		ctx = logging.AddMetaToContext(ctx,
			slog.String("clientId", clientID),
			slog.String("rawProjectKey", rawProjectKey),
		)
		ctx = reporting.AddExtrasToContext(ctx,
			map[string]string{
				"rawProjectKey": rawProjectKey,
			},
		)

		projectKey, err := strutils.NormalizeProjectKey(rawProjectKey)
		if err != nil {
			statusCode := http.StatusBadRequest
			logging.FromContext(ctx).Info("Invalid project key. Returning error", "statusCode", statusCode, "reason", "invalid project key")
			writeErrorResponse(ctx, w, fmt.Errorf("%w: %w", domain.ErrInvalidProjectKey, err))
			return
		}

		ctx = reporting.AddExtrasToContext(ctx,
			map[string]string{
				"projectKey": projectKey,
			},
		)
		ctx = logging.AddMetaToContext(ctx, slog.String("projectKey", projectKey))

		view, err := refreshClasspath(ctx, projectKey)
		if err != nil {
			logging.FromContext(ctx).Info("Failed to refresh classpath", "error", err)
			writeErrorResponse(ctx, w, err)
			return
		}

		responseData, err := classpathToResponse(view)
		if err != nil {
			logging.FromContext(ctx).Error("Failed to convert classpath to response", "error", err)
			reporting.Report(ctx, fmt.Errorf("failed to convert classpath to response: %w", err))

			writeErrorResponse(ctx, w, e.APIServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err = w.Write(responseData); err != nil {
			logging.FromContext(ctx).Error("Failed to write response", "error", err)
			reporting.Report(ctx, fmt.Errorf("failed to write refreshed classpath response: %w", err))
			return
		}
	}

	return middleware(handler)
}
