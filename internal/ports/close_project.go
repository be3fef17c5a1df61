package ports

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/lantern-dev/lantern/internal/app"
	"github.com/lantern-dev/lantern/internal/domain"
	"github.com/lantern-dev/lantern/internal/logging"
	"github.com/lantern-dev/lantern/internal/reporting"
	"github.com/lantern-dev/lantern/internal/strutils"
)

func MakeCloseProjectHandler(
	closeProject app.CloseProject,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	middleware := ComposeMiddlewares(
		buildMetricsMiddleware("close_project"),
		logging.NewRequestLoggerMiddleware(rootLogger),
		sentryMiddleware,
		reporting.NewAddMetaMiddleware("close_project"),
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

		if err := closeProject(ctx, projectKey); err != nil {
			logging.FromContext(ctx).Info("Failed to close project", "error", err)
			writeErrorResponse(ctx, w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}

	return middleware(handler)
}
