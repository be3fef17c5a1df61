package ports

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/lantern-dev/lantern/internal/app"
	"github.com/lantern-dev/lantern/internal/domain"
	e "github.com/lantern-dev/lantern/internal/errors"
	"github.com/lantern-dev/lantern/internal/logging"
	"github.com/lantern-dev/lantern/internal/reporting"
	"github.com/lantern-dev/lantern/internal/strutils"
)

type openProjectResponseObject struct {
	Success bool   `json:"success"`
	Project string `json:"project"`
	Opened  bool   `json:"opened"`
}

func MakeOpenProjectHandler(
	openProject app.OpenProject,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	middleware := ComposeMiddlewares(
		buildMetricsMiddleware("open_project"),
		logging.NewRequestLoggerMiddleware(rootLogger),
		sentryMiddleware,
		reporting.NewAddMetaMiddleware("open_project"),
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

		opened, err := openProject(ctx, projectKey)
		if err != nil {
			logging.FromContext(ctx).Info("Failed to open project", "error", err)
			writeErrorResponse(ctx, w, err)
			return
		}

		responseData, err := json.Marshal(openProjectResponseObject{
			Success: true,
			Project: projectKey,
			Opened:  opened,
		})
		if err != nil {
			logging.FromContext(ctx).Error("Failed to marshal open project response", "error", err)
			reporting.Report(ctx, fmt.Errorf("failed to marshal open project response: %w", err))

			writeErrorResponse(ctx, w, e.APIServerError)
			return
		}

		statusCode := http.StatusOK
		if opened {
			statusCode = http.StatusCreated
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		if _, err = w.Write(responseData); err != nil {
			logging.FromContext(ctx).Error("Failed to write response", "error", err)
			reporting.Report(ctx, fmt.Errorf("failed to write open project response: %w", err))
			return
		}
	}

	return middleware(handler)
}
