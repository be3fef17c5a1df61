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

const (
	entryKindLibrary = "library"
	entryKindProject = "project"
)

type entryResponse struct {
	Kind        string `json:"kind"`
	Path        string `json:"path"`
	Exported    bool   `json:"exported"`
	SourcePath  string `json:"sourcePath,omitempty"`
	JavadocPath string `json:"javadocPath,omitempty"`
}

type classpathResponseObject struct {
	Success     bool            `json:"success"`
	Project     string          `json:"project"`
	Description string          `json:"description"`
	Entries     []entryResponse `json:"entries"`
}

func entryKindToString(kind domain.EntryKind) (string, error) {
	switch kind {
	case domain.EntryKindLibrary:
		return entryKindLibrary, nil
	case domain.EntryKindProject:
		return entryKindProject, nil
	}
	return "", fmt.Errorf("unknown entry kind: %v", kind)
}

func classpathToResponse(view app.ClasspathView) ([]byte, error) {
	entries := make([]entryResponse, 0, len(view.Entries))
	for _, entry := range view.Entries {
		kind, err := entryKindToString(entry.Kind)
		if err != nil {
			return nil, fmt.Errorf("failed to convert entry kind to string: %w", err)
		}
		entries = append(entries, entryResponse{
			Kind:        kind,
			Path:        entry.Path,
			Exported:    entry.Exported,
			SourcePath:  entry.SourcePath,
			JavadocPath: entry.JavadocPath,
		})
	}

	response := classpathResponseObject{
		Success:     true,
		Project:     view.ProjectKey,
		Description: view.Description,
		Entries:     entries,
	}

	data, err := json.Marshal(response)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal classpath response: %w", err)
	}

	return data, nil
}

func MakeGetClasspathHandler(
	getClasspath app.GetClasspath,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	middleware := ComposeMiddlewares(
		buildMetricsMiddleware("get_classpath"),
		logging.NewRequestLoggerMiddleware(rootLogger),
		sentryMiddleware,
		reporting.NewAddMetaMiddleware("get_classpath"),
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

		view, err := getClasspath(ctx, projectKey)
		if err != nil {
			logging.FromContext(ctx).Info("Failed to get classpath", "error", err)
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
			reporting.Report(ctx, fmt.Errorf("failed to write classpath response: %w", err))
			return
		}
	}

	return middleware(handler)
}
