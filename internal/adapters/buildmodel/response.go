package buildmodel

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	e "github.com/lantern-dev/lantern/internal/errors"
	"github.com/lantern-dev/lantern/internal/logging"
	"github.com/lantern-dev/lantern/internal/reporting"
)

type toolingAPIResponse struct {
	Success      bool                   `json:"success"`
	ProjectKey   string                 `json:"projectKey"`
	GeneratedAt  *int64                 `json:"generatedAt,omitempty"`
	Dependencies []toolingAPIDependency `json:"deps"`
	Cause        *string                `json:"cause,omitempty"`
}

type toolingAPIDependency struct {
	Name        string `json:"name"`
	File        string `json:"file,omitempty"`
	ProjectKey  string `json:"projectKey,omitempty"`
	SourceFile  string `json:"sourceFile,omitempty"`
	JavadocFile string `json:"javadocFile,omitempty"`
	Exported    bool   `json:"exported,omitempty"`
}

func checkForToolingError(statusCode int, data []byte) error {
	// Only support 200 OK
	if statusCode == 200 {
		// Check for HTML response
		if len(data) > 0 && data[0] == '<' {
			return fmt.Errorf("%w: tooling api returned HTML %w", ErrToolingAPI, e.RetriableError)
		}

		return nil
	}

	// Error for unknown status code
	err := fmt.Errorf("%w: tooling api returned unsupported status code: %d", ErrToolingAPI, statusCode)

	// Errors for known status codes
	switch statusCode {
	case 404:
		err = ErrProjectUnknown
	case 429:
		err = fmt.Errorf("%w: tooling api ratelimit exceeded %w", ErrToolingAPI, e.RetriableError)
	case 500, 502, 503, 504:
		err = fmt.Errorf("%w: tooling api returned status code %d (%s) %w", ErrToolingAPI, statusCode, http.StatusText(statusCode), e.RetriableError)
	}

	return err
}

// ToolingAPIResponseToModel validates the raw tooling api response and builds
// a fresh Model from it.
func ToolingAPIResponseToModel(ctx context.Context, projectKey string, fetchedAt time.Time, data []byte, statusCode int) (*Model, error) {
	err := checkForToolingError(statusCode, data)
	if err != nil {
		logging.FromContext(ctx).Error(
			"Got response from tooling api",
			"status", "error",
			"error", err.Error(),
			"statusCode", statusCode,
			"contentLength", len(data),
		)
		return nil, err
	}

	logging.FromContext(ctx).Info(
		"Got response from tooling api",
		"status", "success",
		"statusCode", statusCode,
		"contentLength", len(data),
	)

	var response toolingAPIResponse
	if err := json.Unmarshal(data, &response); err != nil {
		err = fmt.Errorf("%w: failed to parse model response: %w", ErrToolingAPI, err)
		reporting.Report(ctx, err, map[string]string{
			"statusCode": fmt.Sprint(statusCode),
			"data":       string(data),
		})
		return nil, err
	}

	if !response.Success {
		cause := "unknown error (lantern)"
		if response.Cause != nil {
			cause = *response.Cause
		}
		return nil, fmt.Errorf("%w: %s", ErrToolingAPI, cause)
	}

	if response.ProjectKey != projectKey {
		err = fmt.Errorf("%w: model is for project %q, requested %q", ErrToolingAPI, response.ProjectKey, projectKey)
		reporting.Report(ctx, err)
		return nil, err
	}

	generatedAt := fetchedAt
	if response.GeneratedAt != nil {
		generatedAt = time.UnixMilli(*response.GeneratedAt)
	}

	dependencies := make([]Dependency, 0, len(response.Dependencies))
	for _, dep := range response.Dependencies {
		dependencies = append(dependencies, Dependency{
			Name:        dep.Name,
			File:        dep.File,
			ProjectKey:  dep.ProjectKey,
			SourceFile:  dep.SourceFile,
			JavadocFile: dep.JavadocFile,
			Exported:    dep.Exported,
		})
	}

	return &Model{
		ProjectKey:   projectKey,
		GeneratedAt:  generatedAt,
		FetchedAt:    fetchedAt,
		Dependencies: dependencies,
	}, nil
}
