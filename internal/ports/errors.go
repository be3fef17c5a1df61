package ports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/lantern-dev/lantern/internal/domain"
	e "github.com/lantern-dev/lantern/internal/errors"
	"github.com/lantern-dev/lantern/internal/logging"
	"github.com/lantern-dev/lantern/internal/reporting"
)

type errorResponseObject struct {
	Success bool   `json:"success"`
	Cause   string `json:"cause"`
}

func writeErrorResponse(ctx context.Context, w http.ResponseWriter, responseError error) {
	w.Header().Set("Content-Type", "application/json")

	response := errorResponseObject{
		Success: false,
		Cause:   responseError.Error(),
	}
	responseBytes, err := json.Marshal(response)
	if err != nil {
		logging.FromContext(ctx).Error("Failed to marshal error response", "error", err.Error())
		reporting.Report(ctx, fmt.Errorf("failed to marshal error response: %w", err))

		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"success":false,"cause":"Internal server error (lantern)"}`))
		return
	}

	// Unknown error: default to 500
	statusCode := http.StatusInternalServerError

	if errors.Is(responseError, domain.ErrInvalidProjectKey) {
		statusCode = http.StatusBadRequest
	} else if errors.Is(responseError, domain.ErrProjectNotRegistered) {
		statusCode = http.StatusNotFound
	} else if errors.Is(responseError, e.RatelimitExceededError) {
		statusCode = http.StatusTooManyRequests
	} else if errors.Is(responseError, e.APIClientError) {
		statusCode = http.StatusBadRequest
	} else if errors.Is(responseError, e.APIServerError) {
		statusCode = http.StatusInternalServerError
	}

	w.WriteHeader(statusCode)
	w.Write(responseBytes)
}
