package buildmodel

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/lantern-dev/lantern/internal/config"
	"github.com/lantern-dev/lantern/internal/constants"
	"github.com/lantern-dev/lantern/internal/logging"
	"github.com/lantern-dev/lantern/internal/reporting"
)

type HttpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// ToolingAPI is the raw transport to the build tool's model endpoint.
// Fetching may trigger a model build on the tooling side and take a while.
type ToolingAPI interface {
	FetchModel(ctx context.Context, projectKey string) ([]byte, int, time.Time, error)
}

// NewRetryingHTTPClient returns an HttpClient that retries transient tooling
// api failures with backoff.
func NewRetryingHTTPClient() HttpClient {
	rclient := &retryablehttp.Client{
		HTTPClient:   &http.Client{Timeout: 5 * time.Minute},
		RetryWaitMin: 500 * time.Millisecond,
		RetryWaitMax: 5 * time.Second,
		RetryMax:     3,
		CheckRetry:   retryablehttp.DefaultRetryPolicy,
		Backoff:      retryablehttp.DefaultBackoff,
	}
	return rclient.StandardClient()
}

type mockedToolingAPI struct{}

func (toolingAPI *mockedToolingAPI) FetchModel(ctx context.Context, projectKey string) ([]byte, int, time.Time, error) {
	data := fmt.Sprintf(
		`{"success":true,"projectKey":"%s","deps":[{"name":"dev-lib","file":"/tmp/lantern-dev/dev-lib.jar","exported":true}]}`,
		projectKey,
	)
	return []byte(data), 200, time.Now(), nil
}

type toolingAPIImpl struct {
	httpClient HttpClient
	baseURL    string
}

func (toolingAPI toolingAPIImpl) FetchModel(ctx context.Context, projectKey string) ([]byte, int, time.Time, error) {
	logger := logging.FromContext(ctx)
	requestURL := fmt.Sprintf("%s/model/%s", strings.TrimSuffix(toolingAPI.baseURL, "/"), url.PathEscape(projectKey))

	req, err := http.NewRequest("GET", requestURL, nil)
	if err != nil {
		err := fmt.Errorf("failed to create request: %w", err)
		logger.Error(err.Error())
		reporting.Report(ctx, err)
		return []byte{}, -1, time.Time{}, err
	}

	req.Header.Set("User-Agent", constants.USER_AGENT)

	start := time.Now()
	resp, err := toolingAPI.httpClient.Do(req)
	if err != nil {
		err := fmt.Errorf("failed to send request: %w", err)
		logger.Error(err.Error())
		reporting.Report(ctx, err)
		return []byte{}, -1, time.Time{}, err
	}

	fetchedAt := time.Now()

	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		err := fmt.Errorf("failed to read response body: %w", err)
		logger.Error(err.Error())
		reporting.Report(ctx, err)
		return []byte{}, -1, time.Time{}, err
	}
	logger.Info("tooling api request completed", "url", requestURL, "status", resp.StatusCode, "duration", time.Since(start).String())

	return data, resp.StatusCode, fetchedAt, nil
}

func NewToolingAPI(httpClient HttpClient, baseURL string) ToolingAPI {
	return toolingAPIImpl{
		httpClient: httpClient,
		baseURL:    baseURL,
	}
}

func NewToolingAPIOrMock(config config.Config, httpClient HttpClient) (ToolingAPI, error) {
	if config.ToolingAPIURL() != "" {
		return NewToolingAPI(httpClient, config.ToolingAPIURL()), nil
	}
	if config.IsDevelopment() {
		return &mockedToolingAPI{}, nil
	}
	return nil, fmt.Errorf("Missing tooling api url in non-development environment")
}
