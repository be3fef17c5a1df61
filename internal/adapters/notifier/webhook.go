package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/lantern-dev/lantern/internal/config"
	"github.com/lantern-dev/lantern/internal/constants"
	"github.com/lantern-dev/lantern/internal/logging"
)

type HttpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// NewRetryingHTTPClient returns an HttpClient for webhook deliveries.
// Deliveries are best-effort, so the retry budget is small.
func NewRetryingHTTPClient() HttpClient {
	rclient := &retryablehttp.Client{
		HTTPClient:   &http.Client{Timeout: 10 * time.Second},
		RetryWaitMin: 250 * time.Millisecond,
		RetryWaitMax: 2 * time.Second,
		RetryMax:     2,
		CheckRetry:   retryablehttp.DefaultRetryPolicy,
		Backoff:      retryablehttp.DefaultBackoff,
	}
	return rclient.StandardClient()
}

const STALE_EVENT = "classpath_stale"

type staleEvent struct {
	Project string `json:"project"`
	Event   string `json:"event"`
}

type WebhookNotifier struct {
	httpClient HttpClient
	webhookURL string
}

func NewWebhookNotifier(httpClient HttpClient, webhookURL string) *WebhookNotifier {
	return &WebhookNotifier{
		httpClient: httpClient,
		webhookURL: webhookURL,
	}
}

func (n *WebhookNotifier) ContainerStale(ctx context.Context, projectKey string) error {
	logger := logging.FromContext(ctx)

	body, err := json.Marshal(staleEvent{
		Project: projectKey,
		Event:   STALE_EVENT,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal stale event: %w", err)
	}

	req, err := http.NewRequest("POST", n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", constants.USER_AGENT)

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status code %d", resp.StatusCode)
	}

	logger.Info("Notified stale classpath", "project", projectKey)

	return nil
}

func NewWebhookNotifierOrLog(conf config.Config, httpClient HttpClient, logger *slog.Logger) Notifier {
	if conf.NotifyWebhookURL() != "" {
		return NewWebhookNotifier(httpClient, conf.NotifyWebhookURL())
	}
	logger.Info("No notify webhook url configured. Falling back to log notifier.")
	return NewLogNotifier()
}
