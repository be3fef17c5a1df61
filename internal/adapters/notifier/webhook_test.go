package notifier

import (
	"bytes"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockedHttpClient struct {
	t           *testing.T
	expectedURL string
	statusCode  int
	requestErr  error

	requestBody []byte
}

func (m *mockedHttpClient) Do(req *http.Request) (*http.Response, error) {
	require.Equal(m.t, "POST", req.Method)
	require.Equal(m.t, m.expectedURL, req.URL.String())
	require.Equal(m.t, "application/json", req.Header.Get("Content-Type"))
	require.Equal(m.t, "lantern/0.1.0 (+https://github.com/lantern-dev/lantern)", req.Header.Get("User-Agent"))

	body, err := io.ReadAll(req.Body)
	require.NoError(m.t, err)
	m.requestBody = body

	return &http.Response{
		StatusCode: m.statusCode,
		Body:       io.NopCloser(bytes.NewBuffer(nil)),
	}, m.requestErr
}

func TestWebhookNotifier(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		httpClient := &mockedHttpClient{
			t:           t,
			expectedURL: "https://ide.internal/hooks/classpath",
			statusCode:  200,
		}
		webhook := NewWebhookNotifier(httpClient, "https://ide.internal/hooks/classpath")

		err := webhook.ContainerStale(t.Context(), "app")
		require.NoError(t, err)
		require.JSONEq(t, `{"project": "app", "event": "classpath_stale"}`, string(httpClient.requestBody))
	})

	t.Run("204 is a success", func(t *testing.T) {
		t.Parallel()

		httpClient := &mockedHttpClient{
			t:           t,
			expectedURL: "https://ide.internal/hooks/classpath",
			statusCode:  204,
		}
		webhook := NewWebhookNotifier(httpClient, "https://ide.internal/hooks/classpath")

		err := webhook.ContainerStale(t.Context(), "app")
		require.NoError(t, err)
	})

	t.Run("non-2xx status code", func(t *testing.T) {
		t.Parallel()

		httpClient := &mockedHttpClient{
			t:           t,
			expectedURL: "https://ide.internal/hooks/classpath",
			statusCode:  500,
		}
		webhook := NewWebhookNotifier(httpClient, "https://ide.internal/hooks/classpath")

		err := webhook.ContainerStale(t.Context(), "app")
		require.ErrorContains(t, err, "500")
	})

	t.Run("request error", func(t *testing.T) {
		t.Parallel()

		httpClient := &mockedHttpClient{
			t:           t,
			expectedURL: "https://ide.internal/hooks/classpath",
			statusCode:  200,
			requestErr:  assert.AnError,
		}
		webhook := NewWebhookNotifier(httpClient, "https://ide.internal/hooks/classpath")

		err := webhook.ContainerStale(t.Context(), "app")
		require.ErrorIs(t, err, assert.AnError)
	})
}

func TestLogNotifier(t *testing.T) {
	t.Parallel()

	require.NoError(t, NewLogNotifier().ContainerStale(t.Context(), "app"))
}
