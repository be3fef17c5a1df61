package buildmodel

import (
	"bytes"
	"io"
	"net/http"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var expectedHeaders = http.Header{
	// NOTE: go's http.Header automatically camelcases the keys
	"User-Agent": {"lantern/0.1.0 (+https://github.com/lantern-dev/lantern)"},
}

type mockedHttpClient struct {
	t           *testing.T
	expectedURL string
	response    *http.Response
	statusCode  int
	body        string
	requestErr  error
}

func (m *mockedHttpClient) Do(req *http.Request) (*http.Response, error) {
	require.Equal(m.t, m.expectedURL, req.URL.String())
	require.True(m.t, reflect.DeepEqual(expectedHeaders, req.Header), "Expected %v, got %v", expectedHeaders, req.Header)

	if m.response != nil {
		return m.response, m.requestErr
	}

	return &http.Response{
		StatusCode: m.statusCode,
		Body:       io.NopCloser(bytes.NewBufferString(m.body)),
	}, m.requestErr
}

type cantRead struct{}

func (c cantRead) Read(p []byte) (n int, err error) {
	return 0, assert.AnError
}

func (c cantRead) Close() error {
	return nil
}

func newMockedHttpClient(t *testing.T, expectedURL string, statusCode int, body string, err error) *mockedHttpClient {
	return &mockedHttpClient{
		t:           t,
		expectedURL: expectedURL,
		statusCode:  statusCode,
		body:        body,
		requestErr:  err,
	}
}

func TestFetchModel(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		httpClient := newMockedHttpClient(
			t,
			"https://toolingd.internal/model/app",
			200,
			`{"success":true,"projectKey":"app","deps":[]}`,
			nil,
		)
		toolingAPI := NewToolingAPI(httpClient, "https://toolingd.internal")

		data, statusCode, fetchedAt, err := toolingAPI.FetchModel(t.Context(), "app")

		require.NoError(t, err)
		require.Equal(t, 200, statusCode)
		require.Equal(t, `{"success":true,"projectKey":"app","deps":[]}`, string(data))
		require.WithinDuration(t, time.Now(), fetchedAt, 10*time.Second)
	})

	t.Run("trailing slash in base url and slash in project key", func(t *testing.T) {
		t.Parallel()

		httpClient := newMockedHttpClient(
			t,
			"https://toolingd.internal/model/backend%2Fworker",
			200,
			`{"success":true,"projectKey":"backend/worker","deps":[]}`,
			nil,
		)
		toolingAPI := NewToolingAPI(httpClient, "https://toolingd.internal/")

		_, statusCode, _, err := toolingAPI.FetchModel(t.Context(), "backend/worker")

		require.NoError(t, err)
		require.Equal(t, 200, statusCode)
	})

	t.Run("colons in project key pass through unescaped", func(t *testing.T) {
		t.Parallel()

		httpClient := newMockedHttpClient(
			t,
			"https://toolingd.internal/model/:services:api",
			200,
			`{"success":true,"projectKey":":services:api","deps":[]}`,
			nil,
		)
		toolingAPI := NewToolingAPI(httpClient, "https://toolingd.internal")

		_, statusCode, _, err := toolingAPI.FetchModel(t.Context(), ":services:api")

		require.NoError(t, err)
		require.Equal(t, 200, statusCode)
	})

	t.Run("request error", func(t *testing.T) {
		t.Parallel()

		httpClient := newMockedHttpClient(
			t,
			"https://toolingd.internal/model/app",
			200,
			`{"success":true,"projectKey":"app","deps":[]}`,
			assert.AnError,
		)
		toolingAPI := NewToolingAPI(httpClient, "https://toolingd.internal")

		_, _, _, err := toolingAPI.FetchModel(t.Context(), "app")
		require.ErrorIs(t, err, assert.AnError)
	})

	t.Run("body read error", func(t *testing.T) {
		t.Parallel()

		httpClient := &mockedHttpClient{
			t:           t,
			expectedURL: "https://toolingd.internal/model/app",
			response: &http.Response{
				StatusCode: 200,
				Body:       cantRead{},
			},
			requestErr: nil,
		}
		toolingAPI := NewToolingAPI(httpClient, "https://toolingd.internal")

		_, _, _, err := toolingAPI.FetchModel(t.Context(), "app")
		require.ErrorIs(t, err, assert.AnError)
	})
}
