package ports_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/lantern-dev/lantern/internal/app"
	"github.com/lantern-dev/lantern/internal/ports"
	"github.com/stretchr/testify/require"
)

func TestMakeOpenProjectHandler(t *testing.T) {
	t.Parallel()

	testLogger := slog.New(slog.NewTextHandler(io.Discard, nil))
	noopMiddleware := func(h http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			h(w, r)
		}
	}

	makeOpenProject := func(t *testing.T, expectedProjectKey string, opened bool, err error) (app.OpenProject, *bool) {
		called := false
		return func(ctx context.Context, projectKey string) (bool, error) {
			t.Helper()
			require.Equal(t, expectedProjectKey, projectKey)

			called = true

			return opened, err
		}, &called
	}

	makeHandler := func(openProject app.OpenProject) http.HandlerFunc {
		return ports.MakeOpenProjectHandler(
			openProject,
			testLogger,
			noopMiddleware,
		)
	}

	makeRequest := func(projectKey string) *http.Request {
		req := httptest.NewRequest("PUT", "/v1/projects/"+url.PathEscape(projectKey), nil)
		req.SetPathValue("project", projectKey)
		return req
	}

	t.Run("newly opened project", func(t *testing.T) {
		t.Parallel()

		openProject, called := makeOpenProject(t, "app", true, nil)
		handler := makeHandler(openProject)

		req := makeRequest("app")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		require.Equal(t, http.StatusCreated, w.Code)
		require.JSONEq(t, `{"success": true, "project": "app", "opened": true}`, w.Body.String())
		require.True(t, *called)
		require.Equal(t, "application/json", w.Result().Header.Get("Content-Type"))
	})

	t.Run("already open project", func(t *testing.T) {
		t.Parallel()

		openProject, called := makeOpenProject(t, "app", false, nil)
		handler := makeHandler(openProject)

		req := makeRequest("app")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		require.JSONEq(t, `{"success": true, "project": "app", "opened": false}`, w.Body.String())
		require.True(t, *called)
	})

	t.Run("invalid project key", func(t *testing.T) {
		t.Parallel()

		openProject, called := makeOpenProject(t, "app", false, nil)
		handler := makeHandler(openProject)

		req := makeRequest("bad key!")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		require.Equal(t, http.StatusBadRequest, w.Code)
		require.Contains(t, w.Body.String(), "invalid project key")
		require.False(t, *called)
	})
}
