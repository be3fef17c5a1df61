package ports_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/lantern-dev/lantern/internal/app"
	"github.com/lantern-dev/lantern/internal/domain"
	"github.com/lantern-dev/lantern/internal/ports"
	"github.com/stretchr/testify/require"
)

func TestMakeRefreshClasspathHandler(t *testing.T) {
	t.Parallel()

	testLogger := slog.New(slog.NewTextHandler(io.Discard, nil))
	noopMiddleware := func(h http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			h(w, r)
		}
	}

	makeRefreshClasspath := func(t *testing.T, expectedProjectKey string, view app.ClasspathView, err error) (app.RefreshClasspath, *bool) {
		called := false
		return func(ctx context.Context, projectKey string) (app.ClasspathView, error) {
			t.Helper()
			require.Equal(t, expectedProjectKey, projectKey)

			called = true

			return view, err
		}, &called
	}

	makeHandler := func(refreshClasspath app.RefreshClasspath) http.HandlerFunc {
		return ports.MakeRefreshClasspathHandler(
			refreshClasspath,
			testLogger,
			noopMiddleware,
		)
	}

	makeRequest := func(projectKey string) *http.Request {
		req := httptest.NewRequest("POST", "/v1/classpath/"+url.PathEscape(projectKey)+"/refresh", nil)
		req.SetPathValue("project", projectKey)
		return req
	}

	t.Run("returns the recomputed classpath", func(t *testing.T) {
		t.Parallel()

		view := app.ClasspathView{
			ProjectKey:  "app",
			Description: "Build Dependencies",
			Entries: []domain.Entry{
				{
					Kind:     domain.EntryKindLibrary,
					Path:     "/repo/libs/slf4j.jar",
					Exported: false,
				},
			},
		}

		refreshClasspath, called := makeRefreshClasspath(t, "app", view, nil)
		handler := makeHandler(refreshClasspath)

		req := makeRequest("app")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		require.JSONEq(
			t,
			`{
				"success": true,
				"project": "app",
				"description": "Build Dependencies",
				"entries": [
					{"kind": "library", "path": "/repo/libs/slf4j.jar", "exported": false}
				]
			}`,
			w.Body.String(),
		)
		require.True(t, *called)
		require.Equal(t, "application/json", w.Result().Header.Get("Content-Type"))
	})

	t.Run("invalid project key", func(t *testing.T) {
		t.Parallel()

		refreshClasspath, called := makeRefreshClasspath(t, "app", app.ClasspathView{}, nil)
		handler := makeHandler(refreshClasspath)

		req := makeRequest("bad key!")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		require.Equal(t, http.StatusBadRequest, w.Code)
		require.Contains(t, w.Body.String(), "invalid project key")
		require.False(t, *called)
	})

	t.Run("unregistered project", func(t *testing.T) {
		t.Parallel()

		refreshClasspath, called := makeRefreshClasspath(
			t,
			"ghost",
			app.ClasspathView{},
			fmt.Errorf("%w: %s", domain.ErrProjectNotRegistered, "ghost"),
		)
		handler := makeHandler(refreshClasspath)

		req := makeRequest("ghost")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		require.Equal(t, http.StatusNotFound, w.Code)
		require.JSONEq(t, `{"success": false, "cause": "project not registered: ghost"}`, w.Body.String())
		require.True(t, *called)
	})
}
