package app_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lantern-dev/lantern/internal/adapters/buildmodel"
	"github.com/lantern-dev/lantern/internal/adapters/statestore"
	"github.com/lantern-dev/lantern/internal/app"
	"github.com/lantern-dev/lantern/internal/classpath"
	"github.com/lantern-dev/lantern/internal/domain"
	"github.com/lantern-dev/lantern/internal/domaintest"
	"github.com/lantern-dev/lantern/internal/jobs"
)

// fixedModelProvider serves a static model per project. Projects without a
// model fail fast fetches with ErrNotReady and blocking ones with
// ErrProjectUnknown.
type fixedModelProvider struct {
	models map[string]*buildmodel.Model
}

func (p *fixedModelProvider) Get(ctx context.Context, projectKey string, mode buildmodel.FetchMode) (*buildmodel.Model, error) {
	if model, ok := p.models[projectKey]; ok {
		return model, nil
	}
	if mode == buildmodel.FetchFast {
		return nil, buildmodel.ErrNotReady
	}
	return nil, buildmodel.ErrProjectUnknown
}

type silentNotifier struct{}

func (silentNotifier) ContainerStale(ctx context.Context, projectKey string) error {
	return nil
}

func newRegistry(t *testing.T, models map[string]*buildmodel.Model) *classpath.Registry {
	t.Helper()

	scheduler := jobs.NewScheduler(2, slog.New(slog.NewJSONHandler(io.Discard, nil)))
	t.Cleanup(scheduler.Close)

	if models == nil {
		models = make(map[string]*buildmodel.Model)
	}
	return classpath.NewRegistry(&fixedModelProvider{models: models}, statestore.NewMemoryStore(), silentNotifier{}, scheduler)
}

func newRegistryWithAppProject(t *testing.T) *classpath.Registry {
	t.Helper()

	registry := newRegistry(t, map[string]*buildmodel.Model{
		"app": {
			ProjectKey: "app",
			Dependencies: []buildmodel.Dependency{
				{Name: "guava", File: "/repo/libs/guava.jar", Exported: true},
			},
		},
	})
	_, err := registry.Register(t.Context(), "app")
	require.NoError(t, err)
	return registry
}

func TestBuildGetClasspath(t *testing.T) {
	t.Parallel()

	t.Run("serves entries and description", func(t *testing.T) {
		t.Parallel()
		registry := newRegistryWithAppProject(t)
		getClasspath := app.BuildGetClasspath(registry)

		view, err := getClasspath(t.Context(), "app")
		require.NoError(t, err)
		require.Equal(t, "app", view.ProjectKey)
		require.Equal(t, "Build Dependencies", view.Description)
		require.Equal(t, []domain.Entry{
			domaintest.NewLibraryEntryBuilder("/repo/libs/guava.jar").WithExported(true).Build(),
		}, view.Entries)
	})

	t.Run("normalizes the project key", func(t *testing.T) {
		t.Parallel()
		registry := newRegistryWithAppProject(t)
		getClasspath := app.BuildGetClasspath(registry)

		view, err := getClasspath(t.Context(), "  app  ")
		require.NoError(t, err)
		require.Equal(t, "app", view.ProjectKey)
	})

	t.Run("serves the empty classpath for a cold project", func(t *testing.T) {
		t.Parallel()
		registry := newRegistry(t, nil)
		_, err := registry.Register(t.Context(), "cold")
		require.NoError(t, err)
		getClasspath := app.BuildGetClasspath(registry)

		view, err := getClasspath(t.Context(), "cold")
		require.NoError(t, err)
		require.NotNil(t, view.Entries)
		require.Empty(t, view.Entries)
		require.Equal(t, "Build Dependencies (uninitialized)", view.Description)
	})

	t.Run("unknown project", func(t *testing.T) {
		t.Parallel()
		registry := newRegistry(t, nil)
		getClasspath := app.BuildGetClasspath(registry)

		_, err := getClasspath(t.Context(), "ghost")
		require.ErrorIs(t, err, domain.ErrProjectNotRegistered)
	})

	t.Run("invalid project key", func(t *testing.T) {
		t.Parallel()
		registry := newRegistry(t, nil)
		getClasspath := app.BuildGetClasspath(registry)

		_, err := getClasspath(t.Context(), "spaces inside")
		require.ErrorIs(t, err, domain.ErrInvalidProjectKey)
	})
}

func TestBuildRefreshClasspath(t *testing.T) {
	t.Parallel()

	t.Run("recomputes and returns the classpath", func(t *testing.T) {
		t.Parallel()
		registry := newRegistryWithAppProject(t)
		refreshClasspath := app.BuildRefreshClasspath(registry)

		view, err := refreshClasspath(t.Context(), "app")
		require.NoError(t, err)
		require.Equal(t, "app", view.ProjectKey)
		require.Equal(t, []domain.Entry{
			domaintest.NewLibraryEntryBuilder("/repo/libs/guava.jar").WithExported(true).Build(),
		}, view.Entries)
	})

	t.Run("unknown project", func(t *testing.T) {
		t.Parallel()
		registry := newRegistry(t, nil)
		refreshClasspath := app.BuildRefreshClasspath(registry)

		_, err := refreshClasspath(t.Context(), "ghost")
		require.ErrorIs(t, err, domain.ErrProjectNotRegistered)
	})

	t.Run("invalid project key", func(t *testing.T) {
		t.Parallel()
		registry := newRegistry(t, nil)
		refreshClasspath := app.BuildRefreshClasspath(registry)

		_, err := refreshClasspath(t.Context(), "")
		require.ErrorIs(t, err, domain.ErrInvalidProjectKey)
	})
}

func TestBuildRequestClasspathUpdate(t *testing.T) {
	t.Parallel()

	t.Run("returns the scheduled job id", func(t *testing.T) {
		t.Parallel()
		registry := newRegistryWithAppProject(t)
		requestUpdate := app.BuildRequestClasspathUpdate(registry)

		jobID, err := requestUpdate(t.Context(), "app")
		require.NoError(t, err)
		require.NotEmpty(t, jobID)
	})

	t.Run("unknown project", func(t *testing.T) {
		t.Parallel()
		registry := newRegistry(t, nil)
		requestUpdate := app.BuildRequestClasspathUpdate(registry)

		_, err := requestUpdate(t.Context(), "ghost")
		require.ErrorIs(t, err, domain.ErrProjectNotRegistered)
	})

	t.Run("invalid project key", func(t *testing.T) {
		t.Parallel()
		registry := newRegistry(t, nil)
		requestUpdate := app.BuildRequestClasspathUpdate(registry)

		_, err := requestUpdate(t.Context(), "spaces inside")
		require.ErrorIs(t, err, domain.ErrInvalidProjectKey)
	})
}
