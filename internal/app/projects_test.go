package app_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lantern-dev/lantern/internal/app"
	"github.com/lantern-dev/lantern/internal/domain"
)

func TestBuildOpenProject(t *testing.T) {
	t.Parallel()

	t.Run("reports the first registration", func(t *testing.T) {
		t.Parallel()
		registry := newRegistry(t, nil)
		openProject := app.BuildOpenProject(registry)

		opened, err := openProject(t.Context(), "app")
		require.NoError(t, err)
		require.True(t, opened)
		require.True(t, registry.IsOpen("app"))

		opened, err = openProject(t.Context(), "app")
		require.NoError(t, err)
		require.False(t, opened)
	})

	t.Run("invalid project key", func(t *testing.T) {
		t.Parallel()
		registry := newRegistry(t, nil)
		openProject := app.BuildOpenProject(registry)

		_, err := openProject(t.Context(), "spaces inside")
		require.ErrorIs(t, err, domain.ErrInvalidProjectKey)
	})
}

func TestBuildCloseProject(t *testing.T) {
	t.Parallel()

	t.Run("closes an open project", func(t *testing.T) {
		t.Parallel()
		registry := newRegistry(t, nil)
		openProject := app.BuildOpenProject(registry)
		closeProject := app.BuildCloseProject(registry)

		_, err := openProject(t.Context(), "app")
		require.NoError(t, err)

		require.NoError(t, closeProject(t.Context(), "app"))
		require.False(t, registry.IsOpen("app"))
	})

	t.Run("unknown project", func(t *testing.T) {
		t.Parallel()
		registry := newRegistry(t, nil)
		closeProject := app.BuildCloseProject(registry)

		require.ErrorIs(t, closeProject(t.Context(), "ghost"), domain.ErrProjectNotRegistered)
	})

	t.Run("invalid project key", func(t *testing.T) {
		t.Parallel()
		registry := newRegistry(t, nil)
		closeProject := app.BuildCloseProject(registry)

		require.ErrorIs(t, closeProject(t.Context(), "spaces inside"), domain.ErrInvalidProjectKey)
	})
}
