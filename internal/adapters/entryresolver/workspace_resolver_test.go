package entryresolver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lantern-dev/lantern/internal/adapters/buildmodel"
	"github.com/lantern-dev/lantern/internal/domain"
)

type mapIndex map[string]bool

func (index mapIndex) IsOpen(projectKey string) bool {
	return index[projectKey]
}

func newModel(projectKey string, dependencies ...buildmodel.Dependency) *buildmodel.Model {
	return &buildmodel.Model{
		ProjectKey:   projectKey,
		GeneratedAt:  time.Now(),
		FetchedAt:    time.Now(),
		Dependencies: dependencies,
	}
}

func TestWorkspaceResolverResolve(t *testing.T) {
	t.Parallel()

	t.Run("empty model", func(t *testing.T) {
		t.Parallel()

		resolver := NewWorkspaceResolver(mapIndex{})

		entries, err := resolver.Resolve(t.Context(), newModel("app"))
		require.NoError(t, err)
		require.NotNil(t, entries)
		require.Empty(t, entries)
	})

	t.Run("library dependency", func(t *testing.T) {
		t.Parallel()

		resolver := NewWorkspaceResolver(mapIndex{})

		entries, err := resolver.Resolve(t.Context(), newModel("app", buildmodel.Dependency{
			Name:        "guava",
			File:        "/repo/caches/guava-33.0.jar",
			SourceFile:  "/repo/caches/guava-33.0-sources.jar",
			JavadocFile: "/repo/caches/guava-33.0-javadoc.jar",
			Exported:    true,
		}))
		require.NoError(t, err)
		require.Equal(t, []domain.Entry{
			{
				Kind:        domain.EntryKindLibrary,
				Path:        "/repo/caches/guava-33.0.jar",
				Exported:    true,
				SourcePath:  "/repo/caches/guava-33.0-sources.jar",
				JavadocPath: "/repo/caches/guava-33.0-javadoc.jar",
			},
		}, entries)
	})

	t.Run("open project becomes a project entry", func(t *testing.T) {
		t.Parallel()

		resolver := NewWorkspaceResolver(mapIndex{":core": true})

		entries, err := resolver.Resolve(t.Context(), newModel("app", buildmodel.Dependency{
			Name:       "core",
			ProjectKey: ":core",
			File:       "/repo/core/build/libs/core.jar",
			Exported:   true,
		}))
		require.NoError(t, err)
		require.Equal(t, []domain.Entry{
			{
				Kind:     domain.EntryKindProject,
				Path:     ":core",
				Exported: true,
			},
		}, entries)
	})

	t.Run("closed project falls back to its artifact", func(t *testing.T) {
		t.Parallel()

		resolver := NewWorkspaceResolver(mapIndex{":core": false})

		entries, err := resolver.Resolve(t.Context(), newModel("app", buildmodel.Dependency{
			Name:       "core",
			ProjectKey: ":core",
			File:       "/repo/core/build/libs/core.jar",
		}))
		require.NoError(t, err)
		require.Equal(t, []domain.Entry{
			{
				Kind: domain.EntryKindLibrary,
				Path: "/repo/core/build/libs/core.jar",
			},
		}, entries)
	})

	t.Run("model order is preserved", func(t *testing.T) {
		t.Parallel()

		resolver := NewWorkspaceResolver(mapIndex{":core": true})

		entries, err := resolver.Resolve(t.Context(), newModel("app",
			buildmodel.Dependency{Name: "zlib", File: "/repo/caches/zlib.jar"},
			buildmodel.Dependency{Name: "core", ProjectKey: ":core"},
			buildmodel.Dependency{Name: "alib", File: "/repo/caches/alib.jar", Exported: true},
		))
		require.NoError(t, err)
		require.Equal(t, []domain.Entry{
			{Kind: domain.EntryKindLibrary, Path: "/repo/caches/zlib.jar"},
			{Kind: domain.EntryKindProject, Path: ":core"},
			{Kind: domain.EntryKindLibrary, Path: "/repo/caches/alib.jar", Exported: true},
		}, entries)
	})

	t.Run("unresolvable dependency fails the whole resolve", func(t *testing.T) {
		t.Parallel()

		resolver := NewWorkspaceResolver(mapIndex{})

		entries, err := resolver.Resolve(t.Context(), newModel("app",
			buildmodel.Dependency{Name: "guava", File: "/repo/caches/guava-33.0.jar"},
			buildmodel.Dependency{Name: "broken-lib"},
		))
		require.ErrorIs(t, err, ErrUnresolvableDependency)
		require.ErrorContains(t, err, "broken-lib")
		require.Nil(t, entries)
	})

	t.Run("closed project without artifact is unresolvable", func(t *testing.T) {
		t.Parallel()

		resolver := NewWorkspaceResolver(mapIndex{})

		_, err := resolver.Resolve(t.Context(), newModel("app", buildmodel.Dependency{
			Name:       "core",
			ProjectKey: ":core",
		}))
		require.ErrorIs(t, err, ErrUnresolvableDependency)
		require.ErrorContains(t, err, "core")
	})
}
