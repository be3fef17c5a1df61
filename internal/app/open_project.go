package app

import (
	"context"

	"github.com/lantern-dev/lantern/internal/classpath"
)

type OpenProject func(ctx context.Context, projectKey string) (bool, error)

// BuildOpenProject marks the project open in the workspace, reporting
// whether it was newly opened.
func BuildOpenProject(registry *classpath.Registry) OpenProject {
	return func(ctx context.Context, projectKey string) (bool, error) {
		_, opened, err := registry.ProjectOpened(ctx, projectKey)
		if err != nil {
			return false, err
		}
		return opened, nil
	}
}
