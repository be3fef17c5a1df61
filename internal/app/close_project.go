package app

import (
	"context"

	"github.com/lantern-dev/lantern/internal/classpath"
)

type CloseProject func(ctx context.Context, projectKey string) error

// BuildCloseProject removes the project from the workspace. The persisted
// classpath snapshot is kept for a future reopen.
func BuildCloseProject(registry *classpath.Registry) CloseProject {
	return func(ctx context.Context, projectKey string) error {
		return registry.ProjectClosed(ctx, projectKey)
	}
}
