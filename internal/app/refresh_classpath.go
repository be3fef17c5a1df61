package app

import (
	"context"

	"github.com/lantern-dev/lantern/internal/classpath"
)

type RefreshClasspath func(ctx context.Context, projectKey string) (ClasspathView, error)

// BuildRefreshClasspath forces a recompute of the project's classpath, even
// when the build model handle is unchanged.
func BuildRefreshClasspath(registry *classpath.Registry) RefreshClasspath {
	return func(ctx context.Context, projectKey string) (ClasspathView, error) {
		container, err := lookupContainer(registry, projectKey)
		if err != nil {
			return ClasspathView{}, err
		}

		entries := container.Refresh(ctx)
		return ClasspathView{
			ProjectKey:  container.ProjectKey(),
			Description: container.Description(ctx),
			Entries:     entries,
		}, nil
	}
}
