package app

import (
	"context"

	"github.com/lantern-dev/lantern/internal/classpath"
)

type RequestClasspathUpdate func(ctx context.Context, projectKey string) (string, error)

// BuildRequestClasspathUpdate schedules a background model refresh and
// returns its job id. When a refresh is already in flight its id is returned
// instead of scheduling a duplicate.
func BuildRequestClasspathUpdate(registry *classpath.Registry) RequestClasspathUpdate {
	return func(ctx context.Context, projectKey string) (string, error) {
		container, err := lookupContainer(registry, projectKey)
		if err != nil {
			return "", err
		}

		job := container.RequestUpdate(ctx)
		return job.ID(), nil
	}
}
