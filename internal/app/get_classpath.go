package app

import (
	"context"
	"fmt"

	"github.com/lantern-dev/lantern/internal/classpath"
	"github.com/lantern-dev/lantern/internal/domain"
	"github.com/lantern-dev/lantern/internal/strutils"
)

// ClasspathView is the read model handed to the transport layer.
type ClasspathView struct {
	ProjectKey  string
	Description string
	Entries     []domain.Entry
}

type GetClasspath func(ctx context.Context, projectKey string) (ClasspathView, error)

// BuildGetClasspath serves the project's classpath without blocking on the
// build tool.
func BuildGetClasspath(registry *classpath.Registry) GetClasspath {
	return func(ctx context.Context, projectKey string) (ClasspathView, error) {
		container, err := lookupContainer(registry, projectKey)
		if err != nil {
			return ClasspathView{}, err
		}

		return ClasspathView{
			ProjectKey:  container.ProjectKey(),
			Description: container.Description(ctx),
			Entries:     container.GetEntries(ctx),
		}, nil
	}
}

// lookupContainer normalizes the key and resolves it to a registered
// container, mapping both failure modes to domain errors.
func lookupContainer(registry *classpath.Registry, projectKey string) (*classpath.Container, error) {
	normalized, err := strutils.NormalizeProjectKey(projectKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidProjectKey, err)
	}

	container, ok := registry.Get(normalized)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrProjectNotRegistered, normalized)
	}
	return container, nil
}
