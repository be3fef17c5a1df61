package entryresolver

import (
	"context"
	"errors"

	"github.com/lantern-dev/lantern/internal/adapters/buildmodel"
	"github.com/lantern-dev/lantern/internal/domain"
)

// ErrUnresolvableDependency means a model dependency had neither a usable
// artifact nor an open workspace project backing it.
var ErrUnresolvableDependency = errors.New("unresolvable dependency")

// ProjectIndex answers whether a workspace project is currently open.
// The classpath registry satisfies this.
type ProjectIndex interface {
	IsOpen(projectKey string) bool
}

type Resolver interface {
	// Resolve maps the model's dependencies to classpath entries, preserving
	// model order. It either resolves every dependency or fails.
	Resolve(ctx context.Context, model *buildmodel.Model) ([]domain.Entry, error)
}
