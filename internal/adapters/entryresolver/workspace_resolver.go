package entryresolver

import (
	"context"
	"fmt"

	"github.com/lantern-dev/lantern/internal/adapters/buildmodel"
	"github.com/lantern-dev/lantern/internal/domain"
	"github.com/lantern-dev/lantern/internal/logging"
)

type workspaceResolver struct {
	index ProjectIndex
}

// NewWorkspaceResolver returns a Resolver that prefers direct project links
// for dependencies whose producing project is open in the workspace, and
// falls back to the built artifact otherwise.
func NewWorkspaceResolver(index ProjectIndex) Resolver {
	return &workspaceResolver{index: index}
}

func (r *workspaceResolver) Resolve(ctx context.Context, model *buildmodel.Model) ([]domain.Entry, error) {
	logger := logging.FromContext(ctx)

	entries := make([]domain.Entry, 0, len(model.Dependencies))
	for _, dep := range model.Dependencies {
		switch {
		case dep.ProjectKey != "" && r.index.IsOpen(dep.ProjectKey):
			entries = append(entries, domain.Entry{
				Kind:     domain.EntryKindProject,
				Path:     dep.ProjectKey,
				Exported: dep.Exported,
			})
		case dep.File != "":
			entries = append(entries, domain.Entry{
				Kind:        domain.EntryKindLibrary,
				Path:        dep.File,
				Exported:    dep.Exported,
				SourcePath:  dep.SourceFile,
				JavadocPath: dep.JavadocFile,
			})
		default:
			logger.Error("Failed to resolve model dependency", "project", model.ProjectKey, "dependency", dep.Name)
			return nil, fmt.Errorf("%w: %q has neither an artifact nor an open project", ErrUnresolvableDependency, dep.Name)
		}
	}

	logger.Info("Resolved model dependencies", "project", model.ProjectKey, "entries", len(entries))

	return entries, nil
}
