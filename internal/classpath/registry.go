package classpath

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/hashicorp/go-multierror"

	"github.com/lantern-dev/lantern/internal/adapters/buildmodel"
	"github.com/lantern-dev/lantern/internal/adapters/entryresolver"
	"github.com/lantern-dev/lantern/internal/adapters/notifier"
	"github.com/lantern-dev/lantern/internal/adapters/statestore"
	"github.com/lantern-dev/lantern/internal/domain"
	"github.com/lantern-dev/lantern/internal/jobs"
	"github.com/lantern-dev/lantern/internal/logging"
	"github.com/lantern-dev/lantern/internal/reporting"
	"github.com/lantern-dev/lantern/internal/strutils"
)

// Registry tracks the open projects of the workspace and owns their
// classpath containers. It doubles as the workspace index consulted by the
// entry resolver, so dependency mapping always reflects the current set of
// open projects.
type Registry struct {
	provider  buildmodel.Provider
	resolver  entryresolver.Resolver
	store     statestore.Store
	notifier  notifier.Notifier
	scheduler *jobs.Scheduler

	// Guards containers. Container operations are never invoked while this
	// mutex is held: reads take the container mutex first and reach back
	// into the registry through the resolver's index lookups.
	mutex      sync.Mutex
	containers map[string]*Container
}

// NewRegistry wires a registry with its workspace entry resolver. The
// registry itself is the project index the resolver consults.
func NewRegistry(
	provider buildmodel.Provider,
	store statestore.Store,
	staleNotifier notifier.Notifier,
	scheduler *jobs.Scheduler,
) *Registry {
	registry := &Registry{
		provider:   provider,
		store:      store,
		notifier:   staleNotifier,
		scheduler:  scheduler,
		containers: make(map[string]*Container),
	}
	registry.resolver = entryresolver.NewWorkspaceResolver(registry)
	return registry
}

// Register creates the container for the project, or returns the existing
// one. Registered projects count as open for entry resolution.
func (r *Registry) Register(ctx context.Context, projectKey string) (*Container, error) {
	normalized, err := strutils.NormalizeProjectKey(projectKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidProjectKey, err)
	}

	container, _ := r.register(ctx, normalized)
	return container, nil
}

// register expects a normalized key and reports whether the project was
// newly opened.
func (r *Registry) register(ctx context.Context, projectKey string) (*Container, bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if container, ok := r.containers[projectKey]; ok {
		return container, false
	}

	container := NewContainer(projectKey, r.provider, r.resolver, r.store, r.notifier, r.scheduler)
	r.containers[projectKey] = container

	logging.FromContext(ctx).Info("Registered project", "project", projectKey)
	return container, true
}

// Deregister removes the project's container, reporting whether it was
// registered. The persisted snapshot is left in place so it can serve a
// future reopen.
func (r *Registry) Deregister(ctx context.Context, projectKey string) bool {
	normalized, err := strutils.NormalizeProjectKey(projectKey)
	if err != nil {
		return false
	}
	return r.deregister(ctx, normalized)
}

func (r *Registry) deregister(ctx context.Context, projectKey string) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, ok := r.containers[projectKey]; !ok {
		return false
	}
	delete(r.containers, projectKey)

	logging.FromContext(ctx).Info("Deregistered project", "project", projectKey)
	return true
}

func (r *Registry) Get(projectKey string) (*Container, bool) {
	normalized, err := strutils.NormalizeProjectKey(projectKey)
	if err != nil {
		return nil, false
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	container, ok := r.containers[normalized]
	return container, ok
}

// Keys returns the open project keys in sorted order.
func (r *Registry) Keys() []string {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	keys := make([]string, 0, len(r.containers))
	for key := range r.containers {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}

func (r *Registry) Containers() []*Container {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	containers := make([]*Container, 0, len(r.containers))
	for _, container := range r.containers {
		containers = append(containers, container)
	}
	return containers
}

// IsOpen reports whether the project is currently registered. This is the
// workspace membership check behind project-vs-library entry mapping.
func (r *Registry) IsOpen(projectKey string) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	_, ok := r.containers[projectKey]
	return ok
}

// ProjectOpened registers the project and, when it was newly opened,
// broadcasts a quick refresh to every other container: an open can flip
// library entries to project entries anywhere in the workspace. The opened
// project's own snapshot is left alone so it can serve as the fallback until
// a model arrives. Reports whether the project was newly opened.
func (r *Registry) ProjectOpened(ctx context.Context, projectKey string) (*Container, bool, error) {
	normalized, err := strutils.NormalizeProjectKey(projectKey)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %w", domain.ErrInvalidProjectKey, err)
	}

	container, opened := r.register(ctx, normalized)
	if opened {
		r.quickRefreshAll(ctx, normalized)
	}
	return container, opened, nil
}

// ProjectClosed deregisters the project and broadcasts a quick refresh to
// the remaining containers. Raises domain.ErrProjectNotRegistered when the
// project is not open.
func (r *Registry) ProjectClosed(ctx context.Context, projectKey string) error {
	normalized, err := strutils.NormalizeProjectKey(projectKey)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidProjectKey, err)
	}

	if !r.deregister(ctx, normalized) {
		return domain.ErrProjectNotRegistered
	}

	r.QuickRefreshAll(ctx)
	return nil
}

// QuickRefreshAll schedules one background job that quick-refreshes every
// registered container, continuing past individual failures.
func (r *Registry) QuickRefreshAll(ctx context.Context) *jobs.Job {
	return r.quickRefreshAll(ctx, "")
}

func (r *Registry) quickRefreshAll(ctx context.Context, exceptKey string) *jobs.Job {
	return r.scheduler.Schedule(ctx, "quick-refresh-all", func(jobCtx context.Context) error {
		var result *multierror.Error
		for _, container := range r.Containers() {
			if err := jobCtx.Err(); err != nil {
				result = multierror.Append(result, err)
				break
			}
			if container.ProjectKey() == exceptKey {
				continue
			}
			if err := container.QuickRefresh(jobCtx); err != nil {
				result = multierror.Append(result, fmt.Errorf("%s: %w", container.ProjectKey(), err))
			}
		}

		err := result.ErrorOrNil()
		if err != nil {
			reporting.Report(jobCtx, fmt.Errorf("quick refresh broadcast failed: %w", err))
		}
		return err
	})
}
