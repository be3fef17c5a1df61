package classpath

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/lantern-dev/lantern/internal/adapters/buildmodel"
	"github.com/lantern-dev/lantern/internal/adapters/entryresolver"
	"github.com/lantern-dev/lantern/internal/adapters/notifier"
	"github.com/lantern-dev/lantern/internal/adapters/statestore"
	"github.com/lantern-dev/lantern/internal/domain"
	"github.com/lantern-dev/lantern/internal/jobs"
	"github.com/lantern-dev/lantern/internal/logging"
	"github.com/lantern-dev/lantern/internal/reporting"
)

// STATE_KEY is the state store field under which a project's resolved
// classpath is persisted.
const STATE_KEY = "classpath.container"

// CONTAINER_DESCRIPTION is the display name hosts show for the dependency
// container.
const CONTAINER_DESCRIPTION = "Build Dependencies"

// ErrListenerOccupied is raised when a second refresh listener is added. The
// single slot belongs to the host integration.
var ErrListenerOccupied = errors.New("refresh listener slot is occupied")

// RefreshListener is invoked synchronously, outside the container mutex,
// after each successful refresh.
type RefreshListener interface {
	ClasspathRefreshed()
}

// Container serves the resolved classpath of one project without ever
// blocking on the build tool.
//
// Reads prefer, in order: entries cached for the provider's current model
// handle, a fresh resolve of that handle, the persisted snapshot from a
// previous run, and finally the empty classpath while a background refresh
// is scheduled. Staleness is pointer identity on *buildmodel.Model.
type Container struct {
	projectKey string

	provider  buildmodel.Provider
	resolver  entryresolver.Resolver
	store     statestore.Store
	notifier  notifier.Notifier
	scheduler *jobs.Scheduler

	mutex           sync.Mutex
	cachedEntries   []domain.Entry
	cachedModel     *buildmodel.Model
	persisted       []domain.Entry
	persistedLoaded bool
	pendingJob      *jobs.Job
	listener        RefreshListener
}

// NewContainer expects a normalized project key. Containers are usually
// created through Registry.Register.
func NewContainer(
	projectKey string,
	provider buildmodel.Provider,
	resolver entryresolver.Resolver,
	store statestore.Store,
	staleNotifier notifier.Notifier,
	scheduler *jobs.Scheduler,
) *Container {
	return &Container{
		projectKey: projectKey,
		provider:   provider,
		resolver:   resolver,
		store:      store,
		notifier:   staleNotifier,
		scheduler:  scheduler,
	}
}

func (c *Container) ProjectKey() string {
	return c.projectKey
}

// GetEntries returns the project's classpath. It never fails and never
// blocks on the build tool: when neither a model nor a persisted snapshot is
// available it schedules a background refresh and returns the empty
// classpath.
func (c *Container) GetEntries(ctx context.Context) []domain.Entry {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.getEntriesLocked(ctx)
}

func (c *Container) getEntriesLocked(ctx context.Context) []domain.Entry {
	logger := logging.FromContext(ctx)

	model, err := c.provider.Get(ctx, c.projectKey, buildmodel.FetchFast)
	if err != nil && !errors.Is(err, buildmodel.ErrNotReady) {
		logger.Error("Failed to get build model", "project", c.projectKey, "error", err.Error())
	}

	if err == nil {
		if model == c.cachedModel && c.cachedEntries != nil {
			recordRead(ctx, readOutcomeCacheHit)
			return c.cachedEntries
		}

		entries, resolveErr := c.resolveLocked(ctx, model)
		if resolveErr == nil {
			recordRead(ctx, readOutcomeResolved)
			return entries
		}
	}

	if persisted := c.loadPersistedLocked(ctx); persisted != nil {
		recordRead(ctx, readOutcomePersisted)
		return persisted
	}

	logger.Info("Classpath not ready, scheduling background refresh", "project", c.projectKey)
	c.requestUpdateLocked(ctx)
	recordRead(ctx, readOutcomeEmpty)
	return []domain.Entry{}
}

// resolveLocked recomputes entries from the model and, on success, replaces
// the cached pair and writes the snapshot through to the store.
func (c *Container) resolveLocked(ctx context.Context, model *buildmodel.Model) ([]domain.Entry, error) {
	start := time.Now()
	entries, err := c.resolver.Resolve(ctx, model)
	recordResolveDuration(ctx, time.Since(start))
	if err != nil {
		logging.FromContext(ctx).Error("Failed to resolve classpath entries", "project", c.projectKey, "error", err.Error())
		reporting.Report(ctx, fmt.Errorf("failed to resolve classpath entries: %w", err), map[string]string{
			"project": c.projectKey,
		})
		return nil, err
	}

	c.cachedEntries = entries
	c.cachedModel = model
	c.setPersistedLocked(ctx, entries)

	return entries, nil
}

// loadPersistedLocked returns the persisted snapshot, fetching it from the
// store on first need. Undecodable payloads degrade to an absent snapshot; a
// failing store read leaves the slot unloaded so a later read retries.
func (c *Container) loadPersistedLocked(ctx context.Context) []domain.Entry {
	if c.persistedLoaded {
		return c.persisted
	}

	logger := logging.FromContext(ctx)

	payload, err := c.store.Get(ctx, c.projectKey, STATE_KEY)
	if err != nil {
		logger.Error("Failed to load persisted classpath", "project", c.projectKey, "error", err.Error())
		reporting.Report(ctx, fmt.Errorf("failed to load persisted classpath: %w", err), map[string]string{
			"project": c.projectKey,
		})
		return nil
	}

	c.persistedLoaded = true

	if payload == nil {
		return nil
	}

	entries, err := statestore.DecodeEntries(c.projectKey, payload)
	if err != nil {
		// Stale formats and foreign payloads are expected after upgrades.
		// They are worth no more than a missing snapshot.
		logger.Debug("Discarding undecodable persisted classpath", "project", c.projectKey, "error", err.Error())
		return nil
	}

	c.persisted = entries
	logger.Info("Loaded persisted classpath", "project", c.projectKey, "entries", len(entries))
	return entries
}

// setPersistedLocked updates the persisted snapshot to the freshly resolved
// entries. The in-memory copy always updates; a failing store write is
// reported but never surfaced to the reader.
func (c *Container) setPersistedLocked(ctx context.Context, entries []domain.Entry) {
	c.persisted = entries
	c.persistedLoaded = true

	logger := logging.FromContext(ctx)

	var payload []byte
	if entries != nil {
		var err error
		payload, err = statestore.EncodeEntries(c.projectKey, entries)
		if err != nil {
			logger.Error("Failed to encode classpath for persistence", "project", c.projectKey, "error", err.Error())
			reporting.Report(ctx, fmt.Errorf("failed to encode classpath for persistence: %w", err), map[string]string{
				"project": c.projectKey,
			})
			return
		}
	}

	if err := c.store.Put(ctx, c.projectKey, STATE_KEY, payload); err != nil {
		logger.Error("Failed to persist classpath", "project", c.projectKey, "error", err.Error())
		reporting.Report(ctx, fmt.Errorf("failed to persist classpath: %w", err), map[string]string{
			"project": c.projectKey,
		})
	}
}

// RequestUpdate schedules a background model refresh, or returns the handle
// of the refresh already in flight. The returned job is never nil.
func (c *Container) RequestUpdate(ctx context.Context) *jobs.Job {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.requestUpdateLocked(ctx)
}

func (c *Container) requestUpdateLocked(ctx context.Context) *jobs.Job {
	if c.pendingJob != nil {
		return c.pendingJob
	}

	var job *jobs.Job
	job = c.scheduler.Schedule(ctx, fmt.Sprintf("refresh-classpath %s", c.projectKey), func(jobCtx context.Context) error {
		defer func() {
			// The slot is cleared by handle comparison: a finished job that
			// was queued behind the mutex must not clear a successor's slot.
			c.mutex.Lock()
			if c.pendingJob == job {
				c.pendingJob = nil
			}
			c.mutex.Unlock()
		}()

		_, err := c.provider.Get(jobCtx, c.projectKey, buildmodel.FetchBlocking)
		if err != nil {
			// The scheduler logs the failure; the next read that finds no
			// data schedules a fresh attempt.
			err = fmt.Errorf("failed to refresh build model: %w", err)
			reporting.Report(jobCtx, err, map[string]string{
				"project": c.projectKey,
			})
			return err
		}

		c.notifyStale(jobCtx)
		return nil
	})

	select {
	case <-job.Done():
		// Completed before it could be stashed (scheduler shutting down);
		// do not occupy the slot with a dead handle.
	default:
		c.pendingJob = job
	}

	return job
}

// Refresh drops the cached pair and recomputes from the provider's current
// model, falling back like a normal read when no model is available. A
// successful recompute notifies the host.
func (c *Container) Refresh(ctx context.Context) []domain.Entry {
	c.mutex.Lock()
	c.cachedEntries = nil
	c.cachedModel = nil
	entries := c.getEntriesLocked(ctx)
	recomputed := c.cachedModel != nil
	c.mutex.Unlock()

	if recomputed {
		c.notifyStale(ctx)
	}
	return entries
}

// QuickRefresh drops only the persisted snapshot, in memory and in the
// store. Entries cached for the current model handle stay valid; the
// snapshot merely must not shadow the next recompute.
func (c *Container) QuickRefresh(ctx context.Context) error {
	c.mutex.Lock()
	c.persisted = nil
	c.persistedLoaded = true
	// The store write happens under the mutex so the durable clear cannot
	// interleave with a concurrent write-through.
	err := c.store.Put(ctx, c.projectKey, STATE_KEY, nil)
	c.mutex.Unlock()

	if err != nil {
		logging.FromContext(ctx).Error("Failed to clear persisted classpath", "project", c.projectKey, "error", err.Error())
		return fmt.Errorf("failed to clear persisted classpath: %w", err)
	}

	c.notifyStale(ctx)
	return nil
}

// notifyStale fans out a successful refresh: the stale notifier first, then
// the single-slot listener. Callers must not hold the container mutex.
func (c *Container) notifyStale(ctx context.Context) {
	if err := c.notifier.ContainerStale(ctx, c.projectKey); err != nil {
		logging.FromContext(ctx).Error("Failed to notify stale classpath", "project", c.projectKey, "error", err.Error())
		reporting.Report(ctx, fmt.Errorf("failed to notify stale classpath: %w", err), map[string]string{
			"project": c.projectKey,
		})
	}

	c.mutex.Lock()
	listener := c.listener
	c.mutex.Unlock()

	if listener != nil {
		listener.ClasspathRefreshed()
	}
}

// Description returns the label hosts show for this container, annotated
// with the data source when the live model is unavailable. It never blocks.
func (c *Container) Description(ctx context.Context) string {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if _, err := c.provider.Get(ctx, c.projectKey, buildmodel.FetchFast); err == nil {
		return CONTAINER_DESCRIPTION
	}
	if c.loadPersistedLocked(ctx) != nil {
		return CONTAINER_DESCRIPTION + " (persisted)"
	}
	return CONTAINER_DESCRIPTION + " (uninitialized)"
}

// Initialized reports whether a model is ready to serve without blocking.
func (c *Container) Initialized(ctx context.Context) bool {
	_, err := c.provider.Get(ctx, c.projectKey, buildmodel.FetchFast)
	return err == nil
}

func (c *Container) AddRefreshListener(listener RefreshListener) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.listener != nil {
		return ErrListenerOccupied
	}
	c.listener = listener
	return nil
}

func (c *Container) RemoveRefreshListener(listener RefreshListener) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.listener == listener {
		c.listener = nil
	}
}
