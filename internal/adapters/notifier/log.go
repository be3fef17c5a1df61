package notifier

import (
	"context"

	"github.com/lantern-dev/lantern/internal/logging"
)

// LogNotifier only logs the staleness event. Used in development when no
// webhook is configured.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) ContainerStale(ctx context.Context, projectKey string) error {
	logging.FromContext(ctx).Info("Classpath became stale", "project", projectKey)
	return nil
}
