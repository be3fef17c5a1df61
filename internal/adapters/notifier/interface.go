package notifier

import (
	"context"
)

// Notifier tells the connected IDE that a project's classpath changed and
// should be re-read. The signal carries no entry data; interested clients
// fetch the classpath again.
type Notifier interface {
	ContainerStale(ctx context.Context, projectKey string) error
}
