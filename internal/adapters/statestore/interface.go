package statestore

import (
	"context"
)

// Store persists small per-project state blobs across daemon restarts.
//
// Payloads are opaque JSON documents; the container codec in this package
// defines the classpath snapshot format.
type Store interface {
	// Get returns the stored payload, or nil with no error when nothing is
	// stored under the key pair.
	Get(ctx context.Context, projectKey, fieldKey string) ([]byte, error)
	// Put stores the payload. A nil payload clears the stored value.
	Put(ctx context.Context, projectKey, fieldKey string, payload []byte) error
}
