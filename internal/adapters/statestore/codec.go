package statestore

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lantern-dev/lantern/internal/domain"
)

const DATA_FORMAT_VERSION = 1

var (
	// ErrInvalidPayload means the stored document could not be interpreted
	// as a classpath snapshot.
	ErrInvalidPayload = errors.New("invalid classpath payload")
	// ErrWrongOwner means the stored document belongs to another project.
	ErrWrongOwner = errors.New("classpath payload owned by another project")
)

const (
	libraryKindStorage = "lib"
	projectKindStorage = "prj"
)

type classpathStateStorage struct {
	Version int            `json:"v"`
	Project string         `json:"p"`
	Entries []entryStorage `json:"e"`
}

type entryStorage struct {
	Kind        string `json:"k"`
	Path        string `json:"pt"`
	Exported    bool   `json:"x,omitempty"`
	SourcePath  string `json:"s,omitempty"`
	JavadocPath string `json:"j,omitempty"`
}

// EncodeEntries serializes a resolved classpath for persistence, stamped with
// the owning project and the storage format version.
func EncodeEntries(projectKey string, entries []domain.Entry) ([]byte, error) {
	storedEntries := make([]entryStorage, 0, len(entries))
	for _, entry := range entries {
		var kind string
		switch entry.Kind {
		case domain.EntryKindLibrary:
			kind = libraryKindStorage
		case domain.EntryKindProject:
			kind = projectKindStorage
		default:
			return nil, fmt.Errorf("%w: unknown entry kind %q", ErrInvalidPayload, entry.Kind)
		}

		storedEntries = append(storedEntries, entryStorage{
			Kind:        kind,
			Path:        entry.Path,
			Exported:    entry.Exported,
			SourcePath:  entry.SourcePath,
			JavadocPath: entry.JavadocPath,
		})
	}

	data, err := json.Marshal(classpathStateStorage{
		Version: DATA_FORMAT_VERSION,
		Project: projectKey,
		Entries: storedEntries,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal classpath state: %w", err)
	}
	return data, nil
}

// DecodeEntries parses a persisted classpath snapshot, rejecting documents
// with an unknown format version or a different owning project.
func DecodeEntries(projectKey string, payload []byte) ([]domain.Entry, error) {
	var stored classpathStateStorage
	if err := json.Unmarshal(payload, &stored); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}

	if stored.Version != DATA_FORMAT_VERSION {
		return nil, fmt.Errorf("%w: unknown format version %d", ErrInvalidPayload, stored.Version)
	}

	if stored.Project != projectKey {
		return nil, fmt.Errorf("%w: payload for %q, expected %q", ErrWrongOwner, stored.Project, projectKey)
	}

	entries := make([]domain.Entry, 0, len(stored.Entries))
	for _, storedEntry := range stored.Entries {
		var kind domain.EntryKind
		switch storedEntry.Kind {
		case libraryKindStorage:
			kind = domain.EntryKindLibrary
		case projectKindStorage:
			kind = domain.EntryKindProject
		default:
			return nil, fmt.Errorf("%w: unknown entry kind %q", ErrInvalidPayload, storedEntry.Kind)
		}

		entries = append(entries, domain.Entry{
			Kind:        kind,
			Path:        storedEntry.Path,
			Exported:    storedEntry.Exported,
			SourcePath:  storedEntry.SourcePath,
			JavadocPath: storedEntry.JavadocPath,
		})
	}

	return entries, nil
}
