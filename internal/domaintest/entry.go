package domaintest

import (
	"fmt"

	"github.com/lantern-dev/lantern/internal/domain"
)

type entryBuilder struct {
	entry *domain.Entry
}

func (eb *entryBuilder) WithExported(exported bool) *entryBuilder {
	eb.entry.Exported = exported
	return eb
}

func (eb *entryBuilder) WithSource(sourcePath string) *entryBuilder {
	eb.entry.SourcePath = sourcePath
	return eb
}

func (eb *entryBuilder) WithJavadoc(javadocPath string) *entryBuilder {
	eb.entry.JavadocPath = javadocPath
	return eb
}

func (eb *entryBuilder) Build() domain.Entry {
	return *eb.entry
}

func NewLibraryEntryBuilder(path string) *entryBuilder {
	return &entryBuilder{
		entry: &domain.Entry{
			Kind: domain.EntryKindLibrary,
			Path: path,
		},
	}
}

func NewProjectEntryBuilder(projectKey string) *entryBuilder {
	return &entryBuilder{
		entry: &domain.Entry{
			Kind: domain.EntryKindProject,
			Path: projectKey,
		},
	}
}

// NewLibraryEntries builds count distinct library entries with generated paths.
func NewLibraryEntries(count int) []domain.Entry {
	entries := make([]domain.Entry, 0, count)
	for i := 0; i < count; i++ {
		entries = append(entries, NewLibraryEntryBuilder(fmt.Sprintf("/repo/libs/dep-%d.jar", i)).Build())
	}
	return entries
}
