package domain

type EntryKind string

const (
	EntryKindLibrary EntryKind = "library"
	EntryKindProject EntryKind = "project"
)

// Entry is a single element of a project's resolved classpath.
//
// For library entries Path is the absolute path to the artifact on disk.
// For project entries Path is the key of the workspace project that produces
// the artifact. Entries are immutable once resolved.
type Entry struct {
	Kind     EntryKind
	Path     string
	Exported bool

	// Optional attachments. Only meaningful for library entries.
	SourcePath  string
	JavadocPath string
}

func (e Entry) IsProject() bool {
	return e.Kind == EntryKindProject
}

func EntriesEqual(a, b []Entry) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
