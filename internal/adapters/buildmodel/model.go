package buildmodel

import (
	"errors"
	"time"
)

var (
	// ErrNotReady is the fast-path miss: no model has been fetched yet.
	ErrNotReady = errors.New("build model not ready")
	// ErrProjectUnknown means the build tool does not know the project.
	ErrProjectUnknown = errors.New("project unknown to the build tool")
	// ErrToolingAPI covers unexpected responses from the tooling API.
	ErrToolingAPI = errors.New("tooling api error")
)

// Dependency is one edge of the build tool's dependency graph for a project.
type Dependency struct {
	Name string

	// File is the absolute path to the resolved artifact, empty when the
	// build tool could not resolve one.
	File string

	// ProjectKey is set when the dependency is produced by another project
	// of the same build.
	ProjectKey string

	SourceFile  string
	JavadocFile string
	Exported    bool
}

// Model is one build of a project's dependency graph.
//
// Consumers treat the pointer as the staleness token: every executed fetch
// yields a distinct *Model, even when the content is unchanged, and the
// provider returns the same pointer until the next fetch replaces it.
type Model struct {
	ProjectKey   string
	GeneratedAt  time.Time
	FetchedAt    time.Time
	Dependencies []Dependency
}
