// Package store persists derived tables in a single-file SQLite database so
// downstream tools read typed tables instead of re-parsing CSV.
package store

import (
	"context"
	"regexp"
	"time"

	"github.com/rotisserie/eris"
)

// ErrTableNotFound is returned when reading a table that was never written.
var ErrTableNotFound = eris.New("table not found")

var tableName = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// ValidName reports whether name can be used as a table name.
func ValidName(name string) bool {
	return tableName.MatchString(name)
}

// BuildStatus is the lifecycle state of a recorded build step.
type BuildStatus string

const (
	BuildRunning   BuildStatus = "running"
	BuildSucceeded BuildStatus = "succeeded"
	BuildFailed    BuildStatus = "failed"
)

// Build is one recorded execution of a build step.
type Build struct {
	ID         string
	Step       string
	Status     BuildStatus
	Rows       int
	Error      string
	StartedAt  time.Time
	FinishedAt *time.Time
}

// Store holds derived tables and the history of the builds that wrote them.
type Store interface {
	// Tables
	WriteTable(ctx context.Context, name string, columns []string, rows [][]string) error
	ReadTable(ctx context.Context, name string) ([]string, [][]string, error)
	Tables(ctx context.Context) ([]string, error)

	// Builds
	StartBuild(ctx context.Context, step string) (*Build, error)
	FinishBuild(ctx context.Context, id string, rows int, buildErr error) error
	ListBuilds(ctx context.Context, limit int) ([]Build, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
