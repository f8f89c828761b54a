// Package statusdb records the outcome of batch migrations. Each migrated
// record gets one row keyed by its legacy id; re-running a sync overwrites
// the row, so the table always reflects the latest attempt.
package statusdb

import (
	"context"
	"fmt"
	"strings"
	"time"

	merrors "github.com/openacq/metamigrate/internal/errors"
)

// StatusSuccess marks a record that migrated and landed in the target
// collection. Failures carry "error: <detail>" instead.
const StatusSuccess = "success"

// Row is one migration outcome.
type Row struct {
	V1ID            string    `json:"v1_id"`
	V2ID            string    `json:"v2_id"`
	UpgraderVersion string    `json:"upgrader_version"`
	LastModified    time.Time `json:"last_modified"`
	Status          string    `json:"status"`
}

// Failed reports whether the row records a failed migration.
func (r Row) Failed() bool {
	return r.Status != StatusSuccess
}

// Store is the status table. Record upserts by V1ID.
type Store interface {
	Record(ctx context.Context, row Row) error
	Get(ctx context.Context, v1ID string) (Row, error)
	List(ctx context.Context) ([]Row, error)
	Close() error
}

// Open selects a driver by DSN scheme: postgres:// or postgresql:// for the
// shared status database, sqlite://<path> for a local file, memory:// for
// an in-process table.
func Open(dsn string) (Store, error) {
	switch {
	case dsn == "" || dsn == "memory://" || strings.HasPrefix(dsn, "memory://"):
		return NewMemoryStore(), nil
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return openSQL("pgx", dsn, dialectPostgres)
	case strings.HasPrefix(dsn, "sqlite://"):
		return openSQL("sqlite", strings.TrimPrefix(dsn, "sqlite://"), dialectSQLite)
	}
	return nil, fmt.Errorf("%w: unsupported status store DSN %q", merrors.ErrUnsupported, dsn)
}
