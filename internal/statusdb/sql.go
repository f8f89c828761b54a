package statusdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // postgres driver
	_ "modernc.org/sqlite"             // pure go sqlite driver

	merrors "github.com/openacq/metamigrate/internal/errors"
)

// dialect covers the placeholder difference between the two SQL drivers.
type dialect int

const (
	dialectPostgres dialect = iota
	dialectSQLite
)

// placeholder renders the n-th bind parameter for the dialect.
func (d dialect) placeholder(n int) string {
	if d == dialectPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

const createTable = `CREATE TABLE IF NOT EXISTS migration_status (
	v1_id TEXT PRIMARY KEY,
	v2_id TEXT NOT NULL,
	upgrader_version TEXT NOT NULL,
	last_modified TIMESTAMP NOT NULL,
	status TEXT NOT NULL
)`

// sqlStore implements Store over database/sql for postgres and sqlite.
type sqlStore struct {
	db      *sql.DB
	dialect dialect
}

// openSQL opens the database, verifies connectivity, and ensures the
// status table exists.
func openSQL(driver, dsn string, d dialect) (Store, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: opening status store: %v", merrors.ErrConnectivity, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: status store unreachable: %v", merrors.ErrConnectivity, err)
	}
	if _, err := db.Exec(createTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating status table: %w", err)
	}
	return &sqlStore{db: db, dialect: d}, nil
}

func (s *sqlStore) Record(ctx context.Context, row Row) error {
	if row.V1ID == "" {
		return fmt.Errorf("%w: status row has no v1 id", merrors.ErrMalformed)
	}
	query := fmt.Sprintf(`INSERT INTO migration_status
		(v1_id, v2_id, upgrader_version, last_modified, status)
		VALUES (%s, %s, %s, %s, %s)
		ON CONFLICT (v1_id) DO UPDATE SET
			v2_id = excluded.v2_id,
			upgrader_version = excluded.upgrader_version,
			last_modified = excluded.last_modified,
			status = excluded.status`,
		s.dialect.placeholder(1), s.dialect.placeholder(2), s.dialect.placeholder(3),
		s.dialect.placeholder(4), s.dialect.placeholder(5))

	_, err := s.db.ExecContext(ctx, query,
		row.V1ID, row.V2ID, row.UpgraderVersion, row.LastModified, row.Status)
	if err != nil {
		return fmt.Errorf("recording status for %q: %w", row.V1ID, err)
	}
	return nil
}

func (s *sqlStore) Get(ctx context.Context, v1ID string) (Row, error) {
	query := fmt.Sprintf(`SELECT v1_id, v2_id, upgrader_version, last_modified, status
		FROM migration_status WHERE v1_id = %s`, s.dialect.placeholder(1))

	var row Row
	err := s.db.QueryRowContext(ctx, query, v1ID).Scan(
		&row.V1ID, &row.V2ID, &row.UpgraderVersion, &row.LastModified, &row.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return Row{}, fmt.Errorf("%w: no status row for %q", merrors.ErrNotFound, v1ID)
	}
	if err != nil {
		return Row{}, fmt.Errorf("reading status for %q: %w", v1ID, err)
	}
	return row, nil
}

func (s *sqlStore) List(ctx context.Context) ([]Row, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT v1_id, v2_id, upgrader_version, last_modified, status
		FROM migration_status ORDER BY v1_id`)
	if err != nil {
		return nil, fmt.Errorf("listing status rows: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var row Row
		if err := rows.Scan(&row.V1ID, &row.V2ID, &row.UpgraderVersion, &row.LastModified, &row.Status); err != nil {
			return nil, fmt.Errorf("scanning status row: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}
