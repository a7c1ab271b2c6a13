package catalog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Extension describes one extension known to the server.
type Extension struct {
	Name      string
	Version   string // installed version, empty when only available
	Installed bool
}

// Snapshot is a read-only capture of live catalog state, scoped to one
// schema. The compiler consults it for index idempotency and the extension
// advisor for installed/available checks; it is refreshed once per
// migration-file application rather than cached indefinitely.
type Snapshot struct {
	Schema           string
	Tables           map[string]bool
	Indexes          map[string]bool
	Functions        map[string]bool
	Extensions       map[string]Extension
	ServerVersionNum int
}

// Empty returns a snapshot with no live objects, for offline compilation.
func Empty(schemaName string) *Snapshot {
	return &Snapshot{
		Schema:     schemaName,
		Tables:     map[string]bool{},
		Indexes:    map[string]bool{},
		Functions:  map[string]bool{},
		Extensions: map[string]Extension{},
	}
}

// HasIndex reports whether an index with the given name already exists.
func (s *Snapshot) HasIndex(name string) bool {
	return s != nil && s.Indexes[name]
}

// HasFunction reports whether a function with the given name exists in the
// snapshot's schema.
func (s *Snapshot) HasFunction(name string) bool {
	return s != nil && s.Functions[name]
}

// Capture queries live catalog state once.
func Capture(ctx context.Context, pool *pgxpool.Pool, schemaName string) (*Snapshot, error) {
	snap := Empty(schemaName)

	if err := captureNames(ctx, pool, snap.Tables, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1 AND table_type = 'BASE TABLE';
	`, schemaName); err != nil {
		return nil, fmt.Errorf("querying tables: %v", err)
	}

	if err := captureNames(ctx, pool, snap.Indexes, `
		SELECT indexname
		FROM pg_indexes
		WHERE schemaname = $1;
	`, schemaName); err != nil {
		return nil, fmt.Errorf("querying indexes: %v", err)
	}

	if err := captureNames(ctx, pool, snap.Functions, `
		SELECT p.proname
		FROM pg_proc p
		JOIN pg_namespace n ON n.oid = p.pronamespace
		WHERE n.nspname = $1;
	`, schemaName); err != nil {
		return nil, fmt.Errorf("querying functions: %v", err)
	}

	if err := captureExtensions(ctx, pool, snap); err != nil {
		return nil, err
	}

	if err := pool.QueryRow(ctx,
		`SELECT current_setting('server_version_num')::int;`,
	).Scan(&snap.ServerVersionNum); err != nil {
		return nil, fmt.Errorf("querying server version: %v", err)
	}

	return snap, nil
}

func captureNames(ctx context.Context, pool *pgxpool.Pool, into map[string]bool, query string, args ...any) error {
	rows, err := pool.Query(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return err
		}
		into[name] = true
	}
	return rows.Err()
}

func captureExtensions(ctx context.Context, pool *pgxpool.Pool, snap *Snapshot) error {
	rows, err := pool.Query(ctx, `SELECT name, installed_version FROM pg_available_extensions;`)
	if err != nil {
		return fmt.Errorf("querying available extensions: %v", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		var installed *string
		if err := rows.Scan(&name, &installed); err != nil {
			return fmt.Errorf("scanning extension: %v", err)
		}
		ext := Extension{Name: name}
		if installed != nil {
			ext.Installed = true
			ext.Version = *installed
		}
		snap.Extensions[name] = ext
	}
	return rows.Err()
}
