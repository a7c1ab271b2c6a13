package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/declmig/declmig/catalog"
	"github.com/declmig/declmig/compiler"
	"github.com/declmig/declmig/generator"
)

// Record is one row of the tracking table; its existence is the sole
// source of truth for "already applied".
type Record struct {
	MigrationName string
	AppliedAt     time.Time
}

// Result reports one migration file's execution. Failures are captured
// here rather than thrown past the engine boundary; a failed file writes
// no history record.
type Result struct {
	Success       bool
	MigrationName string
	Err           error
}

// Options controls one apply or revert pass.
type Options struct {
	MigrationsDir string
	Schema        string

	// TargetNumber bounds the pass: apply stops after this number, revert
	// stops before undoing it. Zero means no bound.
	TargetNumber int

	// Steps limits a revert to the most recent N applied files. Zero
	// means unbounded.
	Steps int

	// KeepGoing continues past a failed file instead of halting the
	// batch. Halting is the default.
	KeepGoing bool
}

func (o Options) schemaName() string {
	if o.Schema == "" {
		return "public"
	}
	return o.Schema
}

func ensureTrackingTable(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		filename TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %v", err)
	}
	return nil
}

func appliedSet(ctx context.Context, pool *pgxpool.Pool) (map[string]bool, error) {
	rows, err := pool.Query(ctx, `SELECT filename FROM schema_migrations;`)
	if err != nil {
		return nil, fmt.Errorf("querying applied migrations: %v", err)
	}
	defer rows.Close()

	applied := map[string]bool{}
	for rows.Next() {
		var filename string
		if err := rows.Scan(&filename); err != nil {
			return nil, fmt.Errorf("scanning filename: %v", err)
		}
		applied[filename] = true
	}
	return applied, rows.Err()
}

// pendingFiles selects files without a history record, in ascending
// numeric order, bounded by the target number when one is set.
func pendingFiles(files []generator.File, applied map[string]bool, target int) []generator.File {
	var pending []generator.File
	for _, f := range files {
		if applied[f.Filename] {
			continue
		}
		if target > 0 && f.Number > target {
			continue
		}
		pending = append(pending, f)
	}
	return pending
}

// revertCandidates selects applied files in descending numeric order,
// stopping before the target number and honoring the step limit.
func revertCandidates(files []generator.File, applied map[string]bool, target, steps int) []generator.File {
	var candidates []generator.File
	for i := len(files) - 1; i >= 0; i-- {
		f := files[i]
		if !applied[f.Filename] {
			continue
		}
		if target > 0 && f.Number <= target {
			continue
		}
		if steps > 0 && len(candidates) >= steps {
			break
		}
		candidates = append(candidates, f)
	}
	return candidates
}

// forwardStatements compiles or reads one file's forward script. The
// catalog snapshot is the one captured for this file.
func forwardStatements(f generator.File, snap *catalog.Snapshot) ([]string, error) {
	if f.Kind == generator.KindDiff {
		actions, err := generator.ReadDiff(f.Path)
		if err != nil {
			return nil, err
		}
		return compiler.CompileAll(actions, snap)
	}
	forward, _, err := generator.ReadScript(f.Path)
	if err != nil {
		return nil, err
	}
	return []string{forward}, nil
}

// backwardStatements compiles the inverse actions or reads the backward
// script.
func backwardStatements(f generator.File) ([]string, error) {
	if f.Kind == generator.KindDiff {
		actions, err := generator.ReadDiff(f.Path)
		if err != nil {
			return nil, err
		}
		inverted, err := compiler.InvertAll(actions)
		if err != nil {
			return nil, err
		}
		return compiler.CompileAll(inverted, nil)
	}
	_, backward, err := generator.ReadScript(f.Path)
	if err != nil {
		return nil, err
	}
	return []string{backward}, nil
}

// Apply runs every pending migration in ascending numeric order. Each
// file's statements execute inside one transaction together with its
// history insert, so a mid-file failure leaves nothing applied for that
// file. The batch halts at the first failure unless KeepGoing is set.
func Apply(ctx context.Context, pool *pgxpool.Pool, opts Options) ([]Result, error) {
	if err := ensureTrackingTable(ctx, pool); err != nil {
		return nil, err
	}

	files, err := generator.List(opts.MigrationsDir)
	if err != nil {
		return nil, err
	}
	applied, err := appliedSet(ctx, pool)
	if err != nil {
		return nil, err
	}

	var results []Result
	for _, f := range pendingFiles(files, applied, opts.TargetNumber) {
		// Refreshed once per file: earlier files may have created the
		// objects this one checks against.
		snap, err := catalog.Capture(ctx, pool, opts.schemaName())
		if err != nil {
			return results, err
		}

		result := applyOne(ctx, pool, f, snap)
		results = append(results, result)
		if !result.Success && !opts.KeepGoing {
			break
		}
	}
	return results, nil
}

func applyOne(ctx context.Context, pool *pgxpool.Pool, f generator.File, snap *catalog.Snapshot) Result {
	statements, err := forwardStatements(f, snap)
	if err != nil {
		return Result{MigrationName: f.Filename, Err: err}
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return Result{MigrationName: f.Filename, Err: fmt.Errorf("begin transaction: %v", err)}
	}
	defer tx.Rollback(ctx)

	for _, stmt := range statements {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return Result{MigrationName: f.Filename, Err: fmt.Errorf("executing migration %s: %v", f.Filename, err)}
		}
	}
	if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (filename) VALUES ($1);`, f.Filename); err != nil {
		return Result{MigrationName: f.Filename, Err: fmt.Errorf("recording migration %s: %v", f.Filename, err)}
	}
	if err := tx.Commit(ctx); err != nil {
		return Result{MigrationName: f.Filename, Err: fmt.Errorf("committing migration %s: %v", f.Filename, err)}
	}
	return Result{Success: true, MigrationName: f.Filename}
}

// Revert undoes applied migrations in descending numeric order, deleting
// each history record in the same transaction as its backward statements.
func Revert(ctx context.Context, pool *pgxpool.Pool, opts Options) ([]Result, error) {
	if err := ensureTrackingTable(ctx, pool); err != nil {
		return nil, err
	}

	files, err := generator.List(opts.MigrationsDir)
	if err != nil {
		return nil, err
	}
	applied, err := appliedSet(ctx, pool)
	if err != nil {
		return nil, err
	}

	var results []Result
	for _, f := range revertCandidates(files, applied, opts.TargetNumber, opts.Steps) {
		result := revertOne(ctx, pool, f)
		results = append(results, result)
		if !result.Success && !opts.KeepGoing {
			break
		}
	}
	return results, nil
}

func revertOne(ctx context.Context, pool *pgxpool.Pool, f generator.File) Result {
	statements, err := backwardStatements(f)
	if err != nil {
		return Result{MigrationName: f.Filename, Err: err}
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return Result{MigrationName: f.Filename, Err: fmt.Errorf("begin transaction: %v", err)}
	}
	defer tx.Rollback(ctx)

	for _, stmt := range statements {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return Result{MigrationName: f.Filename, Err: fmt.Errorf("reverting migration %s: %v", f.Filename, err)}
		}
	}
	if _, err := tx.Exec(ctx, `DELETE FROM schema_migrations WHERE filename = $1;`, f.Filename); err != nil {
		return Result{MigrationName: f.Filename, Err: fmt.Errorf("removing record for %s: %v", f.Filename, err)}
	}
	if err := tx.Commit(ctx); err != nil {
		return Result{MigrationName: f.Filename, Err: fmt.Errorf("committing revert of %s: %v", f.Filename, err)}
	}
	return Result{Success: true, MigrationName: f.Filename}
}

// Status lists applied filenames and pending files.
func Status(ctx context.Context, pool *pgxpool.Pool, migrationsDir string) (applied []string, pending []generator.File, err error) {
	if err := ensureTrackingTable(ctx, pool); err != nil {
		return nil, nil, err
	}

	files, err := generator.List(migrationsDir)
	if err != nil {
		return nil, nil, err
	}
	appliedMap, err := appliedSet(ctx, pool)
	if err != nil {
		return nil, nil, err
	}

	for _, f := range files {
		if appliedMap[f.Filename] {
			applied = append(applied, f.Filename)
		} else {
			pending = append(pending, f)
		}
	}
	return applied, pending, nil
}

// History returns every tracking record, newest first.
func History(ctx context.Context, pool *pgxpool.Pool) ([]Record, error) {
	if err := ensureTrackingTable(ctx, pool); err != nil {
		return nil, err
	}

	rows, err := pool.Query(ctx, `SELECT filename, applied_at FROM schema_migrations ORDER BY applied_at DESC;`)
	if err != nil {
		return nil, fmt.Errorf("querying migration history: %v", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.MigrationName, &r.AppliedAt); err != nil {
			return nil, fmt.Errorf("scanning history record: %v", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Explain compiles one migration's statements for a direction without
// executing anything. Structural diffs compile against an empty snapshot
// so nothing is skipped.
func Explain(migrationsDir string, number int, direction string) ([]string, error) {
	files, err := generator.List(migrationsDir)
	if err != nil {
		return nil, err
	}

	for _, f := range files {
		if f.Number != number {
			continue
		}
		switch direction {
		case "up", "":
			return forwardStatements(f, nil)
		case "down":
			return backwardStatements(f)
		}
		return nil, fmt.Errorf("unknown direction %q (want up or down)", direction)
	}
	return nil, fmt.Errorf("no migration with number %d", number)
}
