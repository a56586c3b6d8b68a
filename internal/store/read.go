package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const runColumns = `id, seq, run_key, circuit_name, circuit_hash, target_name, target_hash,
	level, layout_method, status, error, input_qasm, output_qasm, properties,
	duration_ns, tool_version, ir_version, created_at`

// ListOptions filters ListRuns. Zero values match everything.
type ListOptions struct {
	Target  string
	Circuit string
	Status  string
	Limit   int
}

// ReadRun returns the run with the given ID, or ErrNotFound.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("read run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("read run %s: %w", id, err)
	}
	return run, nil
}

// ListRuns returns runs newest first.
// Ordering: ORDER BY seq DESC, id DESC COLLATE BINARY.
//
// Returns an empty slice (not nil) when nothing matches.
func (s *Store) ListRuns(ctx context.Context, opts ListOptions) ([]Run, error) {
	var where []string
	var args []any
	if opts.Target != "" {
		where = append(where, "target_name = ?")
		args = append(args, opts.Target)
	}
	if opts.Circuit != "" {
		where = append(where, "circuit_name = ?")
		args = append(args, opts.Circuit)
	}
	if opts.Status != "" {
		where = append(where, "status = ?")
		args = append(args, opts.Status)
	}

	query := `SELECT ` + runColumns + ` FROM runs`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY seq DESC, id COLLATE BINARY DESC"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// FindByKey returns the newest successful run recorded under key.
func (s *Store) FindByKey(ctx context.Context, key string) (Run, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		WHERE run_key = ? AND status = ?
		ORDER BY seq DESC, id COLLATE BINARY DESC
		LIMIT 1
	`, key, StatusSuccess)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, false, nil
	}
	if err != nil {
		return Run{}, false, fmt.Errorf("find run by key: %w", err)
	}
	return run, true, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run        Run
		propsJSON  string
		durationNS int64
		createdAt  string
	)
	err := row.Scan(
		&run.ID, &run.Seq, &run.Key, &run.CircuitName, &run.CircuitHash,
		&run.TargetName, &run.TargetHash, &run.Level, &run.LayoutMethod,
		&run.Status, &run.Error, &run.InputQASM, &run.OutputQASM, &propsJSON,
		&durationNS, &run.ToolVersion, &run.IRVersion, &createdAt,
	)
	if err != nil {
		return Run{}, err
	}

	run.Properties, err = unmarshalProperties(propsJSON)
	if err != nil {
		return Run{}, err
	}
	run.Duration = time.Duration(durationNS)
	run.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return Run{}, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	return run, nil
}
