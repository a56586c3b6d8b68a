package store

import (
	"context"
	"fmt"
	"time"
)

// WriteRun inserts a run record into the store.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - duplicate IDs are silently ignored.
// Other constraint violations (e.g., an unknown status) still return errors.
func (s *Store) WriteRun(ctx context.Context, run Run) error {
	propsJSON, err := marshalProperties(run.Properties)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs
		(id, seq, run_key, circuit_name, circuit_hash, target_name, target_hash,
		 level, layout_method, status, error, input_qasm, output_qasm, properties,
		 duration_ns, tool_version, ir_version, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.Seq,
		run.Key,
		run.CircuitName,
		run.CircuitHash,
		run.TargetName,
		run.TargetHash,
		run.Level,
		run.LayoutMethod,
		run.Status,
		run.Error,
		run.InputQASM,
		run.OutputQASM,
		propsJSON,
		run.Duration.Nanoseconds(),
		run.ToolVersion,
		run.IRVersion,
		run.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}

	return nil
}

// PruneRuns deletes all but the newest keep runs and returns how many rows
// were removed.
func (s *Store) PruneRuns(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		return 0, fmt.Errorf("prune runs: keep must be non-negative, got %d", keep)
	}
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM runs WHERE id NOT IN (
			SELECT id FROM runs ORDER BY seq DESC, id COLLATE BINARY DESC LIMIT ?
		)
	`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return n, nil
}
