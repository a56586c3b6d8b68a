// Package store provides SQLite-backed durable storage for transpilation
// run history.
//
// Each row of the runs table records one pipeline execution: the input
// circuit as OpenQASM, the target and optimization level, the outcome, the
// output circuit and the exported property set.
//
// # Ordering
//
//   - Runs are ordered by seq, a logical clock owned by the runner
//   - created_at is informational only and never used for ordering
//   - Queries break seq ties with id COLLATE BINARY
//
// # Cache keys
//
// run_key is the content hash of (circuit hash, target hash, level, layout
// method). FindByKey returns the latest successful run for a key, so an
// identical request can be answered from history.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
package store
