// Package runner executes transpilation requests with caching and run
// history.
//
// A request is identified by its run key: the content hash of the input
// circuit, the target description, the optimization level and the layout
// method. Lookups go to an in-memory LRU first, then to the SQLite history
// when one is attached. Fresh runs get a UUIDv7 ID and a seq from a
// logical clock, and are written to history whether they succeed or fail.
//
// TranspileAll fans independent requests out over an errgroup. The
// registry and targets are shared read-only; every run works on its own
// copy of the circuit.
package runner
