// Package store executes compiled queries against SQLite.
//
// It is the execution side of the pipeline: the compilers produce a builder,
// the adapter materializes it, and Store runs the statement and reads every
// row into a Result. Columns introspects a table so column-derived
// subqueries can be built for tables without a hand-written config.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes (file databases only)
//   - busy_timeout=5000: Wait on lock contention
//   - foreign_keys=ON: Enforce fixture references
package store
