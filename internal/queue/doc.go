// Package queue persists render jobs in SQLite and exposes helpers for
// driving their lifecycle.
//
// The Store manages database connections, schema initialization, stats queries,
// heartbeat tracking, stuck-item recovery, and the atomic claim that hands the
// oldest ready job to a worker. Queue items capture the job directory, the
// working copy of the .blend, the generated driver script, the collected
// channel videos, progress, and review flags so stages can coordinate without
// additional state.
//
// The database is treated as transient storage for in-flight jobs rather than
// a long-term archive; the processed-files ledger is the durable record. Schema
// changes bump the version in schema.go; users clear the database to adopt the
// new schema.
package queue
