// Package daemon coordinates the long-running mcexport process.
//
// It wires configuration, queue storage, the processed-files ledger, the
// input directory watcher, and the workflow manager into a single lifecycle
// with flock-based locking to prevent multiple instances. The daemon also
// exposes queue maintenance helpers, manual file ingestion, and dependency
// health summaries to the IPC layer.
//
// Keep orchestration logic here: individual workflow steps live in their
// stage packages while the daemon focuses on startup, shutdown, and high
// level coordination.
package daemon
