// Package ledger records which .blend sources have been rendered and
// collected, in the processed_files.json format existing deployments already
// keep in the output directory. A source in the ledger is never enqueued again
// unless an operator forces it.
package ledger
