// Package services defines shared utilities consumed by the workflow stage
// handlers and the Blender integration.
//
// Key responsibilities:
//   - Context helpers that stamp queue item IDs, stage names, worker numbers,
//     and correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent queue outcomes (failed, or failed and flagged for review).
//
// Use these helpers when wiring new stage logic so error handling and
// observability stay uniform across the pipeline.
package services
