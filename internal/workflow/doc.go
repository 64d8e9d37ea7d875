// Package workflow advances queue items through the render stages.
//
// The Manager runs a bounded pool of workers. Each worker reclaims stale
// work via heartbeats, claims the oldest claimable item across every stage
// start status, and feeds it to the matching stage handler (preparation,
// rendering, collection) while capturing progress and failure metadata.
// Claims are atomic in the store, so two workers never process the same item.
//
// The manager also aggregates queue stats, calls stage health checks, and
// emits queue-level notifications when processing starts from idle or the
// queue drains. Each item gets its own JSON log file under
// <log_dir>/items, appended to by every stage it passes through.
package workflow
