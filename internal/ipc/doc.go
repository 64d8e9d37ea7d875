// Package ipc exposes the daemon over JSON-RPC on a Unix socket and ships the
// matching client used by the CLI.
//
// It owns socket lifecycle management, request/response DTOs, and the
// conversion from queue items to their wire representation. The CLI falls
// back to direct store access when Dial fails, reusing FromQueueItem and
// FillQueueHealth so both paths print the same shapes.
package ipc
