// Package notifications publishes workflow events to an ntfy topic.
//
// Events are gated by the [notifications] toggles: queue lifecycle, job
// completion and errors can be switched off independently. When no topic is
// configured a noop service is returned so callers never need nil checks.
package notifications
