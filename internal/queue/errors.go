package queue

import "errors"

var (
	// ErrDuplicateSource is returned when a source path is already queued.
	ErrDuplicateSource = errors.New("source already queued")
	// ErrItemBusy is returned when an operation needs an idle item but a worker holds it.
	ErrItemBusy = errors.New("item is being processed")
	// ErrItemGone is returned when an item was deleted while still in use.
	ErrItemGone = errors.New("item no longer in queue")
)
