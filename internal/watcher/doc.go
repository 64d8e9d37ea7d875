// Package watcher monitors the input directory for .blend files and hands
// settled candidates to a submit callback.
//
// Discovery combines fsnotify events with a periodic directory scan, so files
// present at startup and events dropped by the kernel are still picked up.
// A file is only submitted once its size and modification time have stayed
// unchanged for the configured settle window.
package watcher
