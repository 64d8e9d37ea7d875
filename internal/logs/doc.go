// Package logs reads daemon and per-item log files for the CLI.
//
// Tail returns the last N lines of a file together with the byte offset to
// resume from, and in follow mode blocks until new lines arrive or the wait
// elapses. Follow mode watches the file's directory with fsnotify so the
// daemon rotating mcexport.log to a new run file is picked up promptly.
package logs
