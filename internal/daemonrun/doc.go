// Package daemonrun hosts the foreground daemon process: it builds the
// logger, opens the queue, registers the render stages, serves IPC, and
// waits for a signal or an IPC stop request.
package daemonrun
