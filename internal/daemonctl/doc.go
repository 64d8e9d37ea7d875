// Package daemonctl starts and stops the mcexport daemon as a background
// process on behalf of the CLI. It talks to a running daemon through the ipc
// client and falls back to the pid file when a stop request goes unanswered.
package daemonctl
