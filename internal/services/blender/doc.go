// Package blender wraps headless Blender invocations.
//
// The client runs Blender in background mode with a driver script, streams
// stdout and stderr line by line, and turns the render chatter Blender emits
// (frame lines, sequencer appends, saved files, per-frame timings and the
// quit marker) into typed progress events. Command execution goes through an
// Executor so tests can replay canned output without a Blender install.
package blender
