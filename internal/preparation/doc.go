// Package preparation implements the first workflow stage. It validates the
// queued .blend file, creates the per-file job directory under the output
// root, copies the blend there with its timestamps intact, and writes the
// process.py driver Blender runs in the next stage.
package preparation
