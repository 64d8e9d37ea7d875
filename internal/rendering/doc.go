// Package rendering implements the render stage: it runs the prepared
// process.py inside headless Blender against the job's working copy and
// reports progress as Blender walks the render order (each channel scene,
// then its composite).
//
// When Blender exits non-zero the captured stdout and stderr are written to
// blender_stdout.log and blender_stderr.log in the job directory.
package rendering
