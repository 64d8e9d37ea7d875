// Package blendscript renders the Python scripts mcexport hands to a headless
// Blender: the per-job driver that sets up and renders the export pipeline,
// and the smoke test that proves an add-on archive installs and registers
// its operators.
//
// Every value interpolated into a script is emitted as a quoted Python
// literal, so paths containing quotes, backslashes or newlines cannot break
// out of the generated source.
package blendscript
