// Package pipeline models the multi-channel export layout the Blender add-on
// builds inside a .blend file.
//
// A channel (mobile or desktop) owns a render scene, a composite scene that
// turns rendered frames into a video, a frames directory and a video output
// directory. The package also computes the loop timeline the composite scene
// uses and names the add-on operators that drive a render target, so the
// queue, the CLI plan command and the driver script generator agree on one
// model.
package pipeline
