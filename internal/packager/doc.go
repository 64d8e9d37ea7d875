// Package packager builds the installable add-on archive from the add-on
// source tree and reads the add-on's bl_info metadata for build summaries.
package packager
