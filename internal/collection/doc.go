// Package collection implements the final workflow stage. It copies each
// configured channel's rendered video out of the Blender output tree to
// <job>/<base>_<channel>.mp4, records the source in the processed-files
// ledger, and announces the finished job.
//
// A render that produced no video at all still completes, but the item is
// flagged for review so an operator can inspect the scene setup.
package collection
