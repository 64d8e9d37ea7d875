// Package preflight provides readiness checks for the filesystem paths,
// binaries and services mcexport depends on.
//
// These checks run in two contexts:
//   - The workflow manager calls RunAll when it starts. A failing check keeps
//     the workers from claiming items, so a misconfigured host does not burn
//     through the queue marking every job failed.
//   - The CLI "mcexport deps" and "mcexport queue health" commands show the
//     individual results.
//
// Notification reachability is only checked when a topic is configured.
package preflight
