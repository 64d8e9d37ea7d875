// Package projectsetup lays out the add-on project tree that the packager
// and the smoke test expect.
//
// Init creates the directories first and then the placeholder files. Files
// that already exist are left untouched, and the first error stops the run.
package projectsetup
