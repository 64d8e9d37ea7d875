// Package deps checks that the external executables mcexport drives are
// installed and resolvable through PATH.
package deps
