// Package stage defines the contract shared by the preparation, rendering and
// collection handlers and the workflow manager that drives them.
package stage
