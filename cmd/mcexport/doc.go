// Command mcexport runs the multi-channel export render daemon and the
// tooling around it: queue management over IPC, add-on packaging and smoke
// testing, render plans, and project setup.
package main
