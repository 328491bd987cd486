// Package tools provides the command execution capability used by the PipeWire
// engine.
//
// Ownership boundary:
// - command runner interface
//
// - local (os/exec) and remote (ssh) runners
//
// - command line formatting for diagnostics
package tools
