// Package fragments keeps the PipeWire drop-in directory in sync with the
// declared VBAN endpoints.
//
// Ownership boundary:
// - fragment naming convention
// - fragment rendering
// - write, remove and sweep of generated fragments
//
// Files that do not follow the naming convention are never touched.
package fragments
