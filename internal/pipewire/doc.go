// Package pipewire reads and patches the PipeWire media graph through its
// command line tools.
//
// Ownership boundary:
// - topology snapshots (pw-dump Node, pw-dump Port)
// - the audio source directory (pw-dump and pactl, merged)
// - autolink planning and idempotent pw-link application
// - PipeWire user service restart
//
// Nothing is cached. Every operation rebuilds the state it needs and runs its
// commands synchronously through a tools.CommandRunner.
package pipewire
