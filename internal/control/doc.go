// Package control sequences the engine passes behind the CLI and the HTTP
// server: load and save the declared model, reconcile fragments, restart
// PipeWire and autolink sends.
package control
