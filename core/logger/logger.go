// Package logger declares the logging surface the simulation subsystems
// write against. Implementations live under infra/logger so core packages
// carry no logging backend.
package logger

// Logger is the leveled logging interface handed to every subsystem.
type Logger interface {
	Debugf(format string, args ...any)
	// Debugw attaches structured fields, for per-tick diagnostics that
	// should stay machine filterable.
	Debugw(msg string, fields map[string]any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}
