// Package logging builds slog loggers with hardsub's console and JSON
// handlers and carries the structured field conventions shared by the
// pipeline components.
package logging
