// Package logger provides structured logging for bradis.
//
// It wraps the standard library log/slog to provide structured JSON or text
// logging with a process-wide dynamically adjustable level.
package logger
