// Package logging assembles structured slog loggers and formatting helpers used
// by both mediakit commands.
//
// It owns the console and JSON handlers and centralizes level plumbing. Logs
// always go to stderr: stdout belongs to command output such as --json
// payloads and progress lines. The package also provides a no-op logger for
// tests and wiring code that cannot fail.
package logging
