// Package logger provides a small wrapper around zap to offer:
//   - a global sugared logger with a console encoder on stderr,
//   - an optional JSON file sink that keeps a record of warnings and errors,
//   - a file-only journal for messages the user already sees on the terminal,
//   - context helpers (ToContext/FromContext/WithName/WithKV/Journal),
//   - level configuration and parsing utilities,
//   - convenience functions (InfoKV, ErrorKV, etc.).
//
// Services accept a context and extract the logger from it, so every log line
// of an installation carries the same scoped fields.
package logger
