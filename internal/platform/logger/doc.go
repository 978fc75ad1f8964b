// Package logger provides structured JSON logging on top of log/slog, plus
// helpers that carry request-scoped loggers through a context.Context.
package logger
