// Package logger provides structured logging functionality for the application.
//
// It utilizes Go's standard library log/slog package to implement structured JSON logging
// with configurable log levels, and carries request-scoped loggers through a context.Context
// so that fields such as trace_id and player_id follow a request into the service layer.
package logger
