// Package logger builds the server's slog loggers.
//
// Loggers from New share one dynamic level (SetLevel), redact attributes
// whose key looks like a secret, partially mask token ids (trk_ prefix)
// and add request_id to entries logged with a request context.
package logger
