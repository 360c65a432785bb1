// Package logger builds log/slog loggers for applications.
//
// [New] returns a JSON or text logger writing to stdout, optionally
// forwarding warnings and errors to Sentry through
// github.com/getsentry/sentry-go/slog when a DSN is configured:
//
//	log, err := logger.New(logger.Config{Level: "debug", Format: "text"},
//		func(ctx context.Context) (slog.Attr, bool) {
//			id, ok := ctx.Value(requestIDKey{}).(string)
//			return slog.String("request_id", id), ok
//		},
//	)
//
// Extractors add request-scoped attributes to every record logged with a
// context; use the *Context logging methods to pass it.
//
// [NewNope] is the default logger of every component that accepts one.
package logger
