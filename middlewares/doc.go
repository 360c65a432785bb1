// Package middlewares provides net/http middleware for mvc applications.
// Middleware runs in the chi mux in front of the dispatcher, in the order
// given to mvc.WithMiddleware.
//
// # Request ID
//
// RequestID keeps an upstream X-Request-ID (or X-Correlation-ID) or
// generates a UUID, stores it in the request context and echoes it in the
// response. Pair it with RequestIDExtractor so every log record of the
// request carries it:
//
//	log, _ := logger.New(cfg, middlewares.RequestIDExtractor())
//	app, err := mvc.New(
//	    mvc.WithLogger(log),
//	    mvc.WithMiddleware(
//	        middlewares.RequestID(),
//	        middlewares.Recover(middlewares.WithRecoverLogger(log)),
//	    ),
//	)
//
// # Recover
//
// Recover turns a panic into a logged PanicError and a 500 response.
//
// # Timeout
//
// Timeout puts a deadline on the request context. Queries run with the
// context fail once it expires.
package middlewares
