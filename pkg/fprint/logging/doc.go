// Package logging provides a minimal logging facade for the fprint wrapper.
//
// This package defines a Logger interface that wraps a subset of the standard
// library's log/slog functionality. Applications can supply their own
// implementation through fprint.Config.
//
// # Default Implementation
//
//	// Use default logger (slog.Default())
//	logger := logging.New(nil)
//
//	// Use custom slog.Logger
//	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})
//	fp, err := fprint.NewContextWithConfig(fprint.Config{
//	    Logger: logging.New(slog.New(handler)),
//	})
//
// # Redaction Support
//
// Usernames and descriptions attached to prints identify people and are never
// logged verbatim:
//
//	logger.Debug(ctx, "enroll template", logging.Redacted("username"))
//	// Logs: username=[redacted]
//
// Device identifiers, driver names and enrollment stage counters are not
// considered sensitive.
package logging
