// Package log provides secure logging functionality with automatic sanitization
// of sensitive information, built on top of the standard slog package.
//
// Scan logs travel through aggregation systems together with audit data
// from the API layer (caller identity, session attributes), so the
// handler masks anything that looks like a credential before it leaves
// the process:
//   - HTTP headers (Authorization, Cookie, Set-Cookie, X-Api-Key)
//   - Secret values detected by pattern matching (passwords, tokens, keys)
//   - Session identifiers and authentication tokens
//
// Content digests are the one deliberate exception: reports are keyed by
// SHA-256, and a masked hash makes a log line useless for correlation.
// Hex digests stay visible even though they are long alphanumeric
// strings.
//
// # Usage
//
//	// Create a secure logger
//	logger := log.NewSecureLogger(os.Stderr, true) // verbose=true
//
//	// Use as a standard slog.Logger
//	logger.Info("scan stored",
//	    "cookie", "session=abc123",  // Will be sanitized to "***REDACTED***"
//	    "sha256", digest,            // Stays visible
//	)
//
//	// Set as default logger
//	slog.SetDefault(logger)
package log
