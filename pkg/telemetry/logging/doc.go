// Package logging configures structured logging for the gateway.
//
// # Overview
//
// The package wraps Go's standard log/slog package to provide:
//   - JSON, text, and console output formats
//   - Connection-scoped fields carried in the context (connection id,
//     listener, virtual host)
//   - Redaction of session ids and cookie values
//
// # Usage
//
//	logger, err := logging.New(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//	slog.SetDefault(logger)
//
//	ctx = logging.WithConnectionID(ctx, logging.NewConnectionID())
//	logger.InfoContext(ctx, "request served", "status", 200)
//	// {"msg":"request served","conn_id":"6f1c...","status":200}
//
// # Redaction
//
// Attributes whose key names a session or cookie are shortened to a
// four-character prefix before they reach the output:
//
//	logger.Info("dispatch", "session_id", "a81f93c2d1")
//	// {"msg":"dispatch","session_id":"a81f***"}
package logging
