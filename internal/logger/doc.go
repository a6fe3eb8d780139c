// Package logger wraps zap to offer:
//   - a global sugared logger with a console encoder on stdout,
//   - context helpers (ToContext/FromContext/WithName/WithKV),
//   - level parsing for the --log-level flag,
//   - convenience functions (InfoKV, ErrorKV, etc.).
//
// Deploy code receives a context and extracts the logger from it, so the run ID
// and the release being packaged travel with every message.
package logger
