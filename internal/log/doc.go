// Package log builds the slog loggers used by deeptext.
//
// Loggers wrap their handler in a SecureHandler, which masks request
// secrets before they reach the output: cookie and authorization
// attributes, bearer and basic credentials, JWTs, and the userinfo and
// token query parameters of URLs. URLs keep their host and path so log
// lines stay useful.
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Debug("fetching", "url", "https://user:pw@example.com/?token=x")
//	// url=https://***REDACTED***@example.com/?token=***REDACTED***
package log
