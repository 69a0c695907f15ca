// Package log provides structured logging for riak-repl components.
//
// Usage:
//
//	logger := log.NewLogger(
//	    log.WithLevel(log.DebugLevel),
//	    log.WithFormatter(&log.TextFormatter{}),
//	    log.WithOutput(log.NewConsoleOutput()),
//	)
//	logger.Info("consumer registered", log.Str("name", "site-a"), log.Uint64("start_seq", 0))
//
// Loggers are passed explicitly via dependency injection; there is no global
// default. RedirectStdLog routes standard-library log output (Pebble uses it)
// through a Logger.
package log
