// Package logging provides the package-scoped, suppressible logger shared by
// every pipeline stage. The core performs no I/O of its own; logging is the
// one permitted side effect (see the concurrency & resource model), and the
// host embedding this library must be able to silence it entirely.
package logging

import "go.uber.org/zap"

var instance *zap.Logger

// Init installs a production JSON logger as the package-scoped instance.
func Init() error {
	l, err := zap.NewProduction()
	if err != nil {
		return err
	}
	instance = l
	return nil
}

// Silence installs a no-op logger, suppressing all output. Hosts that embed
// this library as a pure function call should do this unless they want the
// warnings surfaced as log lines in addition to the returned metadata.
func Silence() {
	instance = zap.NewNop()
}

// Get returns the package-scoped logger, lazily installing a no-op logger
// so that callers who never call Init or Silence still get a safe default
// (fail open to silence, not to stdout noise).
func Get() *zap.Logger {
	if instance == nil {
		instance = zap.NewNop()
	}
	return instance
}

// Sync flushes any buffered log entries. Safe to call on a nil or no-op
// logger.
func Sync() {
	if instance != nil {
		_ = instance.Sync()
	}
}
