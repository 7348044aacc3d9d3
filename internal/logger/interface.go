package logger

import "codeberg.org/mutker/serialstat/internal/errors"

// Logger defines the interface for logging operations.
type Logger interface {
	Debug() *LogEvent
	Info() *LogEvent
	Warn() *LogEvent
	Error() *LogEvent
	ErrorWithCode(err errors.Error) *LogEvent
	WarnWithCode(err errors.Error) *LogEvent
}

type global struct{}

// Global returns a Logger backed by the package-level logger.
func Global() Logger {
	return global{}
}

func (global) Debug() *LogEvent { return Debug() }
func (global) Info() *LogEvent  { return Info() }
func (global) Warn() *LogEvent  { return Warn() }
func (global) Error() *LogEvent { return Error() }

func (global) ErrorWithCode(err errors.Error) *LogEvent { return ErrorWithCode(err) }
func (global) WarnWithCode(err errors.Error) *LogEvent  { return WarnWithCode(err) }
