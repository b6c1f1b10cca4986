// Package logging provides the structured logging abstraction used by every
// component of the statement reader. Components depend on Logger, never on
// logrus directly, so tests can capture entries with MockLogger.
package logging

// Logger defines structured, leveled logging with attached fields.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	// WithError returns a derived logger carrying err as a field.
	WithError(err error) Logger

	// WithField returns a derived logger carrying one extra field.
	WithField(key string, value interface{}) Logger

	// WithFields returns a derived logger carrying the given fields.
	WithFields(fields ...Field) Logger
}

// Field is one key/value pair attached to a log entry.
type Field struct {
	Key   string
	Value interface{}
}

// F is shorthand for building a Field inline.
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}
