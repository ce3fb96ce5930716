// Package logger provides the structured logging facade used by the RJE terminal packages.
//
// Components log through the Logger interface so the executable can choose where records
// go. Print output of a retrieval session is written to standard output, so loggers built
// for the executable write to standard error instead.
//
// Log Levels:
//
//   - DebugLevel:  Raw byte and carriage-control traces, disabled unless debugging.
//   - InfoLevel:  Session progress (sign-on, job submitted, transmission complete).
//   - WarnLevel:  Recovered conditions such as malformed print records.
//   - ErrorLevel:  Fatal session errors reported before exit.
//   - FatalLevel:  Logs and terminates the process.
package logger

// Level indicates the logging severity level.
type Level = int8

const (
	// DebugLevel logs are voluminous (one record per wire token) and disabled by default.
	DebugLevel Level = iota - 1
	// InfoLevel is the default logging priority.
	InfoLevel
	// WarnLevel logs recovered protocol or formatting problems.
	WarnLevel
	// ErrorLevel logs conditions that abort a session.
	ErrorLevel
	// FatalLevel logs a message, then calls os.Exit(1).
	FatalLevel
)

// Logger defines a common interface for logging.
type Logger interface {
	// Debug logs a message at DebugLevel with optional key-value pairs.
	Debug(msg string, keysAndValues ...any)
	// Info logs a message at InfoLevel with optional key-value pairs.
	Info(msg string, keysAndValues ...any)
	// Warn logs a message at WarnLevel with optional key-value pairs.
	Warn(msg string, keysAndValues ...any)
	// Error logs a message at ErrorLevel with optional key-value pairs.
	Error(msg string, keysAndValues ...any)
	// Fatal logs a message at FatalLevel, then calls os.Exit(1).
	Fatal(msg string, keysAndValues ...any)
	// With creates a child logger and adds structured context to it.
	// Key-values added to the child don't affect the parent, and vice versa.
	With(keyValues ...any) Logger
	// Level returns the minimum enabled level for this logger.
	Level() Level
	// SetLevel sets the minimum enabled level for this logger.
	SetLevel(level Level)
}
