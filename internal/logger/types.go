package logger

// LogLevel represents logging levels as strings
type LogLevel string

const (
	// DebugLevel logs are typically voluminous, and are usually disabled in production
	DebugLevel LogLevel = "debug"

	// InfoLevel is the default logging priority
	InfoLevel LogLevel = "info"

	// WarnLevel logs are more important than Info, but don't need individual human review
	WarnLevel LogLevel = "warn"

	// ErrorLevel logs are high-priority
	ErrorLevel LogLevel = "error"

	// FatalLevel logs are particularly important errors, application will exit after logging
	FatalLevel LogLevel = "fatal"
)

const (
	// DefaultLogLevel is used when no level is configured
	DefaultLogLevel = InfoLevel

	// DefaultMaxSizeMB is the size of a log file in megabytes before it gets rotated
	DefaultMaxSizeMB = 20

	// DefaultMaxBackups is the number of rotated files kept per log file
	DefaultMaxBackups = 5

	// DefaultMaxAgeDays defines how long rotated logs are kept
	DefaultMaxAgeDays = 15

	// ErrorKey is the field name used when attaching an error to a log entry
	ErrorKey = "error"
)

// Logger defines the logging methods required by the application.
// Uses generic types to avoid coupling to a specific library implementation.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	Fatal(msg string, fields map[string]interface{})

	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Fatalf(format string, args ...interface{})

	WithField(key string, value interface{}) Logger
	WithFields(fields map[string]interface{}) Logger

	Sync() error
}

// ParseLevel converts a user supplied string into a LogLevel. Unknown values map to the default level.
func ParseLevel(s string) LogLevel {
	switch LogLevel(s) {
	case DebugLevel, InfoLevel, WarnLevel, ErrorLevel, FatalLevel:
		return LogLevel(s)
	default:
		return DefaultLogLevel
	}
}
