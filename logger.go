package toolcast

// Logger is the printf-style sink every service writes to.
//
// The server adapts log/slog in cmd/toolcast-server/internal/logging;
// tests pass NoopLogger.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})

	// Info logs a preformatted line, e.g. startup banners.
	Info(message string)
}

// NoopLogger discards everything.
type NoopLogger struct{}

func (l *NoopLogger) Debugf(_ string, _ ...interface{}) {}
func (l *NoopLogger) Infof(_ string, _ ...interface{})  {}
func (l *NoopLogger) Warnf(_ string, _ ...interface{})  {}
func (l *NoopLogger) Errorf(_ string, _ ...interface{}) {}
func (l *NoopLogger) Info(_ string)                     {}

// ComponentLogger prefixes every line with "[component] " so that the
// catalog, dispatcher and subscriber logs can be told apart in one stream.
func ComponentLogger(l Logger, component string) Logger {
	if l == nil {
		return &NoopLogger{}
	}
	return &componentLogger{next: l, prefix: "[" + component + "] "}
}

type componentLogger struct {
	next   Logger
	prefix string
}

func (c *componentLogger) Debugf(format string, args ...interface{}) {
	c.next.Debugf(c.prefix+format, args...)
}

func (c *componentLogger) Infof(format string, args ...interface{}) {
	c.next.Infof(c.prefix+format, args...)
}

func (c *componentLogger) Warnf(format string, args ...interface{}) {
	c.next.Warnf(c.prefix+format, args...)
}

func (c *componentLogger) Errorf(format string, args ...interface{}) {
	c.next.Errorf(c.prefix+format, args...)
}

func (c *componentLogger) Info(message string) {
	c.next.Info(c.prefix + message)
}
