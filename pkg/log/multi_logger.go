package log

// MultiLogger fans each event out to every wrapped logger, typically a
// FileLogger for capture plus a SlogAdapter for live console output.
type MultiLogger []Logger

// NewMultiLogger wraps the given loggers.
func NewMultiLogger(loggers ...Logger) MultiLogger {
	return MultiLogger(loggers)
}

// Log delivers the event to each wrapped logger in order.
func (m MultiLogger) Log(event Event) {
	for _, l := range m {
		l.Log(event)
	}
}

var _ Logger = MultiLogger(nil)
