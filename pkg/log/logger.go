package log

// Logger receives protocol events as they happen. Implementations must
// be safe for concurrent use and must return quickly: Log is called
// from the device poll loop and from transport goroutines.
type Logger interface {
	Log(event Event)
}

// NoopLogger drops every event. The zero value is ready to use; it is
// the default when no protocol capture is configured.
type NoopLogger struct{}

// Log discards the event.
func (NoopLogger) Log(Event) {}

var _ Logger = NoopLogger{}
