package log

import (
	"context"
	"log/slog"
)

// SlogAdapter mirrors protocol events onto an slog.Logger at debug
// level, which makes a live capture readable during development
// without opening the binary file.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter wraps an slog.Logger as a protocol event sink.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log emits the event as one debug record.
func (a *SlogAdapter) Log(event Event) {
	attrs := make([]slog.Attr, 0, 8)
	attrs = append(attrs,
		slog.String("direction", event.Direction.String()),
		slog.String("layer", event.Layer.String()),
		slog.String("category", event.Category.String()),
	)
	if event.ConnectionID != "" {
		attrs = append(attrs, slog.String("conn_id", event.ConnectionID))
	}
	if event.Topic != "" {
		attrs = append(attrs, slog.String("topic", event.Topic))
	}
	attrs = append(attrs, detailAttrs(event)...)

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "protocol", attrs...)
}

// detailAttrs flattens whichever detail payload the event carries.
func detailAttrs(event Event) []slog.Attr {
	switch {
	case event.Message != nil:
		m := event.Message
		attrs := []slog.Attr{
			slog.Int("size", m.Size),
			slog.String("payload", m.Payload),
		}
		if m.Truncated {
			attrs = append(attrs, slog.Bool("truncated", true))
		}
		return attrs

	case event.StateChange != nil:
		s := event.StateChange
		attrs := []slog.Attr{
			slog.String("entity", s.Entity.String()),
			slog.String("old_state", s.OldState),
			slog.String("new_state", s.NewState),
		}
		if s.Reason != "" {
			attrs = append(attrs, slog.String("reason", s.Reason))
		}
		return attrs

	case event.Decision != nil:
		d := event.Decision
		attrs := []slog.Attr{
			slog.Int("user", d.User),
			slog.Bool("executed", d.Executed),
		}
		if d.Command != "" {
			attrs = append(attrs, slog.String("command", d.Command))
		}
		if d.Reason != "" {
			attrs = append(attrs, slog.String("reason", d.Reason))
		}
		return attrs

	case event.Error != nil:
		e := event.Error
		attrs := []slog.Attr{
			slog.String("error_layer", e.Layer.String()),
			slog.String("error_msg", e.Message),
		}
		if e.Context != "" {
			attrs = append(attrs, slog.String("error_context", e.Context))
		}
		return attrs
	}
	return nil
}

var _ Logger = (*SlogAdapter)(nil)
