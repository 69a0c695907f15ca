package log

import (
	"context"
	"log/slog"
)

// bridgeHandler is a slog.Handler that routes records through the Logger
// interface, so libraries speaking slog share the process formatter and
// outputs.
type bridgeHandler struct {
	logger Logger
	attrs  []Field
}

// Slog returns a *slog.Logger backed by logger.
func Slog(logger Logger) *slog.Logger {
	return slog.New(&bridgeHandler{logger: logger})
}

// Enabled gates by the logger's level.
func (h *bridgeHandler) Enabled(_ context.Context, level slog.Level) bool {
	return h.logger.GetLevel() <= fromSlogLevel(level)
}

// Handle converts the record's attrs to Fields and emits it.
func (h *bridgeHandler) Handle(_ context.Context, r slog.Record) error {
	fields := make([]Field, 0, len(h.attrs)+r.NumAttrs())
	fields = append(fields, h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		fields = append(fields, Any(a.Key, a.Value.Any()))
		return true
	})
	switch fromSlogLevel(r.Level) {
	case DebugLevel:
		h.logger.Debug(r.Message, fields...)
	case InfoLevel:
		h.logger.Info(r.Message, fields...)
	case WarnLevel:
		h.logger.Warn(r.Message, fields...)
	default:
		h.logger.Error(r.Message, fields...)
	}
	return nil
}

// WithAttrs returns a copy of the handler with additional base attributes.
func (h *bridgeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	nh := *h
	nh.attrs = append([]Field{}, h.attrs...)
	for _, a := range attrs {
		nh.attrs = append(nh.attrs, Any(a.Key, a.Value.Any()))
	}
	return &nh
}

// WithGroup returns the handler unchanged; grouping is not used by this
// pipeline.
func (h *bridgeHandler) WithGroup(string) slog.Handler { return h }

// fromSlogLevel maps slog.Level to our Level.
func fromSlogLevel(level slog.Level) Level {
	switch {
	case level <= slog.LevelDebug:
		return DebugLevel
	case level == slog.LevelInfo:
		return InfoLevel
	case level == slog.LevelWarn:
		return WarnLevel
	default:
		return ErrorLevel
	}
}
