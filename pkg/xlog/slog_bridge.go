package xlog

import (
	"context"
	"log/slog"
)

// bridgeHandler is a slog.Handler that routes records through this
// package's own formatter/output pipeline, so code that accepts a
// *slog.Logger still produces output consistent with the rest of the
// facade.
type bridgeHandler struct {
	logger *baseLogger
	attrs  []slog.Attr
}

func newBridgeHandler(l *baseLogger) *bridgeHandler {
	return &bridgeHandler{logger: l}
}

func (h *bridgeHandler) Enabled(_ context.Context, level slog.Level) bool {
	return fromSlogLevel(level) >= h.logger.level
}

func (h *bridgeHandler) Handle(_ context.Context, r slog.Record) error {
	fields := make([]Field, 0, len(h.attrs)+r.NumAttrs())
	for _, a := range h.attrs {
		fields = append(fields, Field{Key: a.Key, Value: a.Value.Any()})
	}
	r.Attrs(func(a slog.Attr) bool {
		fields = append(fields, Field{Key: a.Key, Value: a.Value.Any()})
		return true
	})
	h.logger.log(fromSlogLevel(r.Level), r.Message, fields...)
	return nil
}

func (h *bridgeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	nh := &bridgeHandler{logger: h.logger, attrs: append(append([]slog.Attr{}, h.attrs...), attrs...)}
	return nh
}

func (h *bridgeHandler) WithGroup(_ string) slog.Handler {
	return h
}

func fromSlogLevel(level slog.Level) Level {
	switch {
	case level < slog.LevelInfo:
		return DebugLevel
	case level < slog.LevelWarn:
		return InfoLevel
	case level < slog.LevelError:
		return WarnLevel
	default:
		return ErrorLevel
	}
}
