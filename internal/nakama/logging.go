package nakama

import (
	"context"
	"log/slog"

	"github.com/heroiclabs/nakama-common/runtime"
)

// LogHandler is a slog.Handler writing through the Nakama runtime logger, so ledger
// packages logging via slog end up in the server's log.
type LogHandler struct {
	log    runtime.Logger
	level  slog.Leveler
	fields map[string]any
	group  string
}

// NewLogHandler wraps log. Records below level are dropped.
func NewLogHandler(log runtime.Logger, level slog.Leveler) *LogHandler {
	if level == nil {
		level = slog.LevelInfo
	}
	return &LogHandler{log: log, level: level, fields: map[string]any{}}
}

func (h *LogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *LogHandler) Handle(_ context.Context, r slog.Record) error {
	fields := make(map[string]any, len(h.fields)+r.NumAttrs())
	for k, v := range h.fields {
		fields[k] = v
	}
	r.Attrs(func(a slog.Attr) bool {
		h.addAttr(fields, h.group, a)
		return true
	})
	log := h.log
	if len(fields) > 0 {
		log = log.WithFields(fields)
	}
	switch {
	case r.Level >= slog.LevelError:
		log.Error("%s", r.Message)
	case r.Level >= slog.LevelWarn:
		log.Warn("%s", r.Message)
	case r.Level >= slog.LevelInfo:
		log.Info("%s", r.Message)
	default:
		log.Debug("%s", r.Message)
	}
	return nil
}

func (h *LogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := h.clone()
	for _, a := range attrs {
		h.addAttr(next.fields, h.group, a)
	}
	return next
}

func (h *LogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := h.clone()
	next.group = qualify(h.group, name)
	return next
}

func (h *LogHandler) clone() *LogHandler {
	fields := make(map[string]any, len(h.fields))
	for k, v := range h.fields {
		fields[k] = v
	}
	return &LogHandler{log: h.log, level: h.level, fields: fields, group: h.group}
}

func (h *LogHandler) addAttr(fields map[string]any, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			h.addAttr(fields, qualify(prefix, a.Key), ga)
		}
		return
	}
	fields[qualify(prefix, a.Key)] = a.Value.Any()
}

func qualify(prefix, key string) string {
	if prefix == "" {
		return key
	}
	if key == "" {
		return prefix
	}
	return prefix + "." + key
}

var _ slog.Handler = (*LogHandler)(nil)
