package journal

import (
	"context"
	"log/slog"
	"slices"

	"github.com/samber/lo"
)

// HandlerOptions configure the journal handler.
type HandlerOptions struct {
	// Level is the minimum level of journaled records. Default: slog.LevelDebug
	Level slog.Leveler
}

// Handler is a slog.Handler writing into a Journal.
type Handler struct {
	journal *Journal
	level   slog.Leveler

	attrs  []slog.Attr
	groups []string
}

var _ slog.Handler = (*Handler)(nil)

// NewHandler returns a handler that journals records to j.
func NewHandler(j *Journal, opts HandlerOptions) *Handler {
	level := opts.Level
	if level == nil {
		level = slog.LevelDebug
	}
	return &Handler{
		journal: j,
		level:   level,
	}
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *Handler) Handle(_ context.Context, record slog.Record) error {
	attrs := make([]slog.Attr, 0, record.NumAttrs())
	record.Attrs(func(attr slog.Attr) bool {
		attrs = append(attrs, attr)
		return true
	})

	// Record attributes belong to the innermost open group.
	for i := len(h.groups) - 1; i >= 0; i-- {
		if len(attrs) == 0 {
			break
		}
		attrs = []slog.Attr{slog.Group(h.groups[i], lo.ToAnySlice(attrs)...)}
	}

	h.journal.Add(Entry{
		Time:    record.Time,
		Level:   record.Level,
		Message: record.Message,
		Attrs:   append(slices.Clone(h.attrs), attrs...),
	})
	return nil
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	return &Handler{
		journal: h.journal,
		level:   h.level,
		attrs:   appendAttrsToGroup(h.groups, h.attrs, attrs...),
		groups:  h.groups,
	}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &Handler{
		journal: h.journal,
		level:   h.level,
		attrs:   h.attrs,
		groups:  append(slices.Clone(h.groups), name),
	}
}

// appendAttrsToGroup adds newAttrs to the group nested by groups, creating missing groups.
func appendAttrsToGroup(groups []string, actualAttrs []slog.Attr, newAttrs ...slog.Attr) []slog.Attr {
	actualAttrs = slices.Clone(actualAttrs)

	if len(groups) == 0 {
		return append(actualAttrs, newAttrs...)
	}

	for i, attr := range actualAttrs {
		if attr.Key == groups[0] && attr.Value.Kind() == slog.KindGroup {
			actualAttrs[i] = slog.Group(groups[0], lo.ToAnySlice(appendAttrsToGroup(groups[1:], attr.Value.Group(), newAttrs...))...)
			return actualAttrs
		}
	}

	return append(actualAttrs,
		slog.Group(groups[0], lo.ToAnySlice(appendAttrsToGroup(groups[1:], nil, newAttrs...))...),
	)
}
