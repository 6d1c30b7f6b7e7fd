// Package journal keeps a bounded, per-session record of log entries.
//
// A Journal is fed through the slog.Handler returned by NewHandler and read when a
// check fails, so the failure report shows what the session did before the failure.
package journal

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gofrs/uuid"
)

// DefaultCapacity is the number of entries kept when no capacity is configured.
const DefaultCapacity = 500

// Entry is a single journaled log record.
type Entry struct {
	ID      uuid.UUID
	Time    time.Time
	Level   slog.Level
	Message string
	Attrs   []slog.Attr
}

// Attr returns the value of the top level attribute with the given key.
func (e Entry) Attr(key string) (slog.Value, bool) {
	for _, a := range e.Attrs {
		if a.Key == key {
			return a.Value, true
		}
	}
	return slog.Value{}, false
}

// AttrString formats the attributes as space separated key=value pairs.
// Group members are prefixed with the group name and a dot.
func (e Entry) AttrString() string {
	var sb strings.Builder
	writeAttrs(&sb, "", e.Attrs)
	return sb.String()
}

func writeAttrs(sb *strings.Builder, prefix string, attrs []slog.Attr) {
	for _, a := range attrs {
		a.Value = a.Value.Resolve()
		if a.Equal(slog.Attr{}) {
			continue
		}
		if a.Value.Kind() == slog.KindGroup {
			p := prefix
			if a.Key != "" {
				p = prefix + a.Key + "."
			}
			writeAttrs(sb, p, a.Value.Group())
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(sb, "%s%s=%v", prefix, a.Key, a.Value.Any())
	}
}

// Journal is a bounded journal. It is safe for concurrent use.
type Journal struct {
	entries *ring[Entry]
}

// New creates a journal that keeps the most recent capacity entries.
// A non-positive capacity uses DefaultCapacity.
func New(capacity int) *Journal {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Journal{entries: newRing[Entry](capacity)}
}

// Add appends an entry. A missing ID is generated.
func (j *Journal) Add(e Entry) {
	if e.ID == uuid.Nil {
		e.ID = uuid.Must(uuid.NewV7())
	}
	j.entries.add(e)
}

// Entries returns all retained entries, oldest first.
func (j *Journal) Entries() []Entry {
	return j.entries.last(j.entries.capacity())
}

// Tail returns up to n of the most recent entries, oldest first.
func (j *Journal) Tail(n int) []Entry {
	return j.entries.last(n)
}

// Len returns the number of retained entries.
func (j *Journal) Len() int {
	return j.entries.len()
}

// Capacity returns the maximum number of retained entries.
func (j *Journal) Capacity() int {
	return j.entries.capacity()
}

// Dropped returns the number of entries that were overwritten by newer ones.
func (j *Journal) Dropped() uint64 {
	return j.entries.overwritten()
}
