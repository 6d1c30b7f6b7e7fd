package journal_test

import (
	"log/slog"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/networkteam/sitecheck/journal"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestJournal_AddAndEntries(t *testing.T) {
	j := journal.New(2)

	j.Add(journal.Entry{Message: "navigate"})
	j.Add(journal.Entry{Message: "probe"})
	j.Add(journal.Entry{Message: "click"})

	entries := j.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "probe", entries[0].Message)
	assert.Equal(t, "click", entries[1].Message)
	assert.NotEqual(t, uuid.Nil, entries[0].ID)
	assert.NotEqual(t, entries[0].ID, entries[1].ID)

	assert.Equal(t, 2, j.Len())
	assert.Equal(t, 2, j.Capacity())
	assert.Equal(t, uint64(1), j.Dropped())
	assert.Equal(t, []string{"click"}, messages(j.Tail(1)))
}

func TestJournal_defaultCapacity(t *testing.T) {
	assert.Equal(t, journal.DefaultCapacity, journal.New(0).Capacity())
}

func TestEntry_AttrString(t *testing.T) {
	e := journal.Entry{
		Time:    time.Now(),
		Message: "Probe finished",
		Attrs: []slog.Attr{
			slog.String("element", "logo"),
			slog.Group("wait", slog.String("outcome", "timed_out"), slog.Duration("timeout", 15*time.Second)),
			{},
		},
	}

	assert.Equal(t, "element=logo wait.outcome=timed_out wait.timeout=15s", e.AttrString())

	v, ok := e.Attr("element")
	require.True(t, ok)
	assert.Equal(t, "logo", v.String())

	_, ok = e.Attr("outcome")
	assert.False(t, ok, "only top level attributes are looked up")
}

func messages(entries []journal.Entry) []string {
	result := make([]string, len(entries))
	for i, e := range entries {
		result[i] = e.Message
	}
	return result
}
