package enrich

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunLogEvictsOldest(t *testing.T) {
	l := NewRunLog(3)
	for _, m := range []string{"one", "two", "three", "four"} {
		l.Append("%s", m)
	}

	entries := l.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "two", entries[0].Message)
	assert.Equal(t, "four", entries[2].Message)
}

func TestRunLogDefaultCapacity(t *testing.T) {
	l := NewRunLog(0)
	for i := 0; i < 10; i++ {
		l.Append("entry %d", i)
	}
	assert.Len(t, l.Entries(), 5)
}

func TestRunLogReset(t *testing.T) {
	l := NewRunLog(3)
	l.Append("hello")
	l.Reset()
	assert.Empty(t, l.Entries())
}

func TestRunLogEntriesIsCopy(t *testing.T) {
	l := NewRunLog(3)
	l.Append("hello")

	entries := l.Entries()
	entries[0].Message = "mutated"
	assert.Equal(t, "hello", l.Entries()[0].Message)
}
