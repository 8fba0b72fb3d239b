package enrich

import (
	"fmt"
	"sync"
	"time"
)

// Entry is one timestamped line in the pipeline's rolling log.
type Entry struct {
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
}

// RunLog is a bounded log keeping only the most recent N entries. It is
// purely observational: nothing reads it to make control decisions.
type RunLog struct {
	mu      sync.Mutex
	max     int
	entries []Entry
}

// NewRunLog creates a RunLog holding at most max entries (<=0 uses 5).
func NewRunLog(max int) *RunLog {
	if max <= 0 {
		max = 5
	}
	return &RunLog{max: max}
}

// Append formats and records an entry, evicting the oldest when full.
func (l *RunLog) Append(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, Entry{
		Time:    time.Now(),
		Message: fmt.Sprintf(format, args...),
	})
	if len(l.entries) > l.max {
		l.entries = l.entries[len(l.entries)-l.max:]
	}
}

// Entries returns a copy of the retained entries, oldest first.
func (l *RunLog) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Reset discards all entries.
func (l *RunLog) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
}
