package social

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// ThreadEntry is one direct message in a conversation.
type ThreadEntry struct {
	From      string
	Content   string
	Timestamp time.Time
}

// DMThreads keeps one ordered conversation per unordered peer pair.
type DMThreads struct {
	mu      sync.RWMutex
	threads map[string][]ThreadEntry
}

func NewDMThreads() *DMThreads {
	return &DMThreads{threads: make(map[string][]ThreadEntry)}
}

// Append records a message from one peer to the other on their shared thread.
func (d *DMThreads) Append(from, to, content string, ts time.Time) {
	key := pairKey(from, to)
	d.mu.Lock()
	defer d.mu.Unlock()
	d.threads[key] = append(d.threads[key], ThreadEntry{From: from, Content: content, Timestamp: ts})
}

// Thread returns a copy of the conversation between two peers, oldest first.
func (d *DMThreads) Thread(a, b string) []ThreadEntry {
	d.mu.RLock()
	defer d.mu.RUnlock()
	entries := d.threads[pairKey(a, b)]
	out := make([]ThreadEntry, len(entries))
	copy(out, entries)
	return out
}

// Partners lists every peer the given user has a thread with, sorted.
func (d *DMThreads) Partners(userID string) []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var out []string
	prefix := userID + "|"
	suffix := "|" + userID
	for key := range d.threads {
		switch {
		case strings.HasPrefix(key, prefix):
			out = append(out, strings.TrimPrefix(key, prefix))
		case strings.HasSuffix(key, suffix):
			out = append(out, strings.TrimSuffix(key, suffix))
		}
	}
	sort.Strings(out)
	return out
}

func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}
