package router

import (
	"fmt"
	"sync"
)

type metrics struct {
	mu      sync.Mutex
	sent    int
	seen    int
	dropped int
}

func newMetrics() *metrics { return &metrics{} }

func (m *metrics) IncSent()    { m.mu.Lock(); m.sent++; m.mu.Unlock() }
func (m *metrics) IncSeen()    { m.mu.Lock(); m.seen++; m.mu.Unlock() }
func (m *metrics) IncDropped() { m.mu.Lock(); m.dropped++; m.mu.Unlock() }

func (m *metrics) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return MetricsSnapshot{Sent: m.sent, Seen: m.seen, Dropped: m.dropped}
}

// MetricsSnapshot is a point-in-time view of router traffic counters.
type MetricsSnapshot struct {
	Sent    int `json:"sent"`
	Seen    int `json:"seen"`
	Dropped int `json:"dropped"`
}

func (s MetricsSnapshot) String() string {
	return fmt.Sprintf("sent=%d seen=%d dropped=%d", s.Sent, s.Seen, s.Dropped)
}
