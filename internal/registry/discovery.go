package registry

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"lansocial/internal/wire"
)

// Sender is the slice of the transport the discovery side needs.
type Sender interface {
	SendBroadcast(data []byte) error
	SendUnicast(data []byte, ip string, port int) error
}

// Announcer periodically advertises the local peer and answers discovery
// traffic on behalf of its registry.
type Announcer struct {
	reg      *Registry
	tr       Sender
	port     int
	interval time.Duration
	sweep    time.Duration
}

// NewAnnouncer wires the discovery heartbeat for the local peer listening on
// the given unicast port.
func NewAnnouncer(reg *Registry, tr Sender, port int, interval, sweepEvery time.Duration) *Announcer {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if sweepEvery <= 0 {
		sweepEvery = interval
	}
	return &Announcer{reg: reg, tr: tr, port: port, interval: interval, sweep: sweepEvery}
}

// Announce broadcasts one presence announcement.
func (a *Announcer) Announce() error {
	msg := wire.New(wire.TypePeerDiscovery).
		Set(wire.KeyUserID, a.reg.Self()).
		Set(wire.KeyPort, strconv.Itoa(a.port))
	data, err := wire.Encode(msg)
	if err != nil {
		return err
	}
	return a.tr.SendBroadcast(data)
}

// RequestPeerList broadcasts a request for other peers' tables, speeding up
// convergence beyond the announce interval.
func (a *Announcer) RequestPeerList() error {
	msg := wire.New(wire.TypePeerListRequest).
		Set(wire.KeyFrom, a.reg.Self()).
		Set(wire.KeyPort, strconv.Itoa(a.port))
	data, err := wire.Encode(msg)
	if err != nil {
		return err
	}
	return a.tr.SendBroadcast(data)
}

// AnnounceLoop drives the discovery heartbeat until the context ends.
func (a *Announcer) AnnounceLoop(ctx context.Context) {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := a.Announce(); err != nil {
				log.Printf("announce: %v", err)
			}
		}
	}
}

// SweepLoop evicts silent peers on a fixed cadence.
func (a *Announcer) SweepLoop(ctx context.Context) {
	ticker := time.NewTicker(a.sweep)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, peer := range a.reg.Sweep() {
				log.Printf("peer timed out: %s", peer.UserID)
			}
		}
	}
}

// HandleDiscovery upserts the announcing peer. A previously unknown peer gets
// a unicast announcement back so both sides converge in one exchange; known
// peers only refresh last_seen, which keeps two peers from replying to each
// other forever.
func (a *Announcer) HandleDiscovery(msg wire.Message, srcIP string, srcPort int) {
	sender := msg.Sender()
	if sender == "" || sender == a.reg.Self() {
		return
	}
	port := msg.Int(wire.KeyPort, srcPort)
	if a.reg.Upsert(sender, srcIP, port) {
		if err := a.replyTo(srcIP, port); err != nil {
			log.Printf("discovery reply to %s: %v", sender, err)
		}
	}
}

func (a *Announcer) replyTo(ip string, port int) error {
	msg := wire.New(wire.TypePeerDiscovery).
		Set(wire.KeyUserID, a.reg.Self()).
		Set(wire.KeyPort, strconv.Itoa(a.port))
	data, err := wire.Encode(msg)
	if err != nil {
		return err
	}
	return a.tr.SendUnicast(data, ip, port)
}

// HandleListRequest answers with every known peer as user@ip:port entries.
func (a *Announcer) HandleListRequest(msg wire.Message, srcIP string, srcPort int) {
	requester := msg.Sender()
	if requester == "" || requester == a.reg.Self() {
		return
	}
	port := msg.Int(wire.KeyPort, srcPort)

	peers := a.reg.Snapshot()
	entries := make([]string, 0, len(peers))
	for _, peer := range peers {
		entries = append(entries, fmt.Sprintf("%s:%d", peer.UserID, peer.Port))
	}
	resp := wire.New(wire.TypePeerListResponse).
		Set(wire.KeyFrom, a.reg.Self()).
		Set(wire.KeyPeers, strings.Join(entries, ",")).
		Set(wire.KeyCount, strconv.Itoa(len(entries)))
	data, err := wire.Encode(resp)
	if err != nil {
		log.Printf("peer list response: %v", err)
		return
	}
	if err := a.tr.SendUnicast(data, srcIP, port); err != nil {
		log.Printf("peer list response to %s: %v", requester, err)
	}
}

// HandleListResponse merges entries learned from another peer's table.
func (a *Announcer) HandleListResponse(msg wire.Message) {
	raw := msg[wire.KeyPeers]
	if raw == "" {
		return
	}
	for _, entry := range strings.Split(raw, ",") {
		userID, port, ok := splitPeerEntry(entry)
		if !ok {
			continue
		}
		_, ip, found := strings.Cut(userID, "@")
		if !found {
			continue
		}
		a.reg.Upsert(userID, ip, port)
	}
}

func splitPeerEntry(entry string) (userID string, port int, ok bool) {
	idx := strings.LastIndex(entry, ":")
	if idx <= 0 {
		return "", 0, false
	}
	port, err := strconv.Atoi(entry[idx+1:])
	if err != nil {
		return "", 0, false
	}
	return entry[:idx], port, true
}
