package registry

import (
	"log"
	"sort"
	"strings"
	"sync"
	"time"
)

const eventQueueSize = 64

// Profile carries the presentation fields a peer advertises about itself.
// Avatar bytes are not retained, only their presence and media type.
type Profile struct {
	DisplayName string
	Status      string
	HasAvatar   bool
	AvatarType  string
}

// Peer is one live entry in the registry, keyed by user_id (username@ip).
type Peer struct {
	UserID   string
	IP       string
	Port     int
	LastSeen time.Time
	Profile  Profile
}

// DisplayName prefers the advertised profile name, falling back to user_id.
func (p Peer) DisplayName() string {
	if p.Profile.DisplayName != "" {
		return p.Profile.DisplayName
	}
	return p.UserID
}

// EventKind distinguishes registry change notifications.
type EventKind int

const (
	PeerJoined EventKind = iota
	PeerLeft
)

// Event notifies the router and UI of membership changes.
type Event struct {
	Kind EventKind
	Peer Peer
}

// Registry tracks every peer heard from recently. All access goes through the
// registry lock; callers receive value copies.
type Registry struct {
	self    string
	timeout time.Duration

	mu    sync.RWMutex
	peers map[string]*Peer

	events chan Event
}

// NewRegistry builds an empty registry for the local user_id. Peers silent
// for longer than timeout are evicted by Sweep.
func NewRegistry(self string, timeout time.Duration) *Registry {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Registry{
		self:    self,
		timeout: timeout,
		peers:   make(map[string]*Peer),
		events:  make(chan Event, eventQueueSize),
	}
}

// Self returns the local user_id; the registry never stores an entry for it.
func (r *Registry) Self() string { return r.self }

// Events exposes joined/left notifications. Slow consumers lose events rather
// than blocking the receive path.
func (r *Registry) Events() <-chan Event { return r.events }

// Upsert records an announcement from userID at ip:port. Returns true when
// the peer was previously unknown.
func (r *Registry) Upsert(userID, ip string, port int) bool {
	if userID == "" || userID == r.self {
		return false
	}
	r.mu.Lock()
	entry, known := r.peers[userID]
	if !known {
		entry = &Peer{UserID: userID}
		r.peers[userID] = entry
	}
	entry.IP = ip
	entry.Port = port
	entry.LastSeen = time.Now()
	snapshot := *entry
	r.mu.Unlock()

	if !known {
		r.emit(Event{Kind: PeerJoined, Peer: snapshot})
	}
	return !known
}

// SetProfile merges advertised profile fields into an existing entry.
func (r *Registry) SetProfile(userID string, profile Profile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, ok := r.peers[userID]; ok {
		entry.Profile = profile
	}
}

// Lookup resolves a user_id to its live entry.
func (r *Registry) Lookup(userID string) (Peer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if entry, ok := r.peers[userID]; ok {
		return *entry, true
	}
	return Peer{}, false
}

// Resolve accepts either a full user_id or a bare username and returns the
// matching entry. A bare name only resolves when unambiguous.
func (r *Registry) Resolve(token string) (Peer, bool) {
	if peer, ok := r.Lookup(token); ok {
		return peer, true
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var found *Peer
	for _, entry := range r.peers {
		name, _, ok := strings.Cut(entry.UserID, "@")
		if !ok || !strings.EqualFold(name, token) {
			continue
		}
		if found != nil {
			return Peer{}, false
		}
		found = entry
	}
	if found == nil {
		return Peer{}, false
	}
	return *found, true
}

// Snapshot returns all live peers ordered by user_id.
func (r *Registry) Snapshot() []Peer {
	r.mu.RLock()
	list := make([]Peer, 0, len(r.peers))
	for _, entry := range r.peers {
		list = append(list, *entry)
	}
	r.mu.RUnlock()
	sort.Slice(list, func(i, j int) bool { return list[i].UserID < list[j].UserID })
	return list
}

// Sweep evicts peers whose last announcement is older than the timeout and
// reports what was removed.
func (r *Registry) Sweep() []Peer {
	cutoff := time.Now().Add(-r.timeout)
	var removed []Peer
	r.mu.Lock()
	for id, entry := range r.peers {
		if entry.LastSeen.Before(cutoff) {
			removed = append(removed, *entry)
			delete(r.peers, id)
		}
	}
	r.mu.Unlock()

	for _, peer := range removed {
		r.emit(Event{Kind: PeerLeft, Peer: peer})
	}
	return removed
}

func (r *Registry) emit(evt Event) {
	select {
	case r.events <- evt:
	default:
		log.Printf("registry event queue full, dropping %v for %s", evt.Kind, evt.Peer.UserID)
	}
}
