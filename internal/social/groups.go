package social

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	// ErrGroupNotFound reports an operation against an unknown group id.
	ErrGroupNotFound = errors.New("group not found")
	// ErrPermissionDenied reports a membership mutation by anyone other
	// than the group's creator, or a message from a non-member.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrGroupExists reports a create with an id already in use.
	ErrGroupExists = errors.New("group already exists")
)

// GroupMessage is one entry in a group's ordered log.
type GroupMessage struct {
	From      string
	Content   string
	Timestamp time.Time
}

// Group is a named member set with a message log. The creator is always a
// member and is the only one allowed to mutate membership.
type Group struct {
	ID      string
	Name    string
	Creator string
	Members []string
	Log     []GroupMessage
}

// Groups is the table of every group this peer knows about. Groups are never
// deleted automatically.
type Groups struct {
	mu     sync.RWMutex
	groups map[string]*groupState
}

type groupState struct {
	id      string
	name    string
	creator string
	members map[string]struct{}
	log     []GroupMessage
}

func NewGroups() *Groups {
	return &Groups{groups: make(map[string]*groupState)}
}

// Create registers a group. The creator joins implicitly; duplicate member
// entries collapse into the set.
func (g *Groups) Create(id, name, creator string, members []string) error {
	if id == "" || creator == "" {
		return fmt.Errorf("%w: group needs an id and a creator", ErrGroupNotFound)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.groups[id]; ok {
		return fmt.Errorf("%w: %s", ErrGroupExists, id)
	}
	state := &groupState{
		id:      id,
		name:    name,
		creator: creator,
		members: map[string]struct{}{creator: {}},
	}
	for _, member := range members {
		if member != "" {
			state.members[member] = struct{}{}
		}
	}
	g.groups[id] = state
	return nil
}

// UpdateMembers applies add/remove lists. Only the creator may mutate
// membership; the creator cannot be removed.
func (g *Groups) UpdateMembers(id, actor string, add, remove []string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	state, ok := g.groups[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrGroupNotFound, id)
	}
	if actor != state.creator {
		return fmt.Errorf("%w: only %s may change members of %s", ErrPermissionDenied, state.creator, id)
	}
	for _, member := range add {
		if member != "" {
			state.members[member] = struct{}{}
		}
	}
	for _, member := range remove {
		if member != state.creator {
			delete(state.members, member)
		}
	}
	return nil
}

// Append records a message on the group log and returns the members it should
// fan out to (everyone except the sender).
func (g *Groups) Append(id, from, content string, ts time.Time) ([]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	state, ok := g.groups[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGroupNotFound, id)
	}
	if _, member := state.members[from]; !member {
		return nil, fmt.Errorf("%w: %s is not a member of %s", ErrPermissionDenied, from, id)
	}
	state.log = append(state.log, GroupMessage{From: from, Content: content, Timestamp: ts})
	var recipients []string
	for member := range state.members {
		if member != from {
			recipients = append(recipients, member)
		}
	}
	return recipients, nil
}

// Get returns a snapshot of one group.
func (g *Groups) Get(id string) (Group, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	state, ok := g.groups[id]
	if !ok {
		return Group{}, false
	}
	return state.snapshot(), true
}

// List returns snapshots of every known group.
func (g *Groups) List() []Group {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Group, 0, len(g.groups))
	for _, state := range g.groups {
		out = append(out, state.snapshot())
	}
	return out
}

// IsMember reports group membership.
func (g *Groups) IsMember(id, userID string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	state, ok := g.groups[id]
	if !ok {
		return false
	}
	_, member := state.members[userID]
	return member
}

func (s *groupState) snapshot() Group {
	grp := Group{
		ID:      s.id,
		Name:    s.name,
		Creator: s.creator,
		Members: sortedKeys(s.members),
		Log:     make([]GroupMessage, len(s.log)),
	}
	copy(grp.Log, s.log)
	return grp
}
