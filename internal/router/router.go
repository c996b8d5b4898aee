package router

import (
	"log"
	"strings"
	"sync"
	"time"

	"lansocial/internal/game"
	"lansocial/internal/registry"
	"lansocial/internal/social"
	"lansocial/internal/token"
	"lansocial/internal/wire"
)

// Sender is the slice of the transport the router needs.
type Sender interface {
	SendBroadcast(data []byte) error
	SendUnicast(data []byte, ip string, port int) error
}

// discoveryHandler is the slice of the announcer the router dispatches
// presence traffic to.
type discoveryHandler interface {
	HandleDiscovery(msg wire.Message, srcIP string, srcPort int)
	HandleListRequest(msg wire.Message, srcIP string, srcPort int)
	HandleListResponse(msg wire.Message)
	RequestPeerList() error
}

// Post is one feed entry, local or remote.
type Post struct {
	ID        string
	From      string
	Content   string
	Timestamp time.Time
}

// Router applies inbound messages to the local state tables and turns local
// intents into outbound datagrams. All application semantics live here; the
// transport below and the UI above stay dumb.
type Router struct {
	self     string
	reg      *registry.Registry
	tr       Sender
	disc     discoveryHandler
	verifier token.Verifier

	follows *social.FollowGraph
	likes   *social.LikeIndex
	threads *social.DMThreads
	groups  *social.Groups
	games   *game.Manager

	cache   *seenCache
	metrics *metrics

	mu      sync.RWMutex
	feed    []Post
	profile registry.Profile
	avatar  avatarState

	events chan Event
}

type avatarState struct {
	mimeType string
	encoded  string
}

// Options configures a Router. Zero-value fields get working defaults.
type Options struct {
	Self      string
	Registry  *registry.Registry
	Transport Sender
	Discovery discoveryHandler
	Verifier  token.Verifier
	CacheTTL  time.Duration
}

func New(opts Options) *Router {
	if opts.Verifier == nil {
		opts.Verifier = token.NoopVerifier{}
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 10 * time.Minute
	}
	return &Router{
		self:     opts.Self,
		reg:      opts.Registry,
		tr:       opts.Transport,
		disc:     opts.Discovery,
		verifier: opts.Verifier,
		follows:  social.NewFollowGraph(),
		likes:    social.NewLikeIndex(),
		threads:  social.NewDMThreads(),
		groups:   social.NewGroups(),
		games:    game.NewManager(),
		cache:    newSeenCache(opts.CacheTTL),
		metrics:  newMetrics(),
		events:   make(chan Event, 64),
	}
}

// Events is the stream of applied inbound activity for the UI layer.
func (r *Router) Events() <-chan Event { return r.events }

// Stats returns the traffic counters.
func (r *Router) Stats() MetricsSnapshot { return r.metrics.Snapshot() }

// Follows exposes the follow graph for read-side UI queries.
func (r *Router) Follows() *social.FollowGraph { return r.follows }

// Likes exposes the like index for read-side UI queries.
func (r *Router) Likes() *social.LikeIndex { return r.likes }

// Threads exposes DM history for read-side UI queries.
func (r *Router) Threads() *social.DMThreads { return r.threads }

// Groups exposes the group table for read-side UI queries.
func (r *Router) Groups() *social.Groups { return r.groups }

// Games exposes active game sessions for read-side UI queries.
func (r *Router) Games() *game.Manager { return r.games }

// Feed returns the post feed, oldest first.
func (r *Router) Feed() []Post {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Post, len(r.feed))
	copy(out, r.feed)
	return out
}

// Dispatch applies one decoded inbound message. Unknown types, duplicates,
// loopback copies of our own traffic and token failures are dropped with a
// log line; a malformed datagram never takes the peer down.
func (r *Router) Dispatch(msg wire.Message, srcIP string, srcPort int) {
	sender := msg.Sender()
	if sender == r.self {
		return
	}
	if r.cache.Seen(msg.MessageID()) {
		r.metrics.IncDropped()
		return
	}
	r.metrics.IncSeen()

	if scope := token.ScopeFor(msg.Type()); scope != "" {
		if err := r.verifier.Verify(msg, scope); err != nil {
			r.metrics.IncDropped()
			log.Printf("router: dropping %s from %s: %v", msg.Type(), sender, err)
			return
		}
	}

	// The sender's registry entry is refreshed before any handler reads it,
	// so a first-contact PROFILE or DM lands on a live entry. Discovery
	// announcements carry their own port and go through the announcer.
	if sender != "" && msg.Type() != wire.TypePeerDiscovery {
		r.reg.Upsert(sender, srcIP, srcPort)
	}

	switch msg.Type() {
	case wire.TypePeerDiscovery:
		r.disc.HandleDiscovery(msg, srcIP, srcPort)
	case wire.TypePeerListRequest:
		r.disc.HandleListRequest(msg, srcIP, srcPort)
	case wire.TypePeerListResponse:
		r.disc.HandleListResponse(msg)
	case wire.TypePost:
		r.handlePost(msg)
	case wire.TypeDM:
		r.handleDM(msg)
	case wire.TypeProfile:
		r.handleProfile(msg)
	case wire.TypeFollow:
		r.handleFollow(msg, true)
	case wire.TypeUnfollow:
		r.handleFollow(msg, false)
	case wire.TypeGroupCreate:
		r.handleGroupCreate(msg)
	case wire.TypeGroupUpdate:
		r.handleGroupUpdate(msg)
	case wire.TypeGroupMessage:
		r.handleGroupMessage(msg)
	case wire.TypeLike:
		r.handleLike(msg, true)
	case wire.TypeUnlike:
		r.handleLike(msg, false)
	case wire.TypeGameInvite:
		r.handleGameInvite(msg)
	case wire.TypeGameMove:
		r.handleGameMove(msg)
	case wire.TypeGameResult:
		r.handleGameResult(msg)
	default:
		r.metrics.IncDropped()
		log.Printf("router: unknown message type %q from %s", msg.Type(), sender)
	}
}

func (r *Router) handlePost(msg wire.Message) {
	post := Post{
		ID:        msg.MessageID(),
		From:      msg.Sender(),
		Content:   msg.Content(),
		Timestamp: msg.Timestamp(),
	}
	r.mu.Lock()
	r.feed = append(r.feed, post)
	r.mu.Unlock()
	r.emit(Event{Kind: EventPost, From: post.From, Content: post.Content, PostID: post.ID, Timestamp: post.Timestamp})
}

func (r *Router) handleDM(msg wire.Message) {
	from := msg.Sender()
	r.threads.Append(from, r.self, msg.Content(), msg.Timestamp())
	r.emit(Event{Kind: EventDM, From: from, To: r.self, Content: msg.Content(), Timestamp: msg.Timestamp()})
}

func (r *Router) handleProfile(msg wire.Message) {
	from := msg.Sender()
	profile := registry.Profile{
		DisplayName: msg[wire.KeyDisplayName],
		Status:      msg[wire.KeyStatus],
		HasAvatar:   msg[wire.KeyAvatarData] != "",
		AvatarType:  msg[wire.KeyAvatarType],
	}
	r.reg.SetProfile(from, profile)
	r.emit(Event{Kind: EventProfile, From: from, Content: profile.Status, Timestamp: msg.Timestamp()})
}

func (r *Router) handleFollow(msg wire.Message, follow bool) {
	from := msg.Sender()
	kind := EventFollow
	var changed bool
	if follow {
		changed = r.follows.Follow(from, r.self)
	} else {
		changed = r.follows.Unfollow(from, r.self)
		kind = EventUnfollow
	}
	if changed {
		r.emit(Event{Kind: kind, From: from, To: r.self, Timestamp: msg.Timestamp()})
	}
}

func (r *Router) handleGroupCreate(msg wire.Message) {
	id := msg[wire.KeyGroupID]
	members := splitList(msg[wire.KeyMembers])
	err := r.groups.Create(id, msg[wire.KeyGroupName], msg.Sender(), members)
	if err != nil {
		log.Printf("router: group create %s: %v", id, err)
		return
	}
	r.emit(Event{Kind: EventGroupCreate, From: msg.Sender(), GroupID: id, Content: msg[wire.KeyGroupName], Timestamp: msg.Timestamp()})
}

func (r *Router) handleGroupUpdate(msg wire.Message) {
	id := msg[wire.KeyGroupID]
	err := r.groups.UpdateMembers(id, msg.Sender(), splitList(msg[wire.KeyAdd]), splitList(msg[wire.KeyRemove]))
	if err != nil {
		log.Printf("router: group update %s: %v", id, err)
		return
	}
	r.emit(Event{Kind: EventGroupUpdate, From: msg.Sender(), GroupID: id, Timestamp: msg.Timestamp()})
}

func (r *Router) handleGroupMessage(msg wire.Message) {
	id := msg[wire.KeyGroupID]
	if _, err := r.groups.Append(id, msg.Sender(), msg.Content(), msg.Timestamp()); err != nil {
		log.Printf("router: group message %s: %v", id, err)
		return
	}
	r.emit(Event{Kind: EventGroupMessage, From: msg.Sender(), GroupID: id, Content: msg.Content(), Timestamp: msg.Timestamp()})
}

func (r *Router) handleLike(msg wire.Message, like bool) {
	postID := msg[wire.KeyPostID]
	from := msg.Sender()
	kind := EventLike
	var changed bool
	if like {
		changed = r.likes.Like(postID, from)
	} else {
		changed = r.likes.Unlike(postID, from)
		kind = EventUnlike
	}
	if changed {
		r.emit(Event{Kind: kind, From: from, PostID: postID, Timestamp: msg.Timestamp()})
	}
}

func (r *Router) handleGameInvite(msg wire.Message) {
	id := msg[wire.KeyGameID]
	inviter := msg.Sender()
	symbol := msg[wire.KeySymbol]
	if symbol == "" {
		symbol = game.SymbolX
	}
	if _, err := r.games.Accept(id, inviter, r.self, symbol); err != nil {
		log.Printf("router: game invite %s: %v", id, err)
		return
	}
	r.emit(Event{Kind: EventGameInvite, From: inviter, GameID: id, Content: symbol, Timestamp: msg.Timestamp()})

	// An X inviter may open with a move embedded in the invite itself.
	if position := msg.Int(wire.KeyPosition, 0); position != 0 {
		session, err := r.games.Move(id, inviter, position)
		if err != nil {
			log.Printf("router: game invite %s opening move: %v", id, err)
			return
		}
		r.emit(Event{Kind: EventGameMove, From: inviter, GameID: id, Board: session.Board(), Timestamp: msg.Timestamp()})
	}
}

func (r *Router) handleGameMove(msg wire.Message) {
	id := msg[wire.KeyGameID]
	position := msg.Int(wire.KeyPosition, 0)
	session, err := r.games.Move(id, msg.Sender(), position)
	if err != nil {
		log.Printf("router: game move %s: %v", id, err)
		return
	}
	r.emit(Event{Kind: EventGameMove, From: msg.Sender(), GameID: id, Board: session.Board(), Timestamp: msg.Timestamp()})
	if session.State == game.StateCompleted {
		r.emit(Event{Kind: EventGameOver, From: msg.Sender(), GameID: id, Board: session.Board(), Result: session.Result, Content: session.Winner})
		r.games.Remove(id)
	}
}

func (r *Router) handleGameResult(msg wire.Message) {
	id := msg[wire.KeyGameID]
	if _, ok := r.games.Get(id); !ok {
		// The closing move completed and purged this session locally.
		return
	}
	r.emit(Event{
		Kind:      EventGameOver,
		From:      msg.Sender(),
		GameID:    id,
		Result:    msg[wire.KeyResult],
		Content:   msg[wire.KeySymbol],
		Timestamp: msg.Timestamp(),
	})
	r.games.Remove(id)
}

func (r *Router) emit(evt Event) {
	select {
	case r.events <- evt:
	default:
		log.Printf("router: event channel full, dropping event kind %d", evt.Kind)
	}
}

func splitList(csv string) []string {
	if csv == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
