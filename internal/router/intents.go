package router

import (
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"lansocial/internal/game"
	"lansocial/internal/registry"
	"lansocial/internal/token"
	"lansocial/internal/wire"
)

var (
	// ErrRecipientUnknown reports a directed send to a user the registry has
	// never seen. No packet leaves the host in that case.
	ErrRecipientUnknown = errors.New("recipient unknown")
	// ErrUnknownPost reports a like against a post id not in the feed.
	ErrUnknownPost = errors.New("unknown post")
)

// Avatar is an optional inline profile picture.
type Avatar struct {
	MIMEType string
	Data     []byte
}

// PublishPost records a post locally and unicasts it to every known peer.
func (r *Router) PublishPost(content string) (Post, error) {
	msg := wire.New(wire.TypePost).
		Set(wire.KeyUserID, r.self).
		Set(wire.KeyContent, content).
		Set(wire.KeyTTL, "3600").
		Set(wire.KeyToken, token.Mint(r.self, token.ScopeBroadcast))
	post := Post{ID: msg.MessageID(), From: r.self, Content: content, Timestamp: time.Now()}
	r.mu.Lock()
	r.feed = append(r.feed, post)
	r.mu.Unlock()
	r.fanOut(msg, r.reg.Snapshot())
	return post, nil
}

// SendDirect delivers a direct message to one peer. The target may be a full
// user id or an unambiguous bare username.
func (r *Router) SendDirect(to, content string) error {
	peer, ok := r.reg.Resolve(to)
	if !ok {
		return fmt.Errorf("%w: %s", ErrRecipientUnknown, to)
	}
	msg := wire.New(wire.TypeDM).
		Set(wire.KeyFrom, r.self).
		Set(wire.KeyTo, peer.UserID).
		Set(wire.KeyContent, content).
		Set(wire.KeyToken, token.Mint(r.self, token.ScopeChat))
	if err := r.send(msg, peer); err != nil {
		return err
	}
	r.threads.Append(r.self, peer.UserID, content, time.Now())
	return nil
}

// UpdateProfile announces display name, status and an optional avatar to every
// known peer and remembers them as our own profile.
func (r *Router) UpdateProfile(displayName, status string, avatar *Avatar) error {
	msg := wire.New(wire.TypeProfile).
		Set(wire.KeyUserID, r.self).
		Set(wire.KeyDisplayName, displayName).
		Set(wire.KeyStatus, status).
		Set(wire.KeyToken, token.Mint(r.self, token.ScopeBroadcast))
	r.mu.Lock()
	r.profile = registry.Profile{DisplayName: displayName, Status: status}
	if avatar != nil && len(avatar.Data) > 0 {
		r.avatar = avatarState{mimeType: avatar.MIMEType, encoded: base64.StdEncoding.EncodeToString(avatar.Data)}
		r.profile.HasAvatar = true
		r.profile.AvatarType = avatar.MIMEType
	}
	if r.avatar.encoded != "" {
		msg.Set(wire.KeyAvatarType, r.avatar.mimeType).
			Set(wire.KeyAvatarEncoding, "base64").
			Set(wire.KeyAvatarData, r.avatar.encoded)
	}
	r.mu.Unlock()
	r.fanOut(msg, r.reg.Snapshot())
	return nil
}

// Profile returns our own announced profile.
func (r *Router) Profile() registry.Profile {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.profile
}

// Follow records a follow edge and notifies the target.
func (r *Router) Follow(target string) error {
	return r.sendFollow(target, wire.TypeFollow)
}

// Unfollow removes a follow edge and notifies the target.
func (r *Router) Unfollow(target string) error {
	return r.sendFollow(target, wire.TypeUnfollow)
}

func (r *Router) sendFollow(target, msgType string) error {
	peer, ok := r.reg.Resolve(target)
	if !ok {
		return fmt.Errorf("%w: %s", ErrRecipientUnknown, target)
	}
	if msgType == wire.TypeFollow {
		r.follows.Follow(r.self, peer.UserID)
	} else {
		r.follows.Unfollow(r.self, peer.UserID)
	}
	msg := wire.New(msgType).
		Set(wire.KeyFrom, r.self).
		Set(wire.KeyTo, peer.UserID).
		Set(wire.KeyToken, token.Mint(r.self, token.ScopeFollow))
	return r.send(msg, peer)
}

// CreateGroup registers a group with us as creator and notifies every listed
// member that the registry can reach.
func (r *Router) CreateGroup(id, name string, members []string) error {
	resolved := r.resolveMembers(members)
	ids := make([]string, 0, len(resolved))
	for _, p := range resolved {
		ids = append(ids, p.UserID)
	}
	if err := r.groups.Create(id, name, r.self, ids); err != nil {
		return err
	}
	msg := wire.New(wire.TypeGroupCreate).
		Set(wire.KeyFrom, r.self).
		Set(wire.KeyGroupID, id).
		Set(wire.KeyGroupName, name).
		Set(wire.KeyMembers, strings.Join(ids, ",")).
		Set(wire.KeyToken, token.Mint(r.self, token.ScopeGroup))
	r.fanOut(msg, resolved)
	return nil
}

// UpdateGroupMembers applies add/remove lists to a group we created and
// notifies the whole resulting membership.
func (r *Router) UpdateGroupMembers(id string, add, remove []string) error {
	addPeers := r.resolveMembers(add)
	addIDs := make([]string, 0, len(addPeers))
	for _, p := range addPeers {
		addIDs = append(addIDs, p.UserID)
	}
	removeIDs := make([]string, 0, len(remove))
	for _, m := range remove {
		if peer, ok := r.reg.Resolve(m); ok {
			removeIDs = append(removeIDs, peer.UserID)
		} else {
			removeIDs = append(removeIDs, m)
		}
	}
	if err := r.groups.UpdateMembers(id, r.self, addIDs, removeIDs); err != nil {
		return err
	}
	msg := wire.New(wire.TypeGroupUpdate).
		Set(wire.KeyFrom, r.self).
		Set(wire.KeyGroupID, id).
		Set(wire.KeyAdd, strings.Join(addIDs, ",")).
		Set(wire.KeyRemove, strings.Join(removeIDs, ",")).
		Set(wire.KeyToken, token.Mint(r.self, token.ScopeGroup))
	grp, _ := r.groups.Get(id)
	r.fanOut(msg, r.resolveMembers(append(grp.Members, removeIDs...)))
	return nil
}

// SendGroupMessage appends to the group log and unicasts to the other members.
func (r *Router) SendGroupMessage(id, content string) error {
	recipients, err := r.groups.Append(id, r.self, content, time.Now())
	if err != nil {
		return err
	}
	msg := wire.New(wire.TypeGroupMessage).
		Set(wire.KeyFrom, r.self).
		Set(wire.KeyGroupID, id).
		Set(wire.KeyContent, content).
		Set(wire.KeyToken, token.Mint(r.self, token.ScopeGroup))
	r.fanOut(msg, r.resolveMembers(recipients))
	return nil
}

// Like records a like on a feed post and notifies its author.
func (r *Router) Like(postID string) error {
	return r.sendLike(postID, wire.TypeLike)
}

// Unlike withdraws a like and notifies the author.
func (r *Router) Unlike(postID string) error {
	return r.sendLike(postID, wire.TypeUnlike)
}

func (r *Router) sendLike(postID, msgType string) error {
	author, ok := r.postAuthor(postID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPost, postID)
	}
	if msgType == wire.TypeLike {
		r.likes.Like(postID, r.self)
	} else {
		r.likes.Unlike(postID, r.self)
	}
	if author == r.self {
		return nil
	}
	peer, ok := r.reg.Resolve(author)
	if !ok {
		return fmt.Errorf("%w: %s", ErrRecipientUnknown, author)
	}
	msg := wire.New(msgType).
		Set(wire.KeyFrom, r.self).
		Set(wire.KeyTo, peer.UserID).
		Set(wire.KeyPostID, postID).
		Set(wire.KeyToken, token.Mint(r.self, token.ScopeBroadcast))
	return r.send(msg, peer)
}

// StartGame opens a tic tac toe session against a peer and sends the invite.
// symbol is the symbol we want to play; empty means X.
func (r *Router) StartGame(opponent, symbol string) (game.Session, error) {
	peer, ok := r.reg.Resolve(opponent)
	if !ok {
		return game.Session{}, fmt.Errorf("%w: %s", ErrRecipientUnknown, opponent)
	}
	if symbol == "" {
		symbol = game.SymbolX
	}
	session, err := r.games.Invite(r.self, peer.UserID, symbol)
	if err != nil {
		return game.Session{}, err
	}
	msg := wire.New(wire.TypeGameInvite).
		Set(wire.KeyFrom, r.self).
		Set(wire.KeyTo, peer.UserID).
		Set(wire.KeyGameID, session.ID).
		Set(wire.KeySymbol, symbol).
		Set(wire.KeyToken, token.Mint(r.self, token.ScopeGame))
	if err := r.send(msg, peer); err != nil {
		return game.Session{}, err
	}
	return session, nil
}

// PlayMove applies our move, sends it to the opponent, and on completion also
// sends the result and drops the finished session.
func (r *Router) PlayMove(gameID string, position int) (game.Session, error) {
	session, err := r.games.Move(gameID, r.self, position)
	if err != nil {
		return game.Session{}, err
	}
	opponent := session.Opponent(r.self)
	peer, ok := r.reg.Resolve(opponent)
	if !ok {
		return game.Session{}, fmt.Errorf("%w: %s", ErrRecipientUnknown, opponent)
	}
	symbol, _ := session.SymbolOf(r.self)
	msg := wire.New(wire.TypeGameMove).
		Set(wire.KeyFrom, r.self).
		Set(wire.KeyTo, peer.UserID).
		Set(wire.KeyGameID, gameID).
		Set(wire.KeyPosition, strconv.Itoa(position)).
		Set(wire.KeySymbol, symbol).
		Set(wire.KeyTurn, session.Turn).
		Set(wire.KeyToken, token.Mint(r.self, token.ScopeGame))
	if err := r.send(msg, peer); err != nil {
		return session, err
	}
	if session.State == game.StateCompleted {
		r.sendResult(session, peer)
		r.games.Remove(gameID)
	}
	return session, nil
}

func (r *Router) sendResult(session game.Session, peer registry.Peer) {
	msg := wire.New(wire.TypeGameResult).
		Set(wire.KeyFrom, r.self).
		Set(wire.KeyTo, peer.UserID).
		Set(wire.KeyGameID, session.ID).
		Set(wire.KeyResult, session.Result).
		Set(wire.KeyToken, token.Mint(r.self, token.ScopeGame))
	if session.Result == game.ResultWin {
		winnerSymbol, _ := session.SymbolOf(session.Winner)
		msg.Set(wire.KeySymbol, winnerSymbol)
		msg.Set(wire.KeyWinningLine, fmt.Sprintf("%d,%d,%d",
			session.WinningLine[0], session.WinningLine[1], session.WinningLine[2]))
	}
	if err := r.send(msg, peer); err != nil {
		log.Printf("router: game result %s: %v", session.ID, err)
	}
}

// RequestPeerList asks the network for peers beyond broadcast reach.
func (r *Router) RequestPeerList() error {
	return r.disc.RequestPeerList()
}

// send encodes and unicasts one message to a peer, marking its id as seen so
// any echo is ignored.
func (r *Router) send(msg wire.Message, peer registry.Peer) error {
	data, err := wire.Encode(msg)
	if err != nil {
		return err
	}
	r.cache.Seen(msg.MessageID())
	if err := r.tr.SendUnicast(data, peer.IP, peer.Port); err != nil {
		return err
	}
	r.metrics.IncSent()
	return nil
}

// fanOut unicasts one message to each peer, logging per-peer failures rather
// than aborting the rest.
func (r *Router) fanOut(msg wire.Message, peers []registry.Peer) {
	data, err := wire.Encode(msg)
	if err != nil {
		log.Printf("router: encode %s: %v", msg.Type(), err)
		return
	}
	r.cache.Seen(msg.MessageID())
	for _, peer := range peers {
		if peer.UserID == r.self {
			continue
		}
		if err := r.tr.SendUnicast(data, peer.IP, peer.Port); err != nil {
			log.Printf("router: send %s to %s: %v", msg.Type(), peer.UserID, err)
			continue
		}
		r.metrics.IncSent()
	}
}

func (r *Router) resolveMembers(names []string) []registry.Peer {
	var peers []registry.Peer
	seen := make(map[string]struct{})
	for _, name := range names {
		peer, ok := r.reg.Resolve(name)
		if !ok {
			if name != r.self {
				log.Printf("router: member %s not reachable, skipping", name)
			}
			continue
		}
		if _, dup := seen[peer.UserID]; dup {
			continue
		}
		seen[peer.UserID] = struct{}{}
		peers = append(peers, peer)
	}
	return peers
}

func (r *Router) postAuthor(postID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := len(r.feed) - 1; i >= 0; i-- {
		if r.feed[i].ID == postID {
			return r.feed[i].From, true
		}
	}
	return "", false
}
