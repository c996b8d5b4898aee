package token

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"lansocial/internal/wire"
)

// Scopes a wire token can be minted for.
const (
	ScopeChat      = "chat"
	ScopeBroadcast = "broadcast"
	ScopeFollow    = "follow"
	ScopeGroup     = "group"
	ScopeGame      = "game"
)

// defaultTTL holds per-scope lifetimes for freshly minted tokens.
var defaultTTL = map[string]time.Duration{
	ScopeChat:      time.Hour,
	ScopeBroadcast: time.Hour,
	ScopeFollow:    24 * time.Hour,
	ScopeGroup:     24 * time.Hour,
	ScopeGame:      2 * time.Hour,
}

var (
	ErrInvalid = errors.New("invalid token")
	ErrExpired = errors.New("token expired")
	ErrScope   = errors.New("token scope mismatch")
)

// Mint creates a `user_id|expiry|scope` token with the scope's default TTL.
func Mint(userID, scope string) string {
	ttl, ok := defaultTTL[scope]
	if !ok {
		ttl = time.Hour
	}
	return MintTTL(userID, scope, ttl)
}

// MintTTL creates a token with an explicit lifetime.
func MintTTL(userID, scope string, ttl time.Duration) string {
	expiry := time.Now().Add(ttl).Unix()
	return fmt.Sprintf("%s|%d|%s", userID, expiry, scope)
}

// Parse splits a token into its parts without judging expiry.
func Parse(tok string) (userID string, expiry time.Time, scope string, err error) {
	parts := strings.Split(tok, "|")
	if len(parts) != 3 {
		return "", time.Time{}, "", fmt.Errorf("%w: expected 3 fields, got %d", ErrInvalid, len(parts))
	}
	secs, perr := strconv.ParseInt(parts[1], 10, 64)
	if perr != nil {
		return "", time.Time{}, "", fmt.Errorf("%w: bad expiry %q", ErrInvalid, parts[1])
	}
	return parts[0], time.Unix(secs, 0), parts[2], nil
}

// Verifier decides whether an inbound message is authorized for a scope.
// Verification is a pluggable step, not a hard gate: the default verifier
// accepts everything.
type Verifier interface {
	Verify(msg wire.Message, scope string) error
}

// NoopVerifier accepts every message, token or not.
type NoopVerifier struct{}

func (NoopVerifier) Verify(wire.Message, string) error { return nil }

// ScopeVerifier enforces token presence, sender match, expiry and scope.
type ScopeVerifier struct{}

func (ScopeVerifier) Verify(msg wire.Message, scope string) error {
	tok := msg.Token()
	if tok == "" {
		return fmt.Errorf("%w: missing token", ErrInvalid)
	}
	userID, expiry, tokScope, err := Parse(tok)
	if err != nil {
		return err
	}
	if sender := msg.Sender(); sender != "" && sender != userID {
		return fmt.Errorf("%w: token for %s on a message from %s", ErrInvalid, userID, sender)
	}
	if time.Now().After(expiry) {
		return fmt.Errorf("%w: at %s", ErrExpired, expiry.Format(time.RFC3339))
	}
	if scope != "" && tokScope != scope {
		return fmt.Errorf("%w: expected %s, got %s", ErrScope, scope, tokScope)
	}
	return nil
}

// ScopeFor maps a message type to the scope its token must carry.
func ScopeFor(msgType string) string {
	switch msgType {
	case wire.TypeDM:
		return ScopeChat
	case wire.TypeFollow, wire.TypeUnfollow:
		return ScopeFollow
	case wire.TypeGroupCreate, wire.TypeGroupUpdate, wire.TypeGroupMessage:
		return ScopeGroup
	case wire.TypeGameInvite, wire.TypeGameMove, wire.TypeGameResult:
		return ScopeGame
	case wire.TypePost, wire.TypeProfile, wire.TypeLike, wire.TypeUnlike:
		return ScopeBroadcast
	}
	return ""
}
