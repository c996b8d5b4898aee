package token

import (
	"errors"
	"testing"
	"time"

	"lansocial/internal/wire"
)

func TestMintAndParse(t *testing.T) {
	tok := Mint("alice@10.0.0.1", ScopeChat)
	userID, expiry, scope, err := Parse(tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if userID != "alice@10.0.0.1" || scope != ScopeChat {
		t.Fatalf("fields lost: %s %s", userID, scope)
	}
	if time.Until(expiry) < 50*time.Minute {
		t.Fatalf("chat tokens should live about an hour, expiry %v", expiry)
	}
}

func TestParseRejectsBadShapes(t *testing.T) {
	for _, tok := range []string{"", "nopipes", "a|b", "alice@1|notanumber|chat", "a|1|b|c"} {
		if _, _, _, err := Parse(tok); !errors.Is(err, ErrInvalid) {
			t.Fatalf("expected ErrInvalid for %q, got %v", tok, err)
		}
	}
}

func TestScopeVerifier(t *testing.T) {
	v := ScopeVerifier{}
	msg := wire.New(wire.TypeDM).
		Set(wire.KeyFrom, "alice@10.0.0.1").
		Set(wire.KeyToken, Mint("alice@10.0.0.1", ScopeChat))
	if err := v.Verify(msg, ScopeChat); err != nil {
		t.Fatalf("valid token rejected: %v", err)
	}
	if err := v.Verify(msg, ScopeGame); !errors.Is(err, ErrScope) {
		t.Fatalf("expected scope mismatch, got %v", err)
	}

	expired := msg.Clone().Set(wire.KeyToken, MintTTL("alice@10.0.0.1", ScopeChat, -time.Minute))
	if err := v.Verify(expired, ScopeChat); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected expiry failure, got %v", err)
	}

	stolen := msg.Clone().Set(wire.KeyFrom, "mallory@10.0.0.9")
	if err := v.Verify(stolen, ScopeChat); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected sender mismatch, got %v", err)
	}

	bare := wire.New(wire.TypeDM).Set(wire.KeyFrom, "alice@10.0.0.1")
	if err := v.Verify(bare, ScopeChat); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected missing-token failure, got %v", err)
	}
}

func TestNoopVerifierAcceptsAnything(t *testing.T) {
	if err := (NoopVerifier{}).Verify(wire.Message{}, ScopeGame); err != nil {
		t.Fatalf("noop verifier must accept everything: %v", err)
	}
}

func TestScopeForCoversEveryWireType(t *testing.T) {
	types := []string{
		wire.TypePost, wire.TypeDM, wire.TypeProfile, wire.TypeFollow,
		wire.TypeUnfollow, wire.TypeGroupCreate, wire.TypeGroupUpdate,
		wire.TypeGroupMessage, wire.TypeLike, wire.TypeUnlike,
		wire.TypeGameInvite, wire.TypeGameMove, wire.TypeGameResult,
	}
	for _, typ := range types {
		if ScopeFor(typ) == "" {
			t.Fatalf("no scope mapped for %s", typ)
		}
	}
	if ScopeFor(wire.TypePeerDiscovery) != "" {
		t.Fatalf("discovery traffic carries no token scope")
	}
}
