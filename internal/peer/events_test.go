package peer

import (
	"strings"
	"testing"
	"time"

	"lansocial/internal/router"
	"lansocial/internal/wire"
)

func profileMessage(from, name string) wire.Message {
	return wire.New(wire.TypeProfile).
		Set(wire.KeyUserID, from).
		Set(wire.KeyDisplayName, name)
}

func TestRenderEventRoutesToSink(t *testing.T) {
	app, _, sink := newTestApp(t)
	now := time.Now()

	app.renderEvent(router.Event{Kind: router.EventDM, From: "bob@10.0.0.2", Content: "hi", Timestamp: now})
	if len(sink.messages) != 1 || sink.messages[0].Scope != "dm" || sink.messages[0].Content != "hi" {
		t.Fatalf("dm not rendered: %+v", sink.messages)
	}

	app.renderEvent(router.Event{Kind: router.EventGroupMessage, From: "bob@10.0.0.2", GroupID: "g-team", Content: "standup?"})
	if sink.messages[1].Scope != "group:g-team" {
		t.Fatalf("group scope wrong: %+v", sink.messages[1])
	}

	app.renderEvent(router.Event{Kind: router.EventFollow, From: "bob@10.0.0.2"})
	if len(sink.notifications) != 1 || !strings.Contains(sink.notifications[0].Text, "follows you") {
		t.Fatalf("follow not notified: %+v", sink.notifications)
	}

	app.renderEvent(router.Event{Kind: router.EventGameMove, From: "bob@10.0.0.2", GameID: "g0", Board: "X        "})
	last := sink.system[len(sink.system)-1]
	if !strings.Contains(last, "g0") || !strings.Contains(last, "X . .") {
		t.Fatalf("move not rendered: %q", last)
	}
}

func TestDisplayNamePrefersProfile(t *testing.T) {
	app, _, _ := newTestApp(t)
	app.Registry.Upsert("bob@10.0.0.2", "10.0.0.2", 9002)
	if got := app.displayName("bob@10.0.0.2"); got != "bob@10.0.0.2" {
		t.Fatalf("fallback should be the user id, got %q", got)
	}
	app.Router.Dispatch(profileMessage("bob@10.0.0.2", "Bobby"), "10.0.0.2", 9002)
	if got := app.displayName("bob@10.0.0.2"); got != "Bobby" {
		t.Fatalf("display name not applied, got %q", got)
	}
}
