package peer

import (
	"fmt"
	"time"

	"lansocial/internal/registry"
	"lansocial/internal/router"
	"lansocial/internal/ui"
)

// pumpRouterEvents translates applied message events into UI sink calls.
func (a *App) pumpRouterEvents() {
	for {
		select {
		case <-a.ctx.Done():
			return
		case evt := <-a.Router.Events():
			a.renderEvent(evt)
		}
	}
}

func (a *App) renderEvent(evt router.Event) {
	from := a.displayName(evt.From)
	switch evt.Kind {
	case router.EventPost:
		a.sink.ShowMessage(ui.Message{Scope: "post", From: from, Content: evt.Content, Timestamp: evt.Timestamp})
	case router.EventDM:
		a.sink.ShowMessage(ui.Message{Scope: "dm", From: from, Content: evt.Content, Timestamp: evt.Timestamp})
	case router.EventGroupMessage:
		a.sink.ShowMessage(ui.Message{Scope: "group:" + evt.GroupID, From: from, Content: evt.Content, Timestamp: evt.Timestamp})
	case router.EventProfile:
		a.sink.UpdatePeers(a.presenceSnapshot())
	case router.EventFollow:
		a.notify(evt.From, "follow", fmt.Sprintf("%s now follows you", from))
	case router.EventUnfollow:
		a.notify(evt.From, "follow", fmt.Sprintf("%s no longer follows you", from))
	case router.EventGroupCreate:
		a.notify(evt.From, "group", fmt.Sprintf("%s added you to group %s (%s)", from, evt.GroupID, evt.Content))
	case router.EventGroupUpdate:
		a.notify(evt.From, "group", fmt.Sprintf("%s changed the members of %s", from, evt.GroupID))
	case router.EventLike:
		a.notify(evt.From, "like", fmt.Sprintf("%s liked post %s", from, evt.PostID))
	case router.EventUnlike:
		a.notify(evt.From, "like", fmt.Sprintf("%s unliked post %s", from, evt.PostID))
	case router.EventGameInvite:
		a.notify(evt.From, "game", fmt.Sprintf("%s invited you to tic tac toe (%s), they play %s", from, evt.GameID, evt.Content))
	case router.EventGameMove:
		a.sink.ShowSystem(fmt.Sprintf("game %s: %s moved\n%s", evt.GameID, from, renderBoard(evt.Board)))
	case router.EventGameOver:
		text := fmt.Sprintf("game %s over: %s", evt.GameID, evt.Result)
		if evt.Content != "" {
			text = fmt.Sprintf("game %s over: %s by %s", evt.GameID, evt.Result, a.displayName(evt.Content))
		}
		a.notify(evt.From, "game", text)
	}
}

// pumpRegistryEvents surfaces peers joining and leaving.
func (a *App) pumpRegistryEvents() {
	for {
		select {
		case <-a.ctx.Done():
			return
		case evt := <-a.Registry.Events():
			switch evt.Kind {
			case registry.PeerJoined:
				a.sink.ShowSystem(fmt.Sprintf("%s joined", evt.Peer.UserID))
			case registry.PeerLeft:
				a.sink.ShowSystem(fmt.Sprintf("%s left", evt.Peer.UserID))
			}
			a.sink.UpdatePeers(a.presenceSnapshot())
		}
	}
}

func (a *App) presenceSnapshot() []ui.Presence {
	peers := a.Registry.Snapshot()
	out := make([]ui.Presence, 0, len(peers))
	for _, p := range peers {
		out = append(out, ui.Presence{
			UserID:      p.UserID,
			DisplayName: p.Profile.DisplayName,
			Addr:        fmt.Sprintf("%s:%d", p.IP, p.Port),
			Online:      true,
		})
	}
	return out
}

func (a *App) notify(from, level, text string) {
	a.sink.ShowNotification(ui.Notification{
		From:      from,
		Level:     level,
		Text:      text,
		Timestamp: time.Now(),
	})
}

func (a *App) displayName(userID string) string {
	if peer, ok := a.Registry.Lookup(userID); ok {
		return peer.DisplayName()
	}
	return userID
}

// renderBoard turns the 9 cell string into a 3x3 grid for terminal display.
func renderBoard(cells string) string {
	if len(cells) != 9 {
		return cells
	}
	grid := []byte(cells)
	for i, c := range grid {
		if c == ' ' {
			grid[i] = '.'
		}
	}
	return fmt.Sprintf(" %c %c %c\n %c %c %c\n %c %c %c",
		grid[0], grid[1], grid[2], grid[3], grid[4], grid[5], grid[6], grid[7], grid[8])
}
