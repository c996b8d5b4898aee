package router

import "time"

// EventKind labels what a routed message meant for the local user.
type EventKind int

const (
	EventPost EventKind = iota
	EventDM
	EventProfile
	EventFollow
	EventUnfollow
	EventGroupCreate
	EventGroupUpdate
	EventGroupMessage
	EventLike
	EventUnlike
	EventGameInvite
	EventGameMove
	EventGameOver
)

// Event is what the router hands to the UI layer after applying a message.
// Only the fields relevant to its Kind are populated.
type Event struct {
	Kind      EventKind
	From      string
	To        string
	Content   string
	GroupID   string
	PostID    string
	GameID    string
	Board     string
	Result    string
	Timestamp time.Time
}
