package wire

import (
	"crypto/rand"
	"fmt"
	"strconv"
	"time"
)

// Message types carried in the TYPE field.
const (
	TypePost             = "POST"
	TypeDM               = "DM"
	TypeProfile          = "PROFILE"
	TypePeerDiscovery    = "PEER_DISCOVERY"
	TypePeerListRequest  = "PEER_LIST_REQUEST"
	TypePeerListResponse = "PEER_LIST_RESPONSE"
	TypeFollow           = "FOLLOW"
	TypeUnfollow         = "UNFOLLOW"
	TypeGroupCreate      = "GROUP_CREATE"
	TypeGroupUpdate      = "GROUP_UPDATE"
	TypeGroupMessage     = "GROUP_MESSAGE"
	TypeLike             = "LIKE"
	TypeUnlike           = "UNLIKE"
	TypeGameInvite       = "TICTACTOE_INVITE"
	TypeGameMove         = "TICTACTOE_MOVE"
	TypeGameResult       = "TICTACTOE_RESULT"
)

// Well-known field keys. Unknown keys round-trip untouched so newer peers can
// add fields without breaking older ones.
const (
	KeyType           = "TYPE"
	KeyMessageID      = "MESSAGE_ID"
	KeyTimestamp      = "TIMESTAMP"
	KeyUserID         = "USER_ID"
	KeyFrom           = "FROM"
	KeyTo             = "TO"
	KeyContent        = "CONTENT"
	KeyPort           = "PORT"
	KeyPeers          = "PEERS"
	KeyCount          = "COUNT"
	KeyToken          = "TOKEN"
	KeyTTL            = "TTL"
	KeyDisplayName    = "DISPLAY_NAME"
	KeyStatus         = "STATUS"
	KeyAvatarType     = "AVATAR_TYPE"
	KeyAvatarEncoding = "AVATAR_ENCODING"
	KeyAvatarData     = "AVATAR_DATA"
	KeyGroupID        = "GROUP_ID"
	KeyGroupName      = "GROUP_NAME"
	KeyMembers        = "MEMBERS"
	KeyAdd            = "ADD"
	KeyRemove         = "REMOVE"
	KeyPostID         = "POST_ID"
	KeyGameID         = "GAMEID"
	KeySymbol         = "SYMBOL"
	KeyPosition       = "POSITION"
	KeyTurn           = "TURN"
	KeyResult         = "RESULT"
	KeyWinningLine    = "WINNING_LINE"
)

// Message is an open string-to-string mapping. Typed accessors sit on top so
// handlers never hardcode key strings.
type Message map[string]string

// New builds a message of the given type with MESSAGE_ID and TIMESTAMP set.
func New(msgType string) Message {
	return Message{
		KeyType:      msgType,
		KeyMessageID: NewMessageID(),
		KeyTimestamp: strconv.FormatInt(time.Now().Unix(), 10),
	}
}

func (m Message) Type() string      { return m[KeyType] }
func (m Message) MessageID() string { return m[KeyMessageID] }
func (m Message) To() string        { return m[KeyTo] }
func (m Message) Content() string   { return m[KeyContent] }
func (m Message) Token() string     { return m[KeyToken] }

// Sender returns the sender identifier, whichever of USER_ID/FROM is present.
func (m Message) Sender() string {
	if id := m[KeyUserID]; id != "" {
		return id
	}
	return m[KeyFrom]
}

// Timestamp parses the TIMESTAMP field, zero time when absent or malformed.
func (m Message) Timestamp() time.Time {
	secs, err := strconv.ParseInt(m[KeyTimestamp], 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(secs, 0)
}

// Int returns the named field as an int, or the fallback when absent/invalid.
func (m Message) Int(key string, fallback int) int {
	v, err := strconv.Atoi(m[key])
	if err != nil {
		return fallback
	}
	return v
}

func (m Message) Set(key, value string) Message {
	m[key] = value
	return m
}

// Clone returns an independent copy of the field map.
func (m Message) Clone() Message {
	out := make(Message, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// NewMessageID produces a random 64-bit hex identifier for outbound messages.
func NewMessageID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return fmt.Sprintf("%x", b)
}
