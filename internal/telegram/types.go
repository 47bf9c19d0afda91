package telegram

import (
	"fmt"
	"strconv"
	"time"
)

// PeerKind tells where a message was posted.
type PeerKind string

// PeerKind constants.
const (
	PeerChannel PeerKind = "channel" // broadcast channel
	PeerGroup   PeerKind = "group"   // supergroup or basic group
	PeerUser    PeerKind = "user"    // private chat, ignored by the classifier
)

// Media flags the attachment types present on a message.
type Media struct {
	Photo    bool
	Document bool
	Video    bool
	Audio    bool
}

// Sender identifies the author of a message, when known.
type Sender struct {
	ID       int64
	Username string
}

// DisplayName returns the username, falling back to User_<id>.
func (s *Sender) DisplayName() string {
	if s.Username != "" {
		return s.Username
	}
	return fmt.Sprintf("User_%d", s.ID)
}

// Message represents a parsed telegram message
type Message struct {
	ID        int       // message id (unique within channel)
	ChannelID int64     // chat id
	PeerKind  PeerKind  // kind of chat it was posted in
	Chat      *Channel  // resolved chat, may be nil for history results
	Text      string    // message text content
	Date      time.Time // message creation timestamp
	ReplyToID *int      // id of the message this one replies to
	Sender    *Sender   // author, nil for anonymous channel posts
	Media     Media     // attachment flags
	Views     int       // view count
	Forwards  int       // forward count
}

// SourceName returns the chat title, username or id, whichever is known first.
func (m *Message) SourceName() string {
	if m.Chat != nil {
		if m.Chat.Title != "" {
			return m.Chat.Title
		}
		if m.Chat.Username != "" {
			return m.Chat.Username
		}
	}
	return strconv.FormatInt(m.ChannelID, 10)
}

// Channel represents a telegram chat (channel, supergroup or basic group)
type Channel struct {
	ID         int64  // chat id
	AccessHash int64  // access hash for api calls, zero for basic groups
	Username   string // public username (without @)
	Title      string // chat title
	Broadcast  bool   // broadcast channel
	Megagroup  bool   // supergroup
	IsForum    bool   // whether it's a forum-type supergroup
}

// ExternalID is the stable identifier used when registering the chat.
func (c *Channel) ExternalID() string {
	return strconv.FormatInt(c.ID, 10)
}
