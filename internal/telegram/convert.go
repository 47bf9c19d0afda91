package telegram

import (
	"time"

	"github.com/gotd/td/tg"
)

// peers indexes the users and chats delivered alongside messages.
type peers struct {
	users    map[int64]*tg.User
	chats    map[int64]*tg.Chat
	channels map[int64]*tg.Channel
}

func peersFromEntities(e *tg.Entities) peers {
	if e == nil {
		return peers{}
	}
	return peers{users: e.Users, chats: e.Chats, channels: e.Channels}
}

func peersFromLists(users []tg.UserClass, chats []tg.ChatClass) peers {
	p := peers{
		users:    make(map[int64]*tg.User, len(users)),
		chats:    map[int64]*tg.Chat{},
		channels: map[int64]*tg.Channel{},
	}
	for _, u := range users {
		if user, ok := u.(*tg.User); ok {
			p.users[user.ID] = user
		}
	}
	for _, c := range chats {
		switch chat := c.(type) {
		case *tg.Chat:
			p.chats[chat.ID] = chat
		case *tg.Channel:
			p.channels[chat.ID] = chat
		}
	}
	return p
}

func channelFromTG(ch *tg.Channel) *Channel {
	return &Channel{
		ID:         ch.ID,
		AccessHash: ch.AccessHash,
		Username:   ch.Username,
		Title:      ch.Title,
		Broadcast:  ch.Broadcast,
		Megagroup:  ch.Megagroup || ch.Gigagroup,
		IsForum:    ch.Forum,
	}
}

// convertMessage normalizes a raw MTProto message. fallback, when not nil,
// is used as the chat if the peer is missing from the index.
func convertMessage(m *tg.Message, idx peers, fallback *Channel) Message {
	msg := Message{
		ID:   m.ID,
		Text: m.Message,
		Date: time.Unix(int64(m.Date), 0),
	}

	switch p := m.PeerID.(type) {
	case *tg.PeerChannel:
		msg.ChannelID = p.ChannelID
		if ch, ok := idx.channels[p.ChannelID]; ok {
			msg.Chat = channelFromTG(ch)
		} else if fallback != nil && fallback.ID == p.ChannelID {
			msg.Chat = fallback
		}
		msg.PeerKind = PeerChannel
		if msg.Chat != nil && msg.Chat.Megagroup {
			msg.PeerKind = PeerGroup
		} else if msg.Chat == nil && !m.Post {
			msg.PeerKind = PeerGroup
		}
	case *tg.PeerChat:
		msg.ChannelID = p.ChatID
		msg.PeerKind = PeerGroup
		if chat, ok := idx.chats[p.ChatID]; ok {
			msg.Chat = &Channel{ID: chat.ID, Title: chat.Title}
		} else if fallback != nil && fallback.ID == p.ChatID {
			msg.Chat = fallback
		}
	case *tg.PeerUser:
		msg.ChannelID = p.UserID
		msg.PeerKind = PeerUser
	}

	if from, ok := m.GetFromID(); ok {
		if u, ok := from.(*tg.PeerUser); ok {
			msg.Sender = &Sender{ID: u.UserID}
			if user, ok := idx.users[u.UserID]; ok {
				msg.Sender.Username = user.Username
			}
		}
	} else if msg.PeerKind == PeerUser {
		msg.Sender = &Sender{ID: msg.ChannelID}
	}

	if hdr, ok := m.ReplyTo.(*tg.MessageReplyHeader); ok {
		if id, ok := hdr.GetReplyToMsgID(); ok {
			// a plain message inside a forum topic points at the topic root,
			// which is not a reply
			_, inThread := hdr.GetReplyToTopID()
			if !hdr.ForumTopic || inThread {
				msg.ReplyToID = &id
			}
		}
	}

	msg.Media = convertMedia(m.Media)

	if v, ok := m.GetViews(); ok {
		msg.Views = v
	}
	if f, ok := m.GetForwards(); ok {
		msg.Forwards = f
	}

	return msg
}

func convertMedia(media tg.MessageMediaClass) Media {
	var out Media
	switch md := media.(type) {
	case *tg.MessageMediaPhoto:
		out.Photo = true
	case *tg.MessageMediaDocument:
		if doc, ok := md.GetDocument(); ok {
			if d, ok := doc.(*tg.Document); ok {
				for _, attr := range d.Attributes {
					switch attr.(type) {
					case *tg.DocumentAttributeVideo:
						out.Video = true
					case *tg.DocumentAttributeAudio:
						out.Audio = true
					}
				}
			}
		}
		out.Document = !out.Video && !out.Audio
	}
	return out
}
