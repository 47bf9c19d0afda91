package telegram

import (
	"testing"
	"time"

	"github.com/gotd/td/tg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertMessage_ChannelPost(t *testing.T) {
	ch := &tg.Channel{ID: 100, AccessHash: 7, Title: "News", Username: "news", Broadcast: true}
	idx := peersFromLists(nil, []tg.ChatClass{ch})

	m := &tg.Message{
		ID:      5,
		PeerID:  &tg.PeerChannel{ChannelID: 100},
		Message: "launch day",
		Date:    1704103200,
		Post:    true,
	}
	m.SetViews(42)
	m.SetForwards(3)

	got := convertMessage(m, idx, nil)
	assert.Equal(t, 5, got.ID)
	assert.Equal(t, int64(100), got.ChannelID)
	assert.Equal(t, PeerChannel, got.PeerKind)
	require.NotNil(t, got.Chat)
	assert.Equal(t, "News", got.SourceName())
	assert.Equal(t, time.Unix(1704103200, 0), got.Date)
	assert.Nil(t, got.ReplyToID)
	assert.Nil(t, got.Sender)
	assert.Equal(t, 42, got.Views)
	assert.Equal(t, 3, got.Forwards)
}

func TestConvertMessage_SupergroupReply(t *testing.T) {
	ch := &tg.Channel{ID: 200, Title: "Discussion", Megagroup: true}
	user := &tg.User{ID: 9, Username: "alice"}
	idx := peersFromLists([]tg.UserClass{user}, []tg.ChatClass{ch})

	hdr := &tg.MessageReplyHeader{}
	hdr.SetReplyToMsgID(11)

	m := &tg.Message{ID: 12, PeerID: &tg.PeerChannel{ChannelID: 200}, Message: "agreed", ReplyTo: hdr}
	m.SetFromID(&tg.PeerUser{UserID: 9})

	got := convertMessage(m, idx, nil)
	assert.Equal(t, PeerGroup, got.PeerKind)
	require.NotNil(t, got.ReplyToID)
	assert.Equal(t, 11, *got.ReplyToID)
	require.NotNil(t, got.Sender)
	assert.Equal(t, int64(9), got.Sender.ID)
	assert.Equal(t, "alice", got.Sender.DisplayName())
}

func TestConvertMessage_ForumTopicRootIsNotReply(t *testing.T) {
	hdr := &tg.MessageReplyHeader{ForumTopic: true}
	hdr.SetReplyToMsgID(1)

	m := &tg.Message{ID: 20, PeerID: &tg.PeerChannel{ChannelID: 300}, ReplyTo: hdr}
	got := convertMessage(m, peers{}, &Channel{ID: 300, Megagroup: true, IsForum: true})
	assert.Nil(t, got.ReplyToID)

	hdr.SetReplyToTopID(1)
	hdr.SetReplyToMsgID(15)
	got = convertMessage(m, peers{}, nil)
	require.NotNil(t, got.ReplyToID)
	assert.Equal(t, 15, *got.ReplyToID)
}

func TestConvertMessage_BasicGroupAndFallback(t *testing.T) {
	chat := &tg.Chat{ID: 400, Title: "Friends"}
	idx := peersFromLists(nil, []tg.ChatClass{chat})

	got := convertMessage(&tg.Message{ID: 1, PeerID: &tg.PeerChat{ChatID: 400}}, idx, nil)
	assert.Equal(t, PeerGroup, got.PeerKind)
	assert.Equal(t, "Friends", got.SourceName())

	fallback := &Channel{ID: 500, Title: "History", Broadcast: true}
	got = convertMessage(&tg.Message{ID: 2, PeerID: &tg.PeerChannel{ChannelID: 500}, Post: true}, peers{}, fallback)
	assert.Same(t, fallback, got.Chat)
	assert.Equal(t, PeerChannel, got.PeerKind)
}

func TestConvertMessage_PrivateChat(t *testing.T) {
	got := convertMessage(&tg.Message{ID: 1, PeerID: &tg.PeerUser{UserID: 77}}, peers{}, nil)
	assert.Equal(t, PeerUser, got.PeerKind)
	require.NotNil(t, got.Sender)
	assert.Equal(t, "User_77", got.Sender.DisplayName())
}

func TestConvertMedia(t *testing.T) {
	doc := func(attrs ...tg.DocumentAttributeClass) tg.MessageMediaClass {
		md := &tg.MessageMediaDocument{}
		md.SetDocument(&tg.Document{ID: 1, Attributes: attrs})
		return md
	}

	tests := []struct {
		name  string
		media tg.MessageMediaClass
		want  Media
	}{
		{"none", nil, Media{}},
		{"photo", &tg.MessageMediaPhoto{}, Media{Photo: true}},
		{"plain document", doc(&tg.DocumentAttributeFilename{FileName: "a.pdf"}), Media{Document: true}},
		{"video", doc(&tg.DocumentAttributeVideo{}), Media{Video: true}},
		{"audio", doc(&tg.DocumentAttributeAudio{}), Media{Audio: true}},
		{"geo ignored", &tg.MessageMediaGeo{}, Media{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, convertMedia(tt.media))
		})
	}
}
