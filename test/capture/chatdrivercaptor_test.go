package capture_test

import (
	"context"
	"errors"
	"testing"

	"github.com/docsbot-dev/docsbot/actions"
	"github.com/docsbot-dev/docsbot/test/capture"
	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostMessageCapturesContent(t *testing.T) {
	c := capture.NewChatDriverCaptor()

	ch, ts, err := c.PostMessageContext(context.Background(), "C1", slack.MsgOptionText("hello", false), slack.MsgOptionTS("T1"), slack.MsgOptionBroadcast(), slack.MsgOptionBlocks(actions.AdCopyBlocks()...))
	require.NoError(t, err)

	assert.Equal(t, "C1", ch)
	assert.Equal(t, "10.000", ts)

	sent := c.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "hello", sent[0].Text)
	assert.Equal(t, "T1", sent[0].ThreadTimestamp)
	assert.True(t, sent[0].Broadcast)
	assert.Len(t, sent[0].Blocks, 2)

	_, ts, err = c.PostMessageContext(context.Background(), "C1", slack.MsgOptionText("again", false))
	require.NoError(t, err)
	assert.Equal(t, "20.000", ts)
}

func TestPostMessageFailsAfterConfiguredPosts(t *testing.T) {
	c := capture.NewChatDriverCaptor()
	c.PostErr = errors.New("rate limited")
	c.PostErrAfter = 1

	_, _, err := c.PostMessageContext(context.Background(), "C1", slack.MsgOptionText("first", false))
	require.NoError(t, err)

	_, _, err = c.PostMessageContext(context.Background(), "C1", slack.MsgOptionText("second", false))
	assert.EqualError(t, err, "rate limited")
	assert.Len(t, c.Sent(), 1)
}

func TestGetConversationReplies(t *testing.T) {
	c := capture.NewChatDriverCaptor()
	c.AddReplies("C1", "T1", slack.Message{Msg: slack.Msg{Timestamp: "T1", Text: "root"}}, slack.Message{Msg: slack.Msg{Timestamp: "T2"}})

	msgs, hasMore, _, err := c.GetConversationRepliesContext(context.Background(), &slack.GetConversationRepliesParameters{ChannelID: "C1", Timestamp: "T1", Limit: 1})
	require.NoError(t, err)
	assert.True(t, hasMore)
	require.Len(t, msgs, 1)
	assert.Equal(t, "root", msgs[0].Text)

	msgs, _, _, err = c.GetConversationRepliesContext(context.Background(), &slack.GetConversationRepliesParameters{ChannelID: "C1", Timestamp: "unknown"})
	require.NoError(t, err)
	assert.Empty(t, msgs)
	assert.Len(t, c.RepliesQueries, 2)
}

func TestEmojiReactionCaptor(t *testing.T) {
	e := capture.NewEmojiReactionCaptor()

	require.NoError(t, e.AddReactionContext(context.Background(), "thumbsup", slack.NewRefToMessage("C1", "T1")))
	require.NoError(t, e.AddReactionContext(context.Background(), "thumbsdown", slack.NewRefToMessage("C1", "T1")))
	assert.Error(t, e.AddReactionContext(context.Background(), "tada", slack.NewRefToMessage("C1", "T2")))

	assert.Equal(t, "C1", e.Channel)
	assert.Equal(t, "T1", e.Timestamp)
	assert.Equal(t, []string{"thumbsup", "thumbsdown"}, e.Emojis)
}
