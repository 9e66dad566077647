// Package capture provides fakes of the slack client capturing what docsbot sends
// to slack for post-execution validation
package capture

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/slack-go/slack"
)

// SentMessage holds the resolved content of a message sent to a channel
type SentMessage struct {
	ChannelID       string
	Timestamp       string
	ThreadTimestamp string
	Text            string
	Broadcast       bool
	Blocks          []slack.Block
}

// ChatDriverCaptor captures messages posted by invocations of PostMessageContext and serves
// conversation replies set up with AddReplies
type ChatDriverCaptor struct {
	mu sync.Mutex

	SentMessages   []SentMessage
	RepliesQueries []slack.GetConversationRepliesParameters

	replies    map[string][]slack.Message
	timeCursor uint64

	// PostErr, when set, is returned by PostMessageContext after the PostErrAfter first successful posts
	PostErr      error
	PostErrAfter int

	// RepliesErr, when set, is returned by GetConversationRepliesContext
	RepliesErr error
}

// NewChatDriverCaptor returns a new initialized ChatDriverCaptor
func NewChatDriverCaptor() (c *ChatDriverCaptor) {
	c = new(ChatDriverCaptor)
	c.SentMessages = make([]SentMessage, 0)
	c.RepliesQueries = make([]slack.GetConversationRepliesParameters, 0)
	c.replies = make(map[string][]slack.Message)

	return c
}

// AddReplies sets the messages returned for the conversation replies of a message
func (c *ChatDriverCaptor) AddReplies(channelID string, timestamp string, msgs ...slack.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.replies[repliesKey(channelID, timestamp)] = msgs
}

// PostMessageContext captures the details of a posted message and returns a new unique timestamp for it
func (c *ChatDriverCaptor) PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (rChannelID string, rTimestamp string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.PostErr != nil && len(c.SentMessages) >= c.PostErrAfter {
		return "", "", c.PostErr
	}

	_, values, err := slack.UnsafeApplyMsgOptions("", channelID, "", options...)
	if err != nil {
		return "", "", err
	}

	c.timeCursor = c.timeCursor + 10
	sent := SentMessage{
		ChannelID:       channelID,
		Timestamp:       fmt.Sprintf("%d.000", c.timeCursor),
		ThreadTimestamp: values.Get("thread_ts"),
		Text:            values.Get("text"),
		Broadcast:       values.Get("reply_broadcast") == "true",
	}

	if blocks := values.Get("blocks"); blocks != "" {
		var b slack.Blocks
		if err = json.Unmarshal([]byte(blocks), &b); err != nil {
			return "", "", err
		}
		sent.Blocks = b.BlockSet
	}

	c.SentMessages = append(c.SentMessages, sent)

	return channelID, sent.Timestamp, nil
}

// GetConversationRepliesContext returns the replies set up for the channel and timestamp of the query, up to its limit
func (c *ChatDriverCaptor) GetConversationRepliesContext(ctx context.Context, params *slack.GetConversationRepliesParameters) (msgs []slack.Message, hasMore bool, nextCursor string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.RepliesQueries = append(c.RepliesQueries, *params)

	if c.RepliesErr != nil {
		return nil, false, "", c.RepliesErr
	}

	msgs = c.replies[repliesKey(params.ChannelID, params.Timestamp)]
	if params.Limit > 0 && len(msgs) > params.Limit {
		return msgs[:params.Limit], true, "", nil
	}

	return msgs, false, "", nil
}

// Sent returns a copy of the messages sent so far
func (c *ChatDriverCaptor) Sent() (sent []SentMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]SentMessage{}, c.SentMessages...)
}

func repliesKey(channelID string, timestamp string) string {
	return channelID + "/" + timestamp
}
