package docsbot

import (
	"context"

	"github.com/slack-go/slack"
)

// messagePoster is implemented by any value that has the PostMessageContext method.
//
// slack.Client implements this interface
type messagePoster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (rChannelID string, rTimestamp string, err error)
}

// conversationRepliesGetter is implemented by any value that has the GetConversationRepliesContext method.
//
// slack.Client implements this interface
type conversationRepliesGetter interface {
	GetConversationRepliesContext(ctx context.Context, params *slack.GetConversationRepliesParameters) (msgs []slack.Message, hasMore bool, nextCursor string, err error)
}

// chatDriver encompasses the messagePoster and conversationRepliesGetter interfaces and is implemented by
// any value that has all methods of those interfaces
type chatDriver interface {
	messagePoster
	conversationRepliesGetter
}
