package docsbot

import (
	"context"

	"github.com/docsbot-dev/docsbot/formatter"
)

// SendContext identifies where docsbot sends messages: a channel and, optionally, the
// thread of that channel
type SendContext struct {
	ChannelID       string
	ThreadTimestamp string
}

// sendText sends text converted to mrkdwn, threaded when the SendContext has a thread timestamp,
// and returns the timestamp of the sent message
func (b *Bot) sendText(ctx context.Context, sc SendContext, text string) (timestamp string, err error) {
	return b.sendAnswer(ctx, sc, &Answer{Text: formatter.ToMrkdwn(text)})
}

// sendAnswer sends an answer and returns the timestamp of the sent message
func (b *Bot) sendAnswer(ctx context.Context, sc SendContext, a *Answer) (timestamp string, err error) {
	if sc.ThreadTimestamp != "" {
		a.Options = append(a.Options, AnswerInExistingThread(sc.ThreadTimestamp))
	}

	_, timestamp, err = b.chatDriver.PostMessageContext(ctx, sc.ChannelID, a.msgOptions()...)

	return timestamp, err
}
