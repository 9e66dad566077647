package docsbot

import (
	"github.com/slack-go/slack"
)

const (
	// ThreadTimestamp is the name of the option indicating the explicit timestamp of the thread to reply to
	ThreadTimestamp = "threadTimestamp"
	// BroadcastOpt is the name of the option indicating a threaded answer also sent to the channel
	BroadcastOpt = "broadcast"
)

// Answer holds data of a message sent by docsbot: namely, its text and options
// to use when delivering it
type Answer struct {
	Text string

	// Options to apply when sending a message
	Options []AnswerOption

	// BlockKit content blocks to apply when sending the message
	ContentBlocks []slack.Block
}

// AnswerOption defines a function applied to Answers
type AnswerOption func(sendOpts map[string]string)

// AnswerInExistingThread sets threaded replying with the existing thread timestamp
func AnswerInExistingThread(threadTimestamp string) AnswerOption {
	return func(sendOpts map[string]string) {
		sendOpts[ThreadTimestamp] = threadTimestamp
	}
}

// AnswerWithBroadcast sets a threaded answer to also be broadcast to the channel
func AnswerWithBroadcast() AnswerOption {
	return func(sendOpts map[string]string) {
		sendOpts[BroadcastOpt] = "true"
	}
}

// ApplyAnswerOpts applies answering options to build the send configuration
func ApplyAnswerOpts(opts ...AnswerOption) (sendOptions map[string]string) {
	sendOptions = make(map[string]string)
	for _, opt := range opts {
		opt(sendOptions)
	}

	return sendOptions
}

// msgOptions returns the slack message options to send an answer with
func (a *Answer) msgOptions() (options []slack.MsgOption) {
	sendOpts := ApplyAnswerOpts(a.Options...)

	options = []slack.MsgOption{slack.MsgOptionText(a.Text, false)}
	if len(a.ContentBlocks) > 0 {
		options = append(options, slack.MsgOptionBlocks(a.ContentBlocks...))
	}

	if ts, ok := sendOpts[ThreadTimestamp]; ok && ts != "" {
		options = append(options, slack.MsgOptionTS(ts))

		if sendOpts[BroadcastOpt] == "true" {
			options = append(options, slack.MsgOptionBroadcast())
		}
	}

	return options
}
