// Package assertanswer provides testing functions to validate messages sent by docsbot
package assertanswer

import (
	"testing"

	"github.com/docsbot-dev/docsbot/test/capture"
	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
)

// HasText asserts that the message's text is the expected text
func HasText(t *testing.T, msg *capture.SentMessage, text string) bool {
	if assert.NotNil(t, msg) {
		return assert.Equalf(t, text, msg.Text, "Message text expected to be [%s] but was [%s]", text, msg.Text)
	}
	return false
}

// HasTextContaining asserts that the message's text contains the expected subString
func HasTextContaining(t *testing.T, msg *capture.SentMessage, subString string) bool {
	if assert.NotNil(t, msg) {
		return assert.Containsf(t, msg.Text, subString, "Message expected to have text containing [%s] but its text [%s] didn't", subString, msg.Text)
	}
	return false
}

// IsInThread asserts that the message was sent to the expected channel and thread
func IsInThread(t *testing.T, msg *capture.SentMessage, channelID string, threadTimestamp string) bool {
	if assert.NotNil(t, msg) {
		return assert.Equalf(t, channelID, msg.ChannelID, "Message expected to be sent to channel [%s] but was sent to [%s]", channelID, msg.ChannelID) &&
			assert.Equalf(t, threadTimestamp, msg.ThreadTimestamp, "Message expected to be in thread [%s] but was in [%s]", threadTimestamp, msg.ThreadTimestamp)
	}
	return false
}

// HasActions asserts that the message's blocks have buttons for exactly the expected action ids, in order
func HasActions(t *testing.T, msg *capture.SentMessage, actionIDs ...string) bool {
	if assert.NotNil(t, msg) {
		found := make([]string, 0)
		for _, b := range msg.Blocks {
			if ab, ok := b.(*slack.ActionBlock); ok && ab.Elements != nil {
				for _, e := range ab.Elements.ElementSet {
					if button, ok := e.(*slack.ButtonBlockElement); ok {
						found = append(found, button.ActionID)
					}
				}
			}
		}

		return assert.Equalf(t, actionIDs, found, "Message actions expected %s but were %s", actionIDs, found)
	}
	return false
}
