package docsbot_test

import (
	"testing"

	"github.com/docsbot-dev/docsbot"
	"github.com/stretchr/testify/assert"
)

func TestApplyAnswerOptions(t *testing.T) {
	testCases := []struct {
		name           string
		options        []docsbot.AnswerOption
		expectedConfig map[string]string
	}{
		{"none", []docsbot.AnswerOption{}, make(map[string]string)},
		{"threadReplyOnExistingThread", []docsbot.AnswerOption{docsbot.AnswerInExistingThread("1000")}, map[string]string{docsbot.ThreadTimestamp: "1000"}},
		{"threadReplyWithBroadcast", []docsbot.AnswerOption{docsbot.AnswerInExistingThread("1000"), docsbot.AnswerWithBroadcast()}, map[string]string{docsbot.ThreadTimestamp: "1000", docsbot.BroadcastOpt: "true"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := docsbot.ApplyAnswerOpts(tc.options...)
			assert.Equal(t, tc.expectedConfig, c)
		})
	}
}
