package docsbot_test

import (
	"testing"

	"github.com/docsbot-dev/docsbot"
	"github.com/stretchr/testify/assert"
)

func TestParseReaction(t *testing.T) {
	tests := map[string]int{
		"+1":              1,
		"-1":              -1,
		"thumbsup":        0,
		"thumbsdown":      0,
		"":                0,
		"+1::skin-tone-2": 0,
	}

	for reaction, expected := range tests {
		t.Run(reaction, func(t *testing.T) {
			assert.Equal(t, expected, docsbot.ParseReaction(reaction))
		})
	}
}
