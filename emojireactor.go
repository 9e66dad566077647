package docsbot

import (
	"context"

	"github.com/slack-go/slack"
)

// EmojiReactor is implemented by any value that has the AddReactionContext method.
// The main purpose is a slight decoupling of the slack.Client in order for handlers to
// be easier to test
type EmojiReactor interface {
	// AddReactionContext adds an emoji reaction to a ItemRef using the emoji associated
	// with the given name (i.e. name should be thumbsup rather than :thumbsup:)
	AddReactionContext(ctx context.Context, name string, item slack.ItemRef) error
}
