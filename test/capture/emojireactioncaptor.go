package capture

import (
	"context"
	"fmt"
	"sync"

	"github.com/slack-go/slack"
)

// EmojiReactionCaptor captures emoji reactions recorded by
// invocations of AddReactionContext. It only supports recording
// emojis for one given channel and timestamp
type EmojiReactionCaptor struct {
	mu sync.Mutex

	Channel   string
	Timestamp string
	Emojis    []string

	// Err, when set, is returned by AddReactionContext
	Err error
}

// AddReactionContext captures an emoji reaction to a message
func (e *EmojiReactionCaptor) AddReactionContext(ctx context.Context, name string, item slack.ItemRef) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.Err != nil {
		return e.Err
	}

	if e.Channel == "" {
		e.Channel = item.Channel
		e.Timestamp = item.Timestamp
		e.Emojis = append(e.Emojis, name)
	} else if e.Channel == item.Channel && e.Timestamp == item.Timestamp {
		e.Emojis = append(e.Emojis, name)
	} else {
		return fmt.Errorf("EmojiReactionCaptor doesn't support capturing emojis for more than one message")
	}

	return nil
}

// NewEmojiReactionCaptor returns a new EmojiReactionCaptor with an initialized emojis array
func NewEmojiReactionCaptor() (emojiReactionCaptor *EmojiReactionCaptor) {
	emojiReactionCaptor = new(EmojiReactionCaptor)
	emojiReactionCaptor.Emojis = make([]string, 0)

	return emojiReactionCaptor
}
