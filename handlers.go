package docsbot

import (
	"context"
	"fmt"

	"github.com/docsbot-dev/docsbot/actions"
	"github.com/docsbot-dev/docsbot/apiclient"
	"github.com/docsbot-dev/docsbot/chat"
	"github.com/docsbot-dev/docsbot/formatter"
	"github.com/pkg/errors"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
)

const (
	thumbsUpEmoji   = "thumbsup"
	thumbsDownEmoji = "thumbsdown"

	// Names of the reactions slack reports for the thumbs up and thumbs down emojis
	positiveReaction = "+1"
	negativeReaction = "-1"

	// userVar is the intro message placeholder for the user asking a question
	userVar = "user"

	initMenuFallbackText   = "What can docsbot do for you?"
	adCopyMenuFallbackText = "Pick an ad copy variant"
)

// eventHandler handles an events api event
type eventHandler func(ctx context.Context, log SLogger, ev slackevents.EventsAPIInnerEvent) error

// actionHandler handles a block action
type actionHandler func(ctx context.Context, log SLogger, cb *slack.InteractionCallback) error

// registerHandlers registers the event and action handlers by name
func (b *Bot) registerHandlers() {
	b.eventHandlers = map[string]eventHandler{
		string(slackevents.AppMention):    b.handleMention,
		string(slackevents.ReactionAdded): b.handleReactionAdded,
	}

	b.actionHandlers = map[string]actionHandler{
		actions.DocsbotActionID: b.handleDocsbot,
		actions.AdCopyActionID:  b.handleAdCopyMenu,
	}

	for actionID, v := range actions.AdCopyVariants {
		b.actionHandlers[actionID] = b.handleAdCopy(v.Action, v.Persona)
	}
}

// ParseReaction returns the rating of a reaction: 1 for "+1", -1 for "-1" and 0 for anything else
func ParseReaction(reaction string) int {
	switch reaction {
	case positiveReaction:
		return 1
	case negativeReaction:
		return -1
	default:
		return 0
	}
}

// handleMention answers a mention with the menu of what docsbot can do, in the thread of the mention
func (b *Bot) handleMention(ctx context.Context, log SLogger, ev slackevents.EventsAPIInnerEvent) (err error) {
	mention, ok := ev.Data.(*slackevents.AppMentionEvent)
	if !ok {
		return fmt.Errorf("unexpected data [%T] for event [%s]", ev.Data, ev.Type)
	}

	log.Debugf("Sending menu to [%s] in response to mention [%s]", mention.User, mention.TimeStamp)

	_, err = b.sendAnswer(ctx, SendContext{ChannelID: mention.Channel, ThreadTimestamp: mention.TimeStamp},
		&Answer{Text: initMenuFallbackText, ContentBlocks: actions.InitBlocks(mention.User)})

	return stepError(StepSendMenu, err)
}

// handleDocsbot answers the question of the message that started the conversation. The intro
// message is sent first when the conversation has no history. The answer gets reactions for users
// to give feedback with and is recorded as a question answer of the conversation
func (b *Bot) handleDocsbot(ctx context.Context, log SLogger, cb *slack.InteractionCallback) (err error) {
	initial, err := b.resolveInitialMessage(ctx, cb)
	if err != nil {
		return stepError(StepResolveMessage, err)
	}

	threadID := actions.ThreadID(initial)
	sc := SendContext{ChannelID: cb.Channel.ID, ThreadTimestamp: threadID}

	log.Printf("Answering question from [%s] in thread [%s]", initial.User, threadID)

	history, err := b.api.GetChatHistory(ctx, b.profile.Application, threadID)
	if err != nil {
		return stepError(StepFetchHistory, err)
	}

	if len(history) == 0 && b.profile.IntroMessage != "" {
		intro := chat.PartialFormat(b.profile.IntroMessage, map[string]string{userVar: initial.User})
		if _, err = b.sendText(ctx, sc, intro); err != nil {
			return stepError(StepSendIntro, err)
		}
	}

	resp, err := b.api.Query(ctx, apiclient.QueryRequest{
		Question:    initial.Text,
		ChatHistory: history,
		Language:    b.profile.Language,
		Application: b.profile.Application,
	})
	if err != nil {
		return stepError(StepQuery, err)
	}

	answer := &Answer{Text: formatter.FormatResponse(b.formatting, resp, b.profile.OutroMessage)}
	if b.profile.BroadcastAnswers {
		answer.Options = append(answer.Options, AnswerWithBroadcast())
	}

	answerTimestamp, err := b.sendAnswer(ctx, sc, answer)
	if err != nil {
		return stepError(StepSendAnswer, err)
	}

	answerRef := slack.NewRefToMessage(cb.Channel.ID, answerTimestamp)
	for _, emoji := range []string{thumbsUpEmoji, thumbsDownEmoji} {
		if err = b.emojiReactor.AddReactionContext(ctx, emoji, answerRef); err != nil {
			return stepError(StepAddReactions, err)
		}
	}

	err = b.api.CreateQuestionAnswer(ctx, apiclient.QuestionAnswerCreate{
		ThreadID:         threadID,
		QuestionAnswerID: answerTimestamp,
		Language:         b.profile.Language,
		QueryResponse:    *resp,
	})

	return stepError(StepPersistRecord, err)
}

// handleAdCopyMenu sends the menu of ad copy variants in the conversation thread
func (b *Bot) handleAdCopyMenu(ctx context.Context, log SLogger, cb *slack.InteractionCallback) (err error) {
	initial, err := b.resolveInitialMessage(ctx, cb)
	if err != nil {
		return stepError(StepResolveMessage, err)
	}

	_, err = b.sendAnswer(ctx, SendContext{ChannelID: cb.Channel.ID, ThreadTimestamp: actions.ThreadID(initial)},
		&Answer{Text: adCopyMenuFallbackText, ContentBlocks: actions.AdCopyBlocks()})

	return stepError(StepSendMenu, err)
}

// handleAdCopy returns a handler generating ad copies for the message that started the conversation
// with a fixed action and persona
func (b *Bot) handleAdCopy(action string, persona string) actionHandler {
	return func(ctx context.Context, log SLogger, cb *slack.InteractionCallback) (err error) {
		initial, err := b.resolveInitialMessage(ctx, cb)
		if err != nil {
			return stepError(StepResolveMessage, err)
		}

		log.Printf("Generating [%s] ad copies for [%s] personas", action, persona)

		resp, err := b.api.GenerateAds(ctx, apiclient.AdCopyRequest{
			Query:   initial.Text,
			Action:  action,
			Persona: persona,
		})
		if err != nil {
			return stepError(StepGenerateAds, err)
		}

		_, err = b.sendText(ctx, SendContext{ChannelID: cb.Channel.ID, ThreadTimestamp: actions.ThreadID(initial)}, resp.AdCopies)

		return stepError(StepSendAdCopy, err)
	}
}

// handleReactionAdded records a reaction to a message of a thread as feedback on that message. Reactions
// to messages outside of threads and reactions added by docsbot itself are ignored
func (b *Bot) handleReactionAdded(ctx context.Context, log SLogger, ev slackevents.EventsAPIInnerEvent) (err error) {
	reaction, ok := ev.Data.(*slackevents.ReactionAddedEvent)
	if !ok {
		return fmt.Errorf("unexpected data [%T] for event [%s]", ev.Data, ev.Type)
	}

	if reaction.User != "" && reaction.User == b.selfID {
		log.Debugf("Ignoring reaction [%s] from user [%s] because that's \"us\"", reaction.Reaction, reaction.User)
		return nil
	}

	msgs, _, _, err := b.chatDriver.GetConversationRepliesContext(ctx, &slack.GetConversationRepliesParameters{
		ChannelID: reaction.Item.Channel,
		Timestamp: reaction.Item.Timestamp,
		Inclusive: true,
		Limit:     1,
	})
	if err != nil {
		return stepError(StepLookupThread, err)
	}

	if len(msgs) == 0 || msgs[0].ThreadTimestamp == "" {
		log.Debugf("Ignoring reaction [%s] to message [%s] outside of a thread", reaction.Reaction, reaction.Item.Timestamp)
		return nil
	}

	rating := ParseReaction(reaction.Reaction)
	err = b.api.CreateFeedback(ctx, apiclient.FeedbackCreate{
		FeedbackID:       reaction.EventTimestamp,
		QuestionAnswerID: reaction.Item.Timestamp,
		Rating:           rating,
	})
	if err != nil {
		return stepError(StepSubmitFeedback, err)
	}

	log.Debugf("Recorded rating [%d] for answer [%s]", rating, reaction.Item.Timestamp)
	b.recordFeedback(ctx, rating)

	return nil
}

// resolveInitialMessage returns the message that started the conversation an interaction happened in
func (b *Bot) resolveInitialMessage(ctx context.Context, cb *slack.InteractionCallback) (initial slack.Msg, err error) {
	threadTimestamp := cb.Message.ThreadTimestamp
	if threadTimestamp == "" {
		return cb.Message.Msg, nil
	}

	msgs, _, _, err := b.chatDriver.GetConversationRepliesContext(ctx, &slack.GetConversationRepliesParameters{
		ChannelID: cb.Channel.ID,
		Timestamp: threadTimestamp,
		Inclusive: true,
		Limit:     1,
	})
	if err != nil {
		return initial, err
	}

	if len(msgs) == 0 {
		return initial, errors.Errorf("no message found for thread [%s] of channel [%s]", threadTimestamp, cb.Channel.ID)
	}

	return msgs[0].Msg, nil
}
