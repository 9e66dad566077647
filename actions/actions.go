/*
Package actions provides the interactive menus docsbot sends to slack along with a fluent API
to build them and helpers to resolve the conversation thread of an interaction.

A menu is a section of text followed by a row of buttons, each identified by the action id that
slack sends back when it is clicked:

	import (
		"github.com/docsbot-dev/docsbot/actions"
	)

	blocks := actions.NewMenu().
		WithTextf("Hi <@%s>, what can I do for you?", user).
		WithPrimaryButton(actions.DocsbotActionID, "Ask docsbot").
		WithButton(actions.AdCopyActionID, "Write ad copy").
		Build()
*/
package actions

import (
	"fmt"

	"github.com/slack-go/slack"
)

// Action ids of the interactive elements docsbot handles
const (
	DocsbotActionID            = "docsbot"
	AdCopyActionID             = "adcopy"
	ExecutiveAwarenessActionID = "executive_awareness"
	ExecutiveSignupsActionID   = "executive_signups"
	TechnicalAwarenessActionID = "technical_awareness"
	TechnicalSignupsActionID   = "technical_signups"
)

const (
	initMenuBlockID   = "docsbot_init"
	adCopyMenuBlockID = "docsbot_adcopy"
)

// AdCopyVariant is the goal and audience ad copies are generated for
type AdCopyVariant struct {
	Action  string
	Persona string
}

// AdCopyVariants maps ad copy action ids to the variant they generate
var AdCopyVariants = map[string]AdCopyVariant{
	ExecutiveAwarenessActionID: {Action: "awareness", Persona: "executive"},
	ExecutiveSignupsActionID:   {Action: "signups", Persona: "executive"},
	TechnicalAwarenessActionID: {Action: "awareness", Persona: "technical"},
	TechnicalSignupsActionID:   {Action: "signups", Persona: "technical"},
}

// adCopyButtons lists the ad copy buttons in display order
var adCopyButtons = []struct {
	actionID string
	label    string
}{
	{ExecutiveAwarenessActionID, "Executive awareness"},
	{ExecutiveSignupsActionID, "Executive signups"},
	{TechnicalAwarenessActionID, "Technical awareness"},
	{TechnicalSignupsActionID, "Technical signups"},
}

// MenuBuilder holds the menu to build
type MenuBuilder struct {
	blockID string
	text    string
	buttons []slack.BlockElement
}

// NewMenu returns a new MenuBuilder
func NewMenu() (mb *MenuBuilder) {
	mb = new(MenuBuilder)
	mb.buttons = make([]slack.BlockElement, 0)

	return mb
}

// WithBlockID sets the block id of the menu buttons
func (mb *MenuBuilder) WithBlockID(blockID string) *MenuBuilder {
	mb.blockID = blockID
	return mb
}

// WithText sets the mrkdwn text shown above the buttons
func (mb *MenuBuilder) WithText(text string) *MenuBuilder {
	mb.text = text
	return mb
}

// WithTextf sets the menu text delegating format and arguments to fmt.Sprintf
func (mb *MenuBuilder) WithTextf(format string, a ...interface{}) *MenuBuilder {
	mb.text = fmt.Sprintf(format, a...)
	return mb
}

// WithButton adds a button sending actionID when clicked
func (mb *MenuBuilder) WithButton(actionID string, label string) *MenuBuilder {
	mb.buttons = append(mb.buttons, newButton(actionID, label))
	return mb
}

// WithPrimaryButton adds a button styled as the primary choice
func (mb *MenuBuilder) WithPrimaryButton(actionID string, label string) *MenuBuilder {
	mb.buttons = append(mb.buttons, newButton(actionID, label).WithStyle(slack.StylePrimary))
	return mb
}

// Build returns the menu blocks. The text section is omitted when empty and so is the
// action block when there are no buttons
func (mb *MenuBuilder) Build() (blocks []slack.Block) {
	blocks = make([]slack.Block, 0, 2)

	if mb.text != "" {
		blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, mb.text, false, false), nil, nil))
	}

	if len(mb.buttons) > 0 {
		blocks = append(blocks, slack.NewActionBlock(mb.blockID, mb.buttons...))
	}

	return blocks
}

// newButton creates a button whose value is its action id
func newButton(actionID string, label string) *slack.ButtonBlockElement {
	return slack.NewButtonBlockElement(actionID, actionID, slack.NewTextBlockObject(slack.PlainTextType, label, false, false))
}

// InitBlocks returns the menu greeting a user who mentioned docsbot
func InitBlocks(user string) []slack.Block {
	return NewMenu().
		WithBlockID(initMenuBlockID).
		WithTextf("Hi <@%s>, what can I do for you?", user).
		WithPrimaryButton(DocsbotActionID, "Ask docsbot").
		WithButton(AdCopyActionID, "Write ad copy").
		Build()
}

// AdCopyBlocks returns the menu of ad copy variants
func AdCopyBlocks() []slack.Block {
	mb := NewMenu().
		WithBlockID(adCopyMenuBlockID).
		WithText("Who is the ad copy for and what should it achieve?")

	for _, b := range adCopyButtons {
		mb.WithButton(b.actionID, b.label)
	}

	return mb.Build()
}

// ThreadID returns the id of the conversation thread a message belongs to: its thread
// timestamp when in a thread or its own timestamp otherwise
func ThreadID(msg slack.Msg) string {
	if msg.ThreadTimestamp != "" {
		return msg.ThreadTimestamp
	}

	return msg.Timestamp
}
