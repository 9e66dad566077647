package actions_test

import (
	"testing"

	"github.com/docsbot-dev/docsbot/actions"
	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buttonActionIDs(t *testing.T, b slack.Block) (ids []string) {
	ab, ok := b.(*slack.ActionBlock)
	require.True(t, ok, "expected an action block but got [%T]", b)

	ids = make([]string, 0)
	for _, e := range ab.Elements.ElementSet {
		button, ok := e.(*slack.ButtonBlockElement)
		require.True(t, ok)

		ids = append(ids, button.ActionID)
	}

	return ids
}

func sectionText(t *testing.T, b slack.Block) string {
	sb, ok := b.(*slack.SectionBlock)
	require.True(t, ok, "expected a section block but got [%T]", b)

	return sb.Text.Text
}

func TestEmptyMenu(t *testing.T) {
	assert.Empty(t, actions.NewMenu().Build())
}

func TestMenuWithTextOnly(t *testing.T) {
	blocks := actions.NewMenu().WithText("hello").Build()

	require.Len(t, blocks, 1)
	assert.Equal(t, "hello", sectionText(t, blocks[0]))
}

func TestMenuWithButtons(t *testing.T) {
	blocks := actions.NewMenu().
		WithBlockID("menu").
		WithTextf("Hi %s", "there").
		WithPrimaryButton("a", "A").
		WithButton("b", "B").
		Build()

	require.Len(t, blocks, 2)
	assert.Equal(t, "Hi there", sectionText(t, blocks[0]))
	assert.Equal(t, []string{"a", "b"}, buttonActionIDs(t, blocks[1]))

	ab := blocks[1].(*slack.ActionBlock)
	assert.Equal(t, "menu", ab.BlockID)

	primary := ab.Elements.ElementSet[0].(*slack.ButtonBlockElement)
	assert.Equal(t, slack.StylePrimary, primary.Style)
	assert.Equal(t, "A", primary.Text.Text)
	assert.Equal(t, "a", primary.Value)
}

func TestInitBlocks(t *testing.T) {
	blocks := actions.InitBlocks("U1")

	require.Len(t, blocks, 2)
	assert.Contains(t, sectionText(t, blocks[0]), "<@U1>")
	assert.Equal(t, []string{actions.DocsbotActionID, actions.AdCopyActionID}, buttonActionIDs(t, blocks[1]))
}

func TestAdCopyBlocks(t *testing.T) {
	blocks := actions.AdCopyBlocks()

	require.Len(t, blocks, 2)

	ids := buttonActionIDs(t, blocks[1])
	assert.Equal(t, []string{actions.ExecutiveAwarenessActionID, actions.ExecutiveSignupsActionID, actions.TechnicalAwarenessActionID, actions.TechnicalSignupsActionID}, ids)

	for _, id := range ids {
		assert.Contains(t, actions.AdCopyVariants, id)
	}
}

func TestAdCopyVariants(t *testing.T) {
	assert.Equal(t, actions.AdCopyVariant{Action: "awareness", Persona: "executive"}, actions.AdCopyVariants["executive_awareness"])
	assert.Equal(t, actions.AdCopyVariant{Action: "signups", Persona: "executive"}, actions.AdCopyVariants["executive_signups"])
	assert.Equal(t, actions.AdCopyVariant{Action: "awareness", Persona: "technical"}, actions.AdCopyVariants["technical_awareness"])
	assert.Equal(t, actions.AdCopyVariant{Action: "signups", Persona: "technical"}, actions.AdCopyVariants["technical_signups"])
}

func TestThreadID(t *testing.T) {
	tests := map[string]struct {
		msg      slack.Msg
		expected string
	}{
		"InThread":     {msg: slack.Msg{Timestamp: "T2", ThreadTimestamp: "T1"}, expected: "T1"},
		"ThreadParent": {msg: slack.Msg{Timestamp: "T1", ThreadTimestamp: "T1"}, expected: "T1"},
		"NotInThread":  {msg: slack.Msg{Timestamp: "T2"}, expected: "T2"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.expected, actions.ThreadID(tc.msg))
		})
	}
}
