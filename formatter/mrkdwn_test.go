package formatter_test

import (
	"testing"

	"github.com/docsbot-dev/docsbot/formatter"
	"github.com/stretchr/testify/assert"
)

func TestToMrkdwn(t *testing.T) {
	tests := map[string]struct {
		markdown string
		expected string
	}{
		"Bold":              {markdown: "Use **wandb.init** first", expected: "Use *wandb.init* first"},
		"UnderscoreBold":    {markdown: "a __strong__ word", expected: "a *strong* word"},
		"Strike":            {markdown: "~~old~~ new", expected: "~old~ new"},
		"Link":              {markdown: "See [the docs](https://docs.wandb.ai/guides)", expected: "See <https://docs.wandb.ai/guides|the docs>"},
		"Image":             {markdown: "![chart](https://example.com/c.png)", expected: "<https://example.com/c.png|chart>"},
		"Header":            {markdown: "## Logging metrics\nbody", expected: "*Logging metrics*\nbody"},
		"ClosedHeader":      {markdown: "# Title #", expected: "*Title*"},
		"Bullets":           {markdown: "- one\n* two\n  + nested", expected: "• one\n• two\n  • nested"},
		"ItalicsUntouched":  {markdown: "an _italic_ word", expected: "an _italic_ word"},
		"InlineCodeKept":    {markdown: "call `**kwargs` then **go**", expected: "call `**kwargs` then *go*"},
		"CodeBlockKept":     {markdown: "```\n# not a header\n**x**\n```\n# Header", expected: "```\n# not a header\n**x**\n```\n*Header*"},
		"CodeBlockLanguage": {markdown: "```python\nwandb.log({\"acc\": 1})\n```", expected: "```\nwandb.log({\"acc\": 1})\n```"},
		"Mentions":          {markdown: "Hi <@U1>, see <https://x.y|x>", expected: "Hi <@U1>, see <https://x.y|x>"},
		"Empty":             {markdown: "", expected: ""},
		"NulMarker":         {markdown: "answer \x007\x00 tail", expected: "answer 7 tail"},
		"NulMarkerAndCode":  {markdown: "`x` and \x000\x00 **b**", expected: "`x` and 0 *b*"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.expected, formatter.ToMrkdwn(tc.markdown))
		})
	}
}
