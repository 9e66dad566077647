package chat_test

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"testing"

	"github.com/docsbot-dev/docsbot/chat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartialFormat(t *testing.T) {
	tests := map[string]struct {
		template string
		values   map[string]string
		expected string
	}{
		"AllPlaceholdersResolved": {
			template: "Answer in {language_code} for a {query_intent} question",
			values:   map[string]string{"language_code": "en", "query_intent": "how-to"},
			expected: "Answer in en for a how-to question",
		},
		"UnresolvedPlaceholderKept": {
			template: "Context: {context_str}\nLanguage: {language_code}",
			values:   map[string]string{"language_code": "ja"},
			expected: "Context: {context_str}\nLanguage: ja",
		},
		"NoValues": {
			template: "Hello {user}",
			values:   map[string]string{},
			expected: "Hello {user}",
		},
		"LiteralBracesPreserved": {
			template: `Reply with JSON like {"answer": "..."} in {language_code}`,
			values:   map[string]string{"language_code": "en"},
			expected: `Reply with JSON like {"answer": "..."} in en`,
		},
		"EscapedBracesPreserved": {
			template: "Use {{code}} blocks in {language_code}",
			values:   map[string]string{"language_code": "en", "code": "ignored"},
			expected: "Use {{code}} blocks in en",
		},
		"EscapedPlaceholderCollidingWithRealOne": {
			template: "{{user}} is not {user}",
			values:   map[string]string{"user": "U1"},
			expected: "{{user}} is not U1",
		},
		"LoneBraces": {
			template: "a { b } c {user}",
			values:   map[string]string{"user": "U1"},
			expected: "a { b } c U1",
		},
		"UnclosedBrace": {
			template: "{user} opens { but never closes",
			values:   map[string]string{"user": "U1"},
			expected: "U1 opens { but never closes",
		},
		"FormatSpecLeftUntouched": {
			template: "{count:>5} items for {user}",
			values:   map[string]string{"count": "3", "user": "U1"},
			expected: "{count:>5} items for U1",
		},
		"AnonymousFieldLeftUntouched": {
			template: "{} and {user}",
			values:   map[string]string{"user": "U1"},
			expected: "{} and U1",
		},
		"RepeatedPlaceholder": {
			template: "<@{user}> hi <@{user}>",
			values:   map[string]string{"user": "U1"},
			expected: "<@U1> hi <@U1>",
		},
		"ValueWithBraces": {
			template: "{a}-{b}",
			values:   map[string]string{"a": "{b}"},
			expected: "{b}-{b}",
		},
		"Empty": {
			template: "",
			values:   map[string]string{"a": "b"},
			expected: "",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.expected, chat.PartialFormat(tc.template, tc.values))
		})
	}
}

func TestPartialFormatKeepsUnresolvedPlaceholders(t *testing.T) {
	tmpl := "{system}: {{literal}} {context_str} {query_str} {language_code} }{"

	formatted := chat.PartialFormat(tmpl, map[string]string{"language_code": "en", "system": "sys"})

	assert.Equal(t, []string{"context_str", "query_str"}, chat.Placeholders(formatted))
	assert.Equal(t, "sys: {{literal}} {context_str} {query_str} en }{", formatted)
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, chat.Placeholders("{c} {a} {b} {a} {{d}} {b!r} {}"))
	assert.Empty(t, chat.Placeholders("no placeholders { here"))
}

func TestFormat(t *testing.T) {
	formatted, err := chat.Format("{{\"q\": \"{query_str}\"}}", map[string]string{"query_str": "why"})

	require.NoError(t, err)
	assert.Equal(t, "{\"q\": \"why\"}", formatted)
}

func TestFormatWithMissingValue(t *testing.T) {
	_, err := chat.Format("{context_str} {query_str}", map[string]string{"query_str": "why"})

	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "missing value for placeholder [context_str]")
	}
}

// generatedTemplate is a template assembled from random pieces along with what formatting
// it is expected to give
type generatedTemplate struct {
	template   string
	partial    string
	full       string
	unresolved []string
}

func generateTemplate(r *rand.Rand, names []string, values map[string]string) (gt generatedTemplate) {
	var tmpl, partial, full strings.Builder
	unresolved := make(map[string]bool)

	for i := 0; i < 1+r.Intn(12); i++ {
		switch r.Intn(4) {
		case 0:
			name := names[r.Intn(len(names))]
			placeholder := "{" + name + "}"
			tmpl.WriteString(placeholder)
			full.WriteString("=" + name + "=")

			if v, ok := values[name]; ok {
				partial.WriteString(v)
			} else {
				partial.WriteString(placeholder)
				unresolved[name] = true
			}
		case 1:
			tmpl.WriteString("{{")
			partial.WriteString("{{")
			full.WriteString("{")
		case 2:
			tmpl.WriteString("}}")
			partial.WriteString("}}")
			full.WriteString("}")
		default:
			word := fmt.Sprintf(" w%d: ", r.Intn(100))
			tmpl.WriteString(word)
			partial.WriteString(word)
			full.WriteString(word)
		}
	}

	gt = generatedTemplate{template: tmpl.String(), partial: partial.String(), full: full.String(), unresolved: make([]string, 0)}
	for name := range unresolved {
		gt.unresolved = append(gt.unresolved, name)
	}
	sort.Strings(gt.unresolved)

	return gt
}

func TestFormattingGeneratedTemplates(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	names := []string{"context_str", "query_str", "language_code", "query_intent", "user"}

	for i := 0; i < 500; i++ {
		values := make(map[string]string)
		all := make(map[string]string)
		for _, name := range names {
			all[name] = "=" + name + "="
			if r.Intn(2) == 0 {
				values[name] = "=" + name + "="
			}
		}

		gt := generateTemplate(r, names, values)

		partial := chat.PartialFormat(gt.template, values)
		require.Equal(t, gt.partial, partial, "partial format of [%s] with %v", gt.template, values)
		require.Equal(t, gt.unresolved, chat.Placeholders(partial), "placeholders left in [%s]", partial)

		full, err := chat.Format(gt.template, all)
		require.NoError(t, err)
		require.Equal(t, gt.full, full, "format of [%s]", gt.template)

		// Formatting what partial formatting left gives the same result as formatting all at once
		full, err = chat.Format(partial, all)
		require.NoError(t, err)
		require.Equal(t, gt.full, full, "format of partially formatted [%s]", partial)
	}
}
