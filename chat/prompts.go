// Package chat loads the chat prompts of the answering pipeline and runs
// the retrieval augmented generation used to answer documentation questions
package chat

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Role is the role of a chat message author
type Role string

const (
	// RoleSystem is the role of system instructions
	RoleSystem Role = "system"
	// RoleUser is the role of the user asking questions
	RoleUser Role = "user"
	// RoleAssistant is the role of the answering assistant
	RoleAssistant Role = "assistant"
)

// Template variables filled in at load time
const (
	LanguageCodeVar = "language_code"
	QueryIntentVar  = "query_intent"
)

// roleMap maps the role names used in prompt files to chat roles
var roleMap = map[string]Role{
	"system":    RoleSystem,
	"human":     RoleUser,
	"assistant": RoleAssistant,
}

// ChatMessage is a single message of a chat prompt
type ChatMessage struct {
	Role    Role
	Content string
}

// ChatPrompt is an ordered list of chat messages. Contents may still hold placeholders
// that are filled in by FormatMessages
type ChatPrompt struct {
	Messages []ChatMessage
}

// LoadChatPrompt loads a chat prompt from a file holding an object with a "messages" list. Each
// element of the list maps role names (system, human, assistant) to their content, in order. The last
// element must have a "human" template which is partially formatted with the language code
// and query intent. JSON and YAML files are both supported
func LoadChatPrompt(path string, languageCode string, queryIntent string) (p *ChatPrompt, err error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read chat prompt [%s]", path)
	}

	p, err = parseChatPrompt(content, map[string]string{LanguageCodeVar: languageCode, QueryIntentVar: queryIntent})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load chat prompt [%s]", path)
	}

	return p, nil
}

// parseChatPrompt walks the yaml node tree rather than decoding into maps so that the
// order of role keys within a message is preserved
func parseChatPrompt(content []byte, humanValues map[string]string) (p *ChatPrompt, err error) {
	var doc yaml.Node
	if err = yaml.Unmarshal(content, &doc); err != nil {
		return nil, err
	}

	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, errors.New("prompt must be an object")
	}

	messages := mappingValue(doc.Content[0], "messages")
	if messages == nil || messages.Kind != yaml.SequenceNode || len(messages.Content) == 0 {
		return nil, errors.New("prompt must have a non-empty \"messages\" list")
	}

	p = &ChatPrompt{Messages: make([]ChatMessage, 0, len(messages.Content))}

	for _, m := range messages.Content[:len(messages.Content)-1] {
		if m.Kind != yaml.MappingNode {
			return nil, errors.Errorf("message at line %d must be an object", m.Line)
		}

		for i := 0; i+1 < len(m.Content); i += 2 {
			roleName := m.Content[i].Value
			role, ok := roleMap[roleName]
			if !ok {
				return nil, errors.Errorf("unknown role [%s] at line %d", roleName, m.Content[i].Line)
			}

			p.Messages = append(p.Messages, ChatMessage{Role: role, Content: m.Content[i+1].Value})
		}
	}

	last := messages.Content[len(messages.Content)-1]
	human := mappingValue(last, "human")
	if human == nil {
		return nil, errors.New("last message must have a \"human\" template")
	}

	p.Messages = append(p.Messages, ChatMessage{Role: RoleUser, Content: PartialFormat(human.Value, humanValues)})

	return p, nil
}

// mappingValue returns the value node for key in a mapping node or nil if absent
func mappingValue(n *yaml.Node, key string) *yaml.Node {
	if n.Kind != yaml.MappingNode {
		return nil
	}

	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i+1]
		}
	}

	return nil
}

// Placeholders returns the placeholder names still present in the prompt messages
func (p *ChatPrompt) Placeholders() (names []string) {
	seen := make(map[string]bool)
	names = make([]string, 0)

	for _, m := range p.Messages {
		for _, n := range Placeholders(m.Content) {
			if !seen[n] {
				seen[n] = true
				names = append(names, n)
			}
		}
	}

	return names
}

// FormatMessages returns the prompt messages with all placeholders substituted. An error is
// returned if any placeholder doesn't have a value
func (p *ChatPrompt) FormatMessages(values map[string]string) (messages []ChatMessage, err error) {
	messages = make([]ChatMessage, 0, len(p.Messages))

	for i, m := range p.Messages {
		content, err := Format(m.Content, values)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to format message %d", i)
		}

		messages = append(messages, ChatMessage{Role: m.Role, Content: content})
	}

	return messages, nil
}
