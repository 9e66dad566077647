package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/docsbot-dev/docsbot/apiclient"
	"github.com/docsbot-dev/docsbot/index"
	"github.com/pkg/errors"
)

// Template variables filled in when answering a question
const (
	ContextVar = "context_str"
	QueryVar   = "query_str"
)

const (
	sourceMetadataKey = "source"
	documentSeparator = "\n---\n"
)

// Retriever is implemented by any value that has the Retrieve method.
//
// index.VectorStoreIndex implements this interface
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) (nodes []index.NodeWithScore, err error)
}

// Pipeline answers questions by retrieving the documents closest to the question and
// asking the language model to answer from them
type Pipeline struct {
	prompt    *ChatPrompt
	retriever Retriever
	llm       index.LLM
	language  string
	topK      int
}

// NewPipeline returns a pipeline answering in language with the topK documents found by retriever
func NewPipeline(prompt *ChatPrompt, retriever Retriever, llm index.LLM, language string, topK int) (p *Pipeline) {
	return &Pipeline{prompt: prompt, retriever: retriever, llm: llm, language: language, topK: topK}
}

// Answer answers question. The history of the conversation is sent to the model ahead of the question. The
// response has the same shape as the one of the question-answering api
func (p *Pipeline) Answer(ctx context.Context, question string, history []apiclient.QuestionAnswer) (resp *apiclient.QueryResponse, err error) {
	timer := index.NewTimer()

	nodes, err := p.retriever.Retrieve(ctx, question, p.topK)
	if err != nil {
		return nil, errors.Wrap(err, "failed to retrieve documents")
	}

	documents := formatDocuments(nodes)

	messages, err := p.prompt.FormatMessages(map[string]string{LanguageCodeVar: p.language, ContextVar: documents, QueryVar: question})
	if err != nil {
		return nil, err
	}

	completion, err := p.llm.Complete(ctx, toLLMMessages(messages, history))
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate answer")
	}

	timer.Stop()

	return &apiclient.QueryResponse{
		Question:         question,
		Answer:           completion.Text,
		Sources:          strings.Join(sources(nodes), "\n"),
		SourceDocuments:  documents,
		SystemPrompt:     systemPrompt(messages),
		Model:            completion.Model,
		TotalTokens:      completion.TotalTokens,
		PromptTokens:     completion.PromptTokens,
		CompletionTokens: completion.CompletionTokens,
		TimeTaken:        timer.Elapsed().Seconds(),
		StartTime:        timer.Start(),
		EndTime:          timer.End(),
	}, nil
}

// formatDocuments renders retrieved nodes as the context of the question, each preceded by its source
func formatDocuments(nodes []index.NodeWithScore) string {
	docs := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if source, ok := n.Metadata[sourceMetadataKey]; ok {
			docs = append(docs, fmt.Sprintf("source: %s\n%s", source, n.Text))
		} else {
			docs = append(docs, n.Text)
		}
	}

	return strings.Join(docs, documentSeparator)
}

// sources returns the distinct sources of nodes, in retrieval order
func sources(nodes []index.NodeWithScore) (srcs []string) {
	seen := make(map[string]bool)
	srcs = make([]string, 0, len(nodes))

	for _, n := range nodes {
		source, ok := n.Metadata[sourceMetadataKey]
		if ok && !seen[source] {
			seen[source] = true
			srcs = append(srcs, source)
		}
	}

	return srcs
}

// toLLMMessages converts the prompt messages and inserts the conversation history right before
// the question, which is the last message
func toLLMMessages(messages []ChatMessage, history []apiclient.QuestionAnswer) (converted []index.Message) {
	converted = make([]index.Message, 0, len(messages)+2*len(history))

	for _, m := range messages[:len(messages)-1] {
		converted = append(converted, index.Message{Role: string(m.Role), Content: m.Content})
	}

	for _, qa := range history {
		converted = append(converted, index.Message{Role: index.RoleUser, Content: qa.Question})
		converted = append(converted, index.Message{Role: index.RoleAssistant, Content: qa.Answer})
	}

	last := messages[len(messages)-1]

	return append(converted, index.Message{Role: string(last.Role), Content: last.Content})
}

func systemPrompt(messages []ChatMessage) string {
	for _, m := range messages {
		if m.Role == RoleSystem {
			return m.Content
		}
	}

	return ""
}
