package chat_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/docsbot-dev/docsbot/apiclient"
	"github.com/docsbot-dev/docsbot/chat"
	"github.com/docsbot-dev/docsbot/index"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type retrieverMock struct {
	mock.Mock
}

func (rm *retrieverMock) Retrieve(ctx context.Context, query string, topK int) (nodes []index.NodeWithScore, err error) {
	args := rm.Called(query, topK)

	if n := args.Get(0); n != nil {
		nodes = n.([]index.NodeWithScore)
	}

	return nodes, args.Error(1)
}

type llmMock struct {
	mock.Mock
}

func (lm *llmMock) Model() string {
	return "gpt-4"
}

func (lm *llmMock) Complete(ctx context.Context, messages []index.Message) (c *index.Completion, err error) {
	args := lm.Called(messages)

	if completion := args.Get(0); completion != nil {
		c = completion.(*index.Completion)
	}

	return c, args.Error(1)
}

const pipelinePrompt = `{
  "messages": [
    {"system": "Answer in {language_code}."},
    {"human": "Context:\n{context_str}\nQuestion: {query_str}"}
  ]
}`

var retrieved = []index.NodeWithScore{
	{Node: index.Node{ID: "1", Text: "wandb.log logs metrics", Metadata: map[string]string{"source": "https://docs.wandb.ai/log"}}, Score: 0.1},
	{Node: index.Node{ID: "2", Text: "log in a loop", Metadata: map[string]string{"source": "https://docs.wandb.ai/log"}}, Score: 0.2},
	{Node: index.Node{ID: "3", Text: "no source here"}, Score: 0.3},
}

func newTestPipeline(t *testing.T) (p *chat.Pipeline, rm *retrieverMock, lm *llmMock) {
	prompt, err := chat.LoadChatPrompt(writePrompt(t, "prompt.json", pipelinePrompt), "ja", "")
	require.NoError(t, err)

	rm = new(retrieverMock)
	lm = new(llmMock)

	return chat.NewPipeline(prompt, rm, lm, "ja", 3), rm, lm
}

func TestPipelineAnswer(t *testing.T) {
	p, rm, lm := newTestPipeline(t)

	documents := "source: https://docs.wandb.ai/log\nwandb.log logs metrics\n---\nsource: https://docs.wandb.ai/log\nlog in a loop\n---\nno source here"
	history := []apiclient.QuestionAnswer{{Question: "What is wandb?", Answer: "An ML platform"}}

	rm.On("Retrieve", "How do I log?", 3).Return(retrieved, nil)
	lm.On("Complete", []index.Message{
		{Role: index.RoleSystem, Content: "Answer in ja."},
		{Role: index.RoleUser, Content: "What is wandb?"},
		{Role: index.RoleAssistant, Content: "An ML platform"},
		{Role: index.RoleUser, Content: "Context:\n" + documents + "\nQuestion: How do I log?"},
	}).Return(&index.Completion{Text: "Use wandb.log", Model: "gpt-4-0613", PromptTokens: 10, CompletionTokens: 3, TotalTokens: 13}, nil)

	resp, err := p.Answer(context.Background(), "How do I log?", history)
	require.NoError(t, err)

	assert.Equal(t, "How do I log?", resp.Question)
	assert.Equal(t, "Use wandb.log", resp.Answer)
	assert.Equal(t, "https://docs.wandb.ai/log", resp.Sources)
	assert.Equal(t, documents, resp.SourceDocuments)
	assert.Equal(t, "Answer in ja.", resp.SystemPrompt)
	assert.Equal(t, "gpt-4-0613", resp.Model)
	assert.Equal(t, 13, resp.TotalTokens)
	assert.Equal(t, 10, resp.PromptTokens)
	assert.Equal(t, 3, resp.CompletionTokens)
	assert.False(t, resp.EndTime.Before(resp.StartTime))
	assert.True(t, resp.TimeTaken >= 0)

	rm.AssertExpectations(t)
	lm.AssertExpectations(t)
}

func TestPipelineAnswerWithoutDocuments(t *testing.T) {
	p, rm, lm := newTestPipeline(t)

	rm.On("Retrieve", "Hi", 3).Return([]index.NodeWithScore{}, nil)
	lm.On("Complete", mock.MatchedBy(func(messages []index.Message) bool { return len(messages) == 2 })).Return(&index.Completion{Text: "Hello", Model: "gpt-4"}, nil)

	resp, err := p.Answer(context.Background(), "Hi", nil)
	require.NoError(t, err)

	assert.Equal(t, "Hello", resp.Answer)
	assert.Empty(t, resp.Sources)
	assert.Empty(t, resp.SourceDocuments)
}

func TestPipelineAnswerFailures(t *testing.T) {
	tests := map[string]struct {
		setup         func(rm *retrieverMock, lm *llmMock)
		expectedError string
	}{
		"RetrievalFailure": {
			setup: func(rm *retrieverMock, lm *llmMock) {
				rm.On("Retrieve", mock.Anything, mock.Anything).Return(nil, fmt.Errorf("embedding quota exceeded"))
			},
			expectedError: "failed to retrieve documents: embedding quota exceeded",
		},
		"CompletionFailure": {
			setup: func(rm *retrieverMock, lm *llmMock) {
				rm.On("Retrieve", mock.Anything, mock.Anything).Return(retrieved, nil)
				lm.On("Complete", mock.Anything).Return(nil, fmt.Errorf("model overloaded"))
			},
			expectedError: "failed to generate answer: model overloaded",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			p, rm, lm := newTestPipeline(t)
			tc.setup(rm, lm)

			_, err := p.Answer(context.Background(), "How do I log?", nil)

			if assert.Error(t, err) {
				assert.Equal(t, tc.expectedError, err.Error())
			}
		})
	}
}

func TestPipelineAnswerWithUnresolvedPlaceholder(t *testing.T) {
	prompt, err := chat.LoadChatPrompt(writePrompt(t, "prompt.json", `{"messages": [{"system": "{persona}"}, {"human": "{query_str}"}]}`), "en", "")
	require.NoError(t, err)

	rm := new(retrieverMock)
	rm.On("Retrieve", "q", 1).Return([]index.NodeWithScore{}, nil)

	_, err = chat.NewPipeline(prompt, rm, new(llmMock), "en", 1).Answer(context.Background(), "q", nil)

	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "missing value for placeholder [persona]")
	}
}
