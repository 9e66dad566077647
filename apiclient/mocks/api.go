// Package mocks contains a mock of the api used by docsbot handlers
package mocks

import (
	"context"

	"github.com/docsbot-dev/docsbot/apiclient"
	"github.com/stretchr/testify/mock"
)

// API holds a mock implementation of the question-answering api
type API struct {
	mock.Mock
}

// GetChatHistory mocks an implementation of GetChatHistory
func (m *API) GetChatHistory(ctx context.Context, application string, threadID string) (history []apiclient.QuestionAnswer, err error) {
	args := m.Called(ctx, application, threadID)

	if h := args.Get(0); h != nil {
		history = h.([]apiclient.QuestionAnswer)
	}

	return history, args.Error(1)
}

// Query mocks an implementation of Query
func (m *API) Query(ctx context.Context, req apiclient.QueryRequest) (resp *apiclient.QueryResponse, err error) {
	args := m.Called(ctx, req)

	if r := args.Get(0); r != nil {
		resp = r.(*apiclient.QueryResponse)
	}

	return resp, args.Error(1)
}

// CreateQuestionAnswer mocks an implementation of CreateQuestionAnswer
func (m *API) CreateQuestionAnswer(ctx context.Context, qa apiclient.QuestionAnswerCreate) (err error) {
	args := m.Called(ctx, qa)

	return args.Error(0)
}

// GenerateAds mocks an implementation of GenerateAds
func (m *API) GenerateAds(ctx context.Context, req apiclient.AdCopyRequest) (resp *apiclient.AdCopyResponse, err error) {
	args := m.Called(ctx, req)

	if r := args.Get(0); r != nil {
		resp = r.(*apiclient.AdCopyResponse)
	}

	return resp, args.Error(1)
}

// CreateFeedback mocks an implementation of CreateFeedback
func (m *API) CreateFeedback(ctx context.Context, fb apiclient.FeedbackCreate) (err error) {
	args := m.Called(ctx, fb)

	return args.Error(0)
}
