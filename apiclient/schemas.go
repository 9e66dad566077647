package apiclient

import (
	"time"
)

// QuestionAnswer is a question and its answer, as kept in the history of a chat thread
type QuestionAnswer struct {
	QuestionAnswerID string `json:"question_answer_id,omitempty"`
	ThreadID         string `json:"thread_id,omitempty"`
	Question         string `json:"question"`
	Answer           string `json:"answer"`
}

// ChatThread is the history of a conversation thread for an application
type ChatThread struct {
	ThreadID        string           `json:"thread_id"`
	Application     string           `json:"application"`
	QuestionAnswers []QuestionAnswer `json:"question_answers"`
}

// QueryRequest is a question sent to the api along with its conversation history
type QueryRequest struct {
	Question    string           `json:"question"`
	ChatHistory []QuestionAnswer `json:"chat_history"`
	Language    string           `json:"language"`
	Application string           `json:"application"`
}

// QueryResponse is the structured answer to a QueryRequest
type QueryResponse struct {
	Question         string    `json:"question"`
	Answer           string    `json:"answer"`
	Sources          string    `json:"sources"`
	SourceDocuments  string    `json:"source_documents"`
	SystemPrompt     string    `json:"system_prompt"`
	Model            string    `json:"model"`
	TotalTokens      int       `json:"total_tokens"`
	PromptTokens     int       `json:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens"`
	TimeTaken        float64   `json:"time_taken"`
	StartTime        time.Time `json:"start_time"`
	EndTime          time.Time `json:"end_time"`
	Application      string    `json:"application,omitempty"`
}

// QuestionAnswerCreate is the record persisted for an answer sent to a conversation. All fields
// of the QueryResponse are flattened into the record
type QuestionAnswerCreate struct {
	ThreadID         string `json:"thread_id"`
	QuestionAnswerID string `json:"question_answer_id"`
	Language         string `json:"language"`
	QueryResponse
}

// AdCopyRequest asks for ad copies generated from a query for a given action and persona
type AdCopyRequest struct {
	Query   string `json:"query"`
	Action  string `json:"action"`
	Persona string `json:"persona"`
}

// AdCopyResponse holds generated ad copies
type AdCopyResponse struct {
	AdCopies string `json:"ad_copies"`
}

// FeedbackCreate is a rating given to a question answer
type FeedbackCreate struct {
	FeedbackID       string `json:"feedback_id"`
	QuestionAnswerID string `json:"question_answer_id"`
	Rating           int    `json:"rating"`
}
