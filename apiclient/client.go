// Package apiclient provides a client for the question-answering api used by docsbot
// to answer questions, keep track of conversation threads and record feedback
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	chatThreadPath     = "/chat_thread"
	queryPath          = "/query"
	questionAnswerPath = "/question_answer"
	generateAdsPath    = "/generate_ads"
	feedbackPath       = "/feedback"

	defaultTimeout = 30 * time.Second
)

// APIError is returned when the api responds with an unexpected status
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

// Error returns a description of the failed call
func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s failed with status [%d]: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// Client is the api client. It is safe for concurrent use
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

// Option defines an option for a Client
type Option func(c *Client)

// OptionHTTPClient sets the http client used to make requests
func OptionHTTPClient(hc *http.Client) func(c *Client) {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// OptionTimeout sets the timeout of the default http client
func OptionTimeout(timeout time.Duration) func(c *Client) {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// New creates a new Client for the api at baseURL. By default, requests are made with
// an http client instrumented with open telemetry
func New(baseURL string, options ...Option) (c *Client, err error) {
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, errors.Wrapf(err, "invalid api url [%s]", baseURL)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid api url [%s]: scheme must be http or https", baseURL)
	}

	c = new(Client)
	c.baseURL = u
	c.httpClient = &http.Client{Timeout: defaultTimeout, Transport: otelhttp.NewTransport(http.DefaultTransport)}

	for _, opt := range options {
		opt(c)
	}

	return c, nil
}

// GetChatHistory returns the question answers of a thread. A thread unknown to the api
// has an empty history
func (c *Client) GetChatHistory(ctx context.Context, application string, threadID string) (history []QuestionAnswer, err error) {
	var thread ChatThread

	path := fmt.Sprintf("%s/%s/%s", chatThreadPath, url.PathEscape(application), url.PathEscape(threadID))
	err = c.do(ctx, http.MethodGet, path, nil, &thread)

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		return []QuestionAnswer{}, nil
	}

	if err != nil {
		return nil, err
	}

	if thread.QuestionAnswers == nil {
		return []QuestionAnswer{}, nil
	}

	return thread.QuestionAnswers, nil
}

// Query sends a question to the api and returns its answer
func (c *Client) Query(ctx context.Context, req QueryRequest) (resp *QueryResponse, err error) {
	if req.ChatHistory == nil {
		req.ChatHistory = []QuestionAnswer{}
	}

	resp = new(QueryResponse)
	if err = c.do(ctx, http.MethodPost, queryPath, req, resp); err != nil {
		return nil, err
	}

	return resp, nil
}

// CreateQuestionAnswer persists a question answer record
func (c *Client) CreateQuestionAnswer(ctx context.Context, qa QuestionAnswerCreate) (err error) {
	return c.do(ctx, http.MethodPost, questionAnswerPath, qa, nil)
}

// GenerateAds generates ad copies for a query, action and persona
func (c *Client) GenerateAds(ctx context.Context, req AdCopyRequest) (resp *AdCopyResponse, err error) {
	resp = new(AdCopyResponse)
	if err = c.do(ctx, http.MethodPost, generateAdsPath, req, resp); err != nil {
		return nil, err
	}

	return resp, nil
}

// CreateFeedback persists a feedback record
func (c *Client) CreateFeedback(ctx context.Context, fb FeedbackCreate) (err error) {
	return c.do(ctx, http.MethodPost, feedbackPath, fb, nil)
}

// do sends a request with an optional json body and decodes the json response into out, if not nil
func (c *Client) do(ctx context.Context, method string, path string, in interface{}, out interface{}) (err error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return errors.Wrapf(err, "failed to encode request to [%s]", path)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, body)
	if err != nil {
		return errors.Wrapf(err, "failed to create request to [%s]", path)
	}

	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s failed", method, path)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &APIError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	if out == nil {
		return nil
	}

	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "failed to decode response from [%s]", path)
	}

	return nil
}
