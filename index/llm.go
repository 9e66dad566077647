package index

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/cenkalti/backoff/v4"
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"
	"google.golang.org/genai"
)

// Message roles
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

const (
	geminiModelPrefix   = "gemini"
	defaultLLMCacheSize = 256
)

// Message is a message sent to a language model
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completion is the response of a language model along with its token usage
type Completion struct {
	Text             string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// LLM is implemented by any value that has the Model and Complete methods
type LLM interface {
	Model() string
	Complete(ctx context.Context, messages []Message) (c *Completion, err error)
}

// chatCompleter is implemented by any value that has the CreateChatCompletion method.
//
// openai.Client implements this interface
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (resp openai.ChatCompletionResponse, err error)
}

// OpenAILLM completes chat messages with the OpenAI chat completion api
type OpenAILLM struct {
	client      chatCompleter
	model       string
	temperature float32
}

// Model returns the model name
func (l *OpenAILLM) Model() string {
	return l.model
}

// Complete returns the completion of messages
func (l *OpenAILLM) Complete(ctx context.Context, messages []Message) (c *Completion, err error) {
	req := openai.ChatCompletionRequest{
		Model:       l.model,
		Temperature: l.temperature,
		Messages:    make([]openai.ChatCompletionMessage, 0, len(messages)),
	}

	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	resp, err := l.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, errors.Wrapf(err, "chat completion with [%s] failed", l.model)
	}

	if len(resp.Choices) == 0 {
		return nil, errors.Errorf("chat completion with [%s] returned no choices", l.model)
	}

	model := resp.Model
	if model == "" {
		model = l.model
	}

	return &Completion{
		Text:             resp.Choices[0].Message.Content,
		Model:            model,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}, nil
}

// GeminiLLM completes chat messages with the Gemini api. System messages become
// the system instruction
type GeminiLLM struct {
	models      *genai.Models
	model       string
	temperature float32
}

// Model returns the model name
func (l *GeminiLLM) Model() string {
	return l.model
}

// Complete returns the completion of messages
func (l *GeminiLLM) Complete(ctx context.Context, messages []Message) (c *Completion, err error) {
	temperature := l.temperature
	cfg := &genai.GenerateContentConfig{Temperature: &temperature}

	var system []string
	contents := make([]*genai.Content, 0, len(messages))

	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			system = append(system, m.Content)
		case RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}

	if len(system) > 0 {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: strings.Join(system, "\n\n")}}}
	}

	resp, err := l.models.GenerateContent(ctx, l.model, contents, cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "content generation with [%s] failed", l.model)
	}

	c = &Completion{Text: resp.Text(), Model: l.model}
	if resp.UsageMetadata != nil {
		c.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		c.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
		c.TotalTokens = int(resp.UsageMetadata.TotalTokenCount)
	}

	return c, nil
}

// retryingLLM retries failed completions with an exponential backoff. Errors that
// can't succeed on retry (bad requests, authentication) are returned right away
type retryingLLM struct {
	LLM
	maxRetries uint64
	newBackOff func() backoff.BackOff
}

// Complete implements LLM
func (l *retryingLLM) Complete(ctx context.Context, messages []Message) (c *Completion, err error) {
	b := backoff.WithContext(backoff.WithMaxRetries(l.newBackOff(), l.maxRetries), ctx)

	err = backoff.Retry(func() (err error) {
		c, err = l.LLM.Complete(ctx, messages)
		if err != nil && !isRetryable(err) {
			return backoff.Permanent(err)
		}

		return err
	}, b)

	return c, err
}

// isRetryable returns true for rate limiting, server side and transport errors
func isRetryable(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return retryableStatus(apiErr.HTTPStatusCode)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return retryableStatus(reqErr.HTTPStatusCode)
	}

	var genaiErr *genai.APIError
	if errors.As(err, &genaiErr) {
		return retryableStatus(genaiErr.Code)
	}

	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

// cachingLLM keeps the completions of identical message lists
type cachingLLM struct {
	LLM
	cache *lru.ARCCache
}

// Complete implements LLM. Only successful completions are cached
func (l *cachingLLM) Complete(ctx context.Context, messages []Message) (c *Completion, err error) {
	key, err := cacheKey(l.Model(), messages)
	if err != nil {
		return nil, err
	}

	if cached, ok := l.cache.Get(key); ok {
		completion := *cached.(*Completion)
		return &completion, nil
	}

	c, err = l.LLM.Complete(ctx, messages)
	if err != nil {
		return nil, err
	}

	l.cache.Add(key, c)

	completion := *c
	return &completion, nil
}

func cacheKey(model string, messages []Message) (key string, err error) {
	encoded, err := json.Marshal(messages)
	if err != nil {
		return "", errors.Wrap(err, "failed to compute completion cache key")
	}

	sum := sha256.Sum256(append([]byte(model+"\n"), encoded...))

	return hex.EncodeToString(sum[:]), nil
}

type llmOptions struct {
	openAIClient chatCompleter
	geminiModels *genai.Models
	cacheSize    int
	newBackOff   func() backoff.BackOff
}

// LLMOption defines an option for LoadLLM
type LLMOption func(o *llmOptions)

// OptionOpenAIClient sets the client used for OpenAI models
func OptionOpenAIClient(client *openai.Client) func(o *llmOptions) {
	return func(o *llmOptions) {
		if client != nil {
			o.openAIClient = client
		}
	}
}

// OptionGeminiClient sets the client used for gemini-* models
func OptionGeminiClient(client *genai.Client) func(o *llmOptions) {
	return func(o *llmOptions) {
		if client != nil {
			o.geminiModels = client.Models
		}
	}
}

// OptionLLMCacheSize sets the number of completions kept in the response cache
func OptionLLMCacheSize(size int) func(o *llmOptions) {
	return func(o *llmOptions) {
		o.cacheSize = size
	}
}

// OptionRetryBackOff sets the backoff policy between retries
func OptionRetryBackOff(newBackOff func() backoff.BackOff) func(o *llmOptions) {
	return func(o *llmOptions) {
		o.newBackOff = newBackOff
	}
}

// LoadLLM returns the language model named model. Models starting with "gemini" use the
// gemini client and all others use the OpenAI client. Failed calls are retried up to maxRetries
// times and completions are cached
func LoadLLM(model string, temperature float32, maxRetries int, options ...LLMOption) (llm LLM, err error) {
	opts := llmOptions{cacheSize: defaultLLMCacheSize, newBackOff: func() backoff.BackOff { return backoff.NewExponentialBackOff() }}
	for _, opt := range options {
		opt(&opts)
	}

	if maxRetries < 0 {
		return nil, fmt.Errorf("invalid max retries [%d], must be positive", maxRetries)
	}

	if strings.HasPrefix(model, geminiModelPrefix) {
		if opts.geminiModels == nil {
			return nil, fmt.Errorf("no gemini client configured for model [%s]", model)
		}

		llm = &GeminiLLM{models: opts.geminiModels, model: model, temperature: temperature}
	} else {
		if opts.openAIClient == nil {
			return nil, fmt.Errorf("no openai client configured for model [%s]", model)
		}

		llm = &OpenAILLM{client: opts.openAIClient, model: model, temperature: temperature}
	}

	llm = &retryingLLM{LLM: llm, maxRetries: uint64(maxRetries), newBackOff: opts.newBackOff}

	cache, err := lru.NewARC(opts.cacheSize)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create completion cache of size [%d]", opts.cacheSize)
	}

	return &cachingLLM{LLM: llm, cache: cache}, nil
}
