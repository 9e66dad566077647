package config

import (
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// Index and answering pipeline keys
const (
	OpenAIAPIKeyKey  = "openAI.apiKey"  // OpenAI api key, string
	OpenAIBaseURLKey = "openAI.baseURL" // OpenAI compatible api base url, empty means the OpenAI default, string
	GeminiAPIKeyKey  = "gemini.apiKey"  // Gemini api key, used for gemini-* models, string

	IndexLLMKey                = "index.llm"                // Model answering questions, string
	IndexTemperatureKey        = "index.temperature"        // Sampling temperature of the model, float
	IndexMaxRetriesKey         = "index.maxRetries"         // Retries of failed model calls, int
	IndexLLMCacheSizeKey       = "index.llmCacheSize"       // Number of cached model responses, int
	IndexEmbeddingModelKey     = "index.embeddingModel"     // Embedding model, string
	IndexDimensionsKey         = "index.dimensions"         // Dimensions of the embedding vectors, int
	IndexEmbeddingsCacheDirKey = "index.embeddingsCacheDir" // Directory of the embeddings cache, string
	IndexEmbeddingsProjectKey  = "index.embeddingsProject"  // Google cloud project of a datastore embeddings cache. Empty uses the local cache, string
	IndexPersistDirKey         = "index.persistDir"         // Directory where the vector index is persisted, string
	IndexPromptPathKey         = "index.promptPath"         // Chat prompt file, string
	IndexTopKKey               = "index.topK"               // Number of retrieved documents per question, int
)

const (
	defaultIndexLLM                = "gpt-3.5-turbo-16k-0613"
	defaultIndexTemperature        = 0.1
	defaultIndexMaxRetries         = 2
	defaultIndexLLMCacheSize       = 256
	defaultIndexEmbeddingModel     = "text-embedding-ada-002"
	defaultIndexDimensions         = 1536
	defaultIndexEmbeddingsCacheDir = "~/.docsbot/cache"
	defaultIndexPersistDir         = "~/.docsbot/index"
	defaultIndexPromptPath         = "data/prompts/chat_prompt.json"
	defaultIndexTopK               = 5
)

// IndexConfig holds the settings of the embeddings, the model and the vector index
type IndexConfig struct {
	OpenAIAPIKey      string
	OpenAIBaseURL     string
	GeminiAPIKey      string
	LLM               string  `validate:"required"`
	Temperature       float32 `validate:"gte=0,lte=2"`
	MaxRetries        int     `validate:"gte=0"`
	LLMCacheSize      int     `validate:"gt=0"`
	EmbeddingModel    string  `validate:"required"`
	Dimensions        int     `validate:"gt=0"`
	EmbeddingsCache   string  `validate:"required"`
	EmbeddingsProject string
	PersistDir        string `validate:"required"`
	PromptPath        string `validate:"required"`
	TopK              int    `validate:"gt=0"`
}

// LayerIndexConfigWithDefaults sets the index defaults on v and binds the
// environment variables holding api keys
func LayerIndexConfigWithDefaults(v *viper.Viper) (lv *viper.Viper) {
	v.SetDefault(IndexLLMKey, defaultIndexLLM)
	v.SetDefault(IndexTemperatureKey, defaultIndexTemperature)
	v.SetDefault(IndexMaxRetriesKey, defaultIndexMaxRetries)
	v.SetDefault(IndexLLMCacheSizeKey, defaultIndexLLMCacheSize)
	v.SetDefault(IndexEmbeddingModelKey, defaultIndexEmbeddingModel)
	v.SetDefault(IndexDimensionsKey, defaultIndexDimensions)
	v.SetDefault(IndexEmbeddingsCacheDirKey, defaultIndexEmbeddingsCacheDir)
	v.SetDefault(IndexPersistDirKey, defaultIndexPersistDir)
	v.SetDefault(IndexPromptPathKey, defaultIndexPromptPath)
	v.SetDefault(IndexTopKKey, defaultIndexTopK)

	_ = v.BindEnv(OpenAIAPIKeyKey, "OPENAI_API_KEY")
	_ = v.BindEnv(OpenAIBaseURLKey, "OPENAI_BASE_URL")
	_ = v.BindEnv(GeminiAPIKeyKey, "GEMINI_API_KEY")

	return v
}

// GetIndexConfig returns the validated index configuration. Directories have '~' expanded
// to the home directory
func GetIndexConfig(v *viper.Viper) (ic *IndexConfig, err error) {
	temperature, err := cast.ToFloat32E(v.Get(IndexTemperatureKey))
	if err != nil {
		return nil, errors.Wrapf(err, "invalid value for [%s]", IndexTemperatureKey)
	}

	ic = &IndexConfig{
		OpenAIAPIKey:      v.GetString(OpenAIAPIKeyKey),
		OpenAIBaseURL:     v.GetString(OpenAIBaseURLKey),
		GeminiAPIKey:      v.GetString(GeminiAPIKeyKey),
		LLM:               v.GetString(IndexLLMKey),
		Temperature:       temperature,
		MaxRetries:        v.GetInt(IndexMaxRetriesKey),
		LLMCacheSize:      v.GetInt(IndexLLMCacheSizeKey),
		EmbeddingModel:    v.GetString(IndexEmbeddingModelKey),
		Dimensions:        v.GetInt(IndexDimensionsKey),
		EmbeddingsProject: v.GetString(IndexEmbeddingsProjectKey),
		PromptPath:        v.GetString(IndexPromptPathKey),
		TopK:              v.GetInt(IndexTopKKey),
	}

	if ic.EmbeddingsCache, err = homedir.Expand(v.GetString(IndexEmbeddingsCacheDirKey)); err != nil {
		return nil, errors.Wrapf(err, "invalid value for [%s]", IndexEmbeddingsCacheDirKey)
	}

	if ic.PersistDir, err = homedir.Expand(v.GetString(IndexPersistDirKey)); err != nil {
		return nil, errors.Wrapf(err, "invalid value for [%s]", IndexPersistDirKey)
	}

	if err = validator.New().Struct(ic); err != nil {
		return nil, errors.Wrap(err, "invalid index configuration")
	}

	return ic, nil
}
