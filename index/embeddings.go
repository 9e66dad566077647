package index

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/docsbot-dev/docsbot/store"
	"github.com/docsbot-dev/docsbot/store/inmemorydb"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"
)

const (
	embeddingsStoreName = "embeddings"
	embedBatchSize      = 100
)

// Embedder is implemented by any value that has the Model and Embed methods. Embed returns
// one vector per text, in the order of texts
type Embedder interface {
	Model() string
	Embed(ctx context.Context, texts []string) (vectors [][]float32, err error)
}

// embeddingsCreator is implemented by any value that has the CreateEmbeddings method.
//
// openai.Client implements this interface
type embeddingsCreator interface {
	CreateEmbeddings(ctx context.Context, conv openai.EmbeddingRequestConverter) (res openai.EmbeddingResponse, err error)
}

// OpenAIEmbedder computes embeddings with the OpenAI embeddings api
type OpenAIEmbedder struct {
	client embeddingsCreator
	model  string
}

// NewOpenAIEmbedder returns an OpenAIEmbedder using the given client and embedding model
func NewOpenAIEmbedder(client *openai.Client, model string) (e *OpenAIEmbedder) {
	return &OpenAIEmbedder{client: client, model: model}
}

// Model returns the name of the embedding model
func (e *OpenAIEmbedder) Model() string {
	return e.model
}

// Embed returns the embeddings of texts. Texts are sent in batches
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) (vectors [][]float32, err error) {
	vectors = make([][]float32, 0, len(texts))

	for start := 0; start < len(texts); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(texts) {
			end = len(texts)
		}

		resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{Input: texts[start:end], Model: openai.EmbeddingModel(e.model)})
		if err != nil {
			return nil, errors.Wrapf(err, "failed to embed %d texts with [%s]", end-start, e.model)
		}

		if len(resp.Data) != end-start {
			return nil, errors.Errorf("expected %d embeddings from [%s] but got %d", end-start, e.model, len(resp.Data))
		}

		sort.Slice(resp.Data, func(i, j int) bool { return resp.Data[i].Index < resp.Data[j].Index })
		for _, d := range resp.Data {
			vectors = append(vectors, d.Embedding)
		}
	}

	return vectors, nil
}

// CachedEmbedder caches the embeddings computed by another Embedder in a StringStorer. Cache
// keys are namespaced by the embedding model so that switching models never returns stale vectors
type CachedEmbedder struct {
	embedder Embedder
	storer   store.StringStorer
}

// NewCachedEmbedder returns a CachedEmbedder for embedder backed by storer
func NewCachedEmbedder(embedder Embedder, storer store.StringStorer) (ce *CachedEmbedder) {
	return &CachedEmbedder{embedder: embedder, storer: storer}
}

// LoadEmbeddings returns an embedder caching its embeddings in a leveldb database under cacheDir. The
// cache content is kept in memory
func LoadEmbeddings(cacheDir string, embedder Embedder) (ce *CachedEmbedder, err error) {
	ldb, err := store.NewLevelDB(embeddingsStoreName, cacheDir)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open embeddings cache")
	}

	imdb, err := inmemorydb.New(ldb)
	if err != nil {
		// The scan error is more relevant than a failure to close
		_ = ldb.Close()
		return nil, errors.Wrap(err, "failed to load embeddings cache")
	}

	return NewCachedEmbedder(embedder, imdb), nil
}

// Model returns the name of the underlying embedding model
func (ce *CachedEmbedder) Model() string {
	return ce.embedder.Model()
}

// Embed returns cached embeddings and computes the missing ones in a single call to the
// underlying embedder. Newly computed embeddings are added to the cache
func (ce *CachedEmbedder) Embed(ctx context.Context, texts []string) (vectors [][]float32, err error) {
	vectors = make([][]float32, len(texts))
	missing := make([]int, 0)

	for i, text := range texts {
		value, err := ce.storer.GetString(ce.cacheKey(text))
		if store.IsNotFound(err) {
			missing = append(missing, i)
			continue
		}

		if err != nil {
			return nil, errors.Wrap(err, "failed to read embeddings cache")
		}

		if err = json.Unmarshal([]byte(value), &vectors[i]); err != nil {
			return nil, errors.Wrapf(err, "invalid cached embedding for key [%s]", ce.cacheKey(text))
		}
	}

	if len(missing) == 0 {
		return vectors, nil
	}

	toEmbed := make([]string, 0, len(missing))
	for _, i := range missing {
		toEmbed = append(toEmbed, texts[i])
	}

	computed, err := ce.embedder.Embed(ctx, toEmbed)
	if err != nil {
		return nil, err
	}

	for j, i := range missing {
		vectors[i] = computed[j]

		encoded, err := json.Marshal(computed[j])
		if err != nil {
			return nil, errors.Wrap(err, "failed to encode embedding")
		}

		if err = ce.storer.PutString(ce.cacheKey(texts[i]), string(encoded)); err != nil {
			return nil, errors.Wrap(err, "failed to write embeddings cache")
		}
	}

	return vectors, nil
}

// Close closes the cache storer
func (ce *CachedEmbedder) Close() (err error) {
	return ce.storer.Close()
}

// cacheKey returns the namespaced key of a text. Texts are hashed into a name based uuid
func (ce *CachedEmbedder) cacheKey(text string) string {
	return ce.embedder.Model() + "/" + uuid.NewSHA1(uuid.NameSpaceOID, []byte(text)).String()
}
