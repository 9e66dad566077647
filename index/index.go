// Package index loads the embedding model, the language model and the vector index
// used to answer documentation questions. Embeddings are cached on disk (or in
// google cloud datastore) and indexes are persisted with leveldb so that they are
// only built once
package index

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"

	"github.com/docsbot-dev/docsbot/config"
	"github.com/docsbot-dev/docsbot/store"
	"github.com/docsbot-dev/docsbot/store/datastoredb"
	"github.com/docsbot-dev/docsbot/store/inmemorydb"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"google.golang.org/genai"
)

const (
	indexStoreName = "vector_index"
	metaKey        = "meta"
	nodeKeyFmt     = "node/%08d"
	vectorKeyFmt   = "vector/%08d"
)

// Node is a chunk of a document to index. Metadata usually holds the "source" of the chunk
type Node struct {
	ID       string            `json:"id"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// NodeWithScore is a retrieved node and its distance to the query. Lower is closer
type NodeWithScore struct {
	Node
	Score float32
}

// ServiceContext holds the models used to build and query an index
type ServiceContext struct {
	LLM      LLM
	Embedder Embedder
}

// Close releases the embeddings cache, if any
func (sc *ServiceContext) Close() (err error) {
	if c, ok := sc.Embedder.(io.Closer); ok {
		return c.Close()
	}

	return nil
}

// StorageContext holds the vector store of an index
type StorageContext struct {
	VectorStore *FlatL2Store
}

// LoadStorageContext returns a storage context with an empty flat L2 vector store for
// vectors of dim dimensions
func LoadStorageContext(dim int) (stc *StorageContext) {
	return &StorageContext{VectorStore: NewFlatL2Store(dim)}
}

// LoadServiceContext creates the OpenAI (and, with an api key, Gemini) clients from the index configuration
// and returns the cached embedder and language model they serve. The embeddings cache is a local leveldb
// database unless a google cloud project is configured for it. Options are applied after the clients
// created from the configuration and can override them
func LoadServiceContext(ctx context.Context, ic *config.IndexConfig, options ...LLMOption) (sc *ServiceContext, err error) {
	oaCfg := openai.DefaultConfig(ic.OpenAIAPIKey)
	if ic.OpenAIBaseURL != "" {
		oaCfg.BaseURL = ic.OpenAIBaseURL
	}
	oaCfg.HTTPClient = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	oaClient := openai.NewClientWithConfig(oaCfg)

	llmOpts := []LLMOption{OptionOpenAIClient(oaClient), OptionLLMCacheSize(ic.LLMCacheSize)}
	if ic.GeminiAPIKey != "" {
		gClient, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: ic.GeminiAPIKey, Backend: genai.BackendGeminiAPI})
		if err != nil {
			return nil, errors.Wrap(err, "failed to create gemini client")
		}

		llmOpts = append(llmOpts, OptionGeminiClient(gClient))
	}

	llm, err := LoadLLM(ic.LLM, ic.Temperature, ic.MaxRetries, append(llmOpts, options...)...)
	if err != nil {
		return nil, err
	}

	embedder := NewOpenAIEmbedder(oaClient, ic.EmbeddingModel)

	var cached *CachedEmbedder
	if ic.EmbeddingsProject != "" {
		cached, err = loadDatastoreEmbeddings(ic.EmbeddingsProject, embedder)
	} else {
		cached, err = LoadEmbeddings(ic.EmbeddingsCache, embedder)
	}

	if err != nil {
		return nil, err
	}

	return &ServiceContext{LLM: llm, Embedder: cached}, nil
}

// loadDatastoreEmbeddings returns an embedder caching its embeddings in google cloud datastore
func loadDatastoreEmbeddings(project string, embedder Embedder) (ce *CachedEmbedder, err error) {
	dsdb, err := datastoredb.New(embeddingsStoreName, project)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open datastore embeddings cache in project [%s]", project)
	}

	imdb, err := inmemorydb.New(dsdb)
	if err != nil {
		_ = dsdb.Close()
		return nil, errors.Wrap(err, "failed to load datastore embeddings cache")
	}

	return NewCachedEmbedder(embedder, imdb), nil
}

// VectorStoreIndex retrieves the nodes closest to a query
type VectorStoreIndex struct {
	service *ServiceContext
	storage *StorageContext
	nodes   map[string]Node
}

// Len returns the number of indexed nodes
func (idx *VectorStoreIndex) Len() int {
	return len(idx.nodes)
}

// Retrieve embeds query and returns the topK closest nodes, closest first
func (idx *VectorStoreIndex) Retrieve(ctx context.Context, query string, topK int) (nodes []NodeWithScore, err error) {
	vectors, err := idx.service.Embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, errors.Wrap(err, "failed to embed query")
	}

	results, err := idx.storage.VectorStore.Search(vectors[0], topK)
	if err != nil {
		return nil, err
	}

	nodes = make([]NodeWithScore, 0, len(results))
	for _, r := range results {
		nodes = append(nodes, NodeWithScore{Node: idx.nodes[r.ID], Score: r.Distance})
	}

	return nodes, nil
}

type indexMeta struct {
	EmbedModel string `json:"embedModel"`
	Dimensions int    `json:"dimensions"`
	Count      int    `json:"count"`
}

// LoadIndex loads the index persisted in persistDir into the storage context. If it can't be loaded,
// because nothing was persisted yet or because the persisted index is unusable (corrupted, built
// for other dimensions), a new index is built by embedding nodes with the service context and
// persisted to persistDir in place of the old one. Nodes without an ID are given a random one
func LoadIndex(ctx context.Context, nodes []Node, sc *ServiceContext, stc *StorageContext, persistDir string) (idx *VectorStoreIndex, err error) {
	idx, err = LoadIndexFromStorage(sc, stc, persistDir)
	if err == nil {
		return idx, nil
	}

	// A partial load leaves vectors behind
	stc.VectorStore.Reset()

	if idx, err = buildIndex(ctx, nodes, sc, stc, persistDir); err != nil {
		stc.VectorStore.Reset()
		return nil, err
	}

	return idx, nil
}

// LoadIndexFromStorage loads the index persisted in persistDir into the storage context. An error
// matching store.ErrNotFound is returned when no index was persisted there
func LoadIndexFromStorage(sc *ServiceContext, stc *StorageContext, persistDir string) (idx *VectorStoreIndex, err error) {
	ldb, err := store.OpenLevelDB(indexStoreName, persistDir)
	if err != nil {
		return nil, err
	}
	defer ldb.Close()

	encodedMeta, err := ldb.Get([]byte(metaKey))
	if err != nil {
		return nil, err
	}

	var meta indexMeta
	if err = json.Unmarshal(encodedMeta, &meta); err != nil {
		return nil, errors.Wrapf(err, "invalid index metadata in [%s]", persistDir)
	}

	if meta.Dimensions != stc.VectorStore.Dimensions() {
		return nil, fmt.Errorf("index in [%s] has %d dimensions but the vector store expects %d", persistDir, meta.Dimensions, stc.VectorStore.Dimensions())
	}

	idx = &VectorStoreIndex{service: sc, storage: stc, nodes: make(map[string]Node, meta.Count)}
	for i := 0; i < meta.Count; i++ {
		encodedNode, err := ldb.Get([]byte(fmt.Sprintf(nodeKeyFmt, i)))
		if err != nil {
			// A persisted index missing a node is corrupted rather than absent
			return nil, errors.Errorf("failed to load node %d: %v", i, err)
		}

		var n Node
		if err = json.Unmarshal(encodedNode, &n); err != nil {
			return nil, errors.Wrapf(err, "invalid node %d", i)
		}

		encodedVector, err := ldb.Get([]byte(fmt.Sprintf(vectorKeyFmt, i)))
		if err != nil {
			return nil, errors.Errorf("failed to load vector %d: %v", i, err)
		}

		if err = stc.VectorStore.Add(n.ID, decodeVector(encodedVector)); err != nil {
			return nil, err
		}

		idx.nodes[n.ID] = n
	}

	return idx, nil
}

func buildIndex(ctx context.Context, nodes []Node, sc *ServiceContext, stc *StorageContext, persistDir string) (idx *VectorStoreIndex, err error) {
	idx = &VectorStoreIndex{service: sc, storage: stc, nodes: make(map[string]Node, len(nodes))}

	texts := make([]string, 0, len(nodes))
	for i := range nodes {
		if nodes[i].ID == "" {
			nodes[i].ID = uuid.NewString()
		}

		if _, ok := idx.nodes[nodes[i].ID]; ok {
			return nil, fmt.Errorf("duplicate node id [%s]", nodes[i].ID)
		}

		idx.nodes[nodes[i].ID] = nodes[i]
		texts = append(texts, nodes[i].Text)
	}

	vectors, err := sc.Embedder.Embed(ctx, texts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to embed nodes")
	}

	entries := make(map[string][]byte, 2*len(nodes)+1)
	for i, n := range nodes {
		if err = stc.VectorStore.Add(n.ID, vectors[i]); err != nil {
			return nil, err
		}

		if entries[fmt.Sprintf(nodeKeyFmt, i)], err = json.Marshal(n); err != nil {
			return nil, errors.Wrapf(err, "failed to encode node [%s]", n.ID)
		}

		entries[fmt.Sprintf(vectorKeyFmt, i)] = encodeVector(vectors[i])
	}

	if entries[metaKey], err = json.Marshal(indexMeta{EmbedModel: sc.Embedder.Model(), Dimensions: stc.VectorStore.Dimensions(), Count: len(nodes)}); err != nil {
		return nil, errors.Wrap(err, "failed to encode index metadata")
	}

	ldb, err := store.NewLevelDB(indexStoreName, persistDir)
	if err != nil {
		return nil, errors.Wrap(err, "failed to persist index")
	}
	defer ldb.Close()

	if err = ldb.ReplaceAll(entries); err != nil {
		return nil, errors.Wrapf(err, "failed to persist index to [%s]", persistDir)
	}

	return idx, nil
}

func encodeVector(v []float32) (b []byte) {
	b = make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(b[4*i:], math.Float32bits(f))
	}

	return b
}

func decodeVector(b []byte) (v []float32) {
	v = make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}

	return v
}
