package index

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/docsbot-dev/docsbot/store"
	"github.com/docsbot-dev/docsbot/store/mocks"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// fakeEmbedder returns the vectors registered for each text and keeps every batch it embeds
type fakeEmbedder struct {
	mu      sync.Mutex
	vectors map[string][]float32
	calls   [][]string
	err     error
}

func (e *fakeEmbedder) Model() string {
	return "fake-embedding"
}

func (e *fakeEmbedder) Embed(ctx context.Context, texts []string) (vectors [][]float32, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.calls = append(e.calls, texts)
	if e.err != nil {
		return nil, e.err
	}

	for _, t := range texts {
		v, ok := e.vectors[t]
		if !ok {
			return nil, fmt.Errorf("no vector for [%s]", t)
		}

		vectors = append(vectors, v)
	}

	return vectors, nil
}

type embeddingsRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

// newOpenAIServer returns a test server answering embedding requests with a vector made of
// the length of each input and its position. Embeddings are returned in reverse order
func newOpenAIServer(t *testing.T, requests *[]embeddingsRequest) (server *httptest.Server) {
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/embeddings", r.URL.Path)

		var req embeddingsRequest
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &req))
		*requests = append(*requests, req)

		data := make([]map[string]interface{}, 0, len(req.Input))
		for i := len(req.Input) - 1; i >= 0; i-- {
			data = append(data, map[string]interface{}{"object": "embedding", "index": i, "embedding": []float32{float32(len(req.Input[i])), float32(i)}})
		}

		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(map[string]interface{}{"object": "list", "model": req.Model, "data": data}))
	}))
	t.Cleanup(server.Close)

	return server
}

func newOpenAIClient(serverURL string) *openai.Client {
	cfg := openai.DefaultConfig("sk-test")
	cfg.BaseURL = serverURL + "/v1"

	return openai.NewClientWithConfig(cfg)
}

func TestOpenAIEmbedder(t *testing.T) {
	var requests []embeddingsRequest
	server := newOpenAIServer(t, &requests)

	e := NewOpenAIEmbedder(newOpenAIClient(server.URL), "text-embedding-ada-002")

	vectors, err := e.Embed(context.Background(), []string{"a", "bbb"})
	require.NoError(t, err)

	assert.Equal(t, [][]float32{{1, 0}, {3, 1}}, vectors)
	assert.Equal(t, "text-embedding-ada-002", e.Model())
	require.Len(t, requests, 1)
	assert.Equal(t, embeddingsRequest{Input: []string{"a", "bbb"}, Model: "text-embedding-ada-002"}, requests[0])
}

func TestOpenAIEmbedderBatches(t *testing.T) {
	var requests []embeddingsRequest
	server := newOpenAIServer(t, &requests)

	texts := make([]string, embedBatchSize+1)
	for i := range texts {
		texts[i] = "t"
	}

	vectors, err := NewOpenAIEmbedder(newOpenAIClient(server.URL), "m").Embed(context.Background(), texts)
	require.NoError(t, err)

	assert.Len(t, vectors, embedBatchSize+1)
	require.Len(t, requests, 2)
	assert.Len(t, requests[0].Input, embedBatchSize)
	assert.Len(t, requests[1].Input, 1)
	assert.Equal(t, []float32{1, 0}, vectors[embedBatchSize])
}

func TestOpenAIEmbedderFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "bad key", "type": "invalid_request_error"}}`))
	}))
	defer server.Close()

	_, err := NewOpenAIEmbedder(newOpenAIClient(server.URL), "m").Embed(context.Background(), []string{"a"})

	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "failed to embed 1 texts with [m]")

		var apiErr *openai.APIError
		if assert.ErrorAs(t, err, &apiErr) {
			assert.Equal(t, http.StatusUnauthorized, apiErr.HTTPStatusCode)
		}
	}
}

func TestCachedEmbedderOnlyEmbedsMissingTexts(t *testing.T) {
	fe := &fakeEmbedder{vectors: map[string][]float32{"a": {1, 0}, "b": {0, 1}, "c": {1, 1}}}

	ce, err := LoadEmbeddings(t.TempDir(), fe)
	require.NoError(t, err)
	defer ce.Close()

	vectors, err := ce.Embed(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, vectors)

	vectors, err = ce.Embed(context.Background(), []string{"c", "a", "b"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 1}, {1, 0}, {0, 1}}, vectors)

	assert.Equal(t, [][]string{{"a", "b"}, {"c"}}, fe.calls)
	assert.Equal(t, "fake-embedding", ce.Model())
}

func TestCachedEmbedderPersistsAcrossLoads(t *testing.T) {
	cacheDir := t.TempDir()
	fe := &fakeEmbedder{vectors: map[string][]float32{"a": {0.25, -1}}}

	ce, err := LoadEmbeddings(cacheDir, fe)
	require.NoError(t, err)

	_, err = ce.Embed(context.Background(), []string{"a"})
	require.NoError(t, err)
	require.NoError(t, ce.Close())

	reloaded, err := LoadEmbeddings(cacheDir, &fakeEmbedder{err: fmt.Errorf("should not be called")})
	require.NoError(t, err)
	defer reloaded.Close()

	vectors, err := reloaded.Embed(context.Background(), []string{"a"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{0.25, -1}}, vectors)
}

func TestCachedEmbedderKeysAreNamespacedByModel(t *testing.T) {
	ms := new(mocks.Storer)
	ms.On("GetString", mock.MatchedBy(func(key string) bool { return len(key) > len("fake-embedding/") && key[:len("fake-embedding/")] == "fake-embedding/" })).Return("", store.ErrNotFound)
	ms.On("PutString", mock.AnythingOfType("string"), "[1,2]").Return(nil)

	ce := NewCachedEmbedder(&fakeEmbedder{vectors: map[string][]float32{"a": {1, 2}}}, ms)

	_, err := ce.Embed(context.Background(), []string{"a"})
	require.NoError(t, err)

	ms.AssertExpectations(t)
	assert.Equal(t, ce.cacheKey("a"), ms.Calls[1].Arguments.String(0))
}

func TestCachedEmbedderErrors(t *testing.T) {
	tests := map[string]struct {
		setup         func(ms *mocks.Storer)
		embedderErr   error
		expectedError string
	}{
		"CacheReadFailure": {
			setup: func(ms *mocks.Storer) {
				ms.On("GetString", mock.Anything).Return("", fmt.Errorf("io error"))
			},
			expectedError: "failed to read embeddings cache: io error",
		},
		"InvalidCachedValue": {
			setup: func(ms *mocks.Storer) {
				ms.On("GetString", mock.Anything).Return("not json", nil)
			},
			expectedError: "invalid cached embedding",
		},
		"EmbedderFailure": {
			setup: func(ms *mocks.Storer) {
				ms.On("GetString", mock.Anything).Return("", store.ErrNotFound)
			},
			embedderErr:   fmt.Errorf("rate limited"),
			expectedError: "rate limited",
		},
		"CacheWriteFailure": {
			setup: func(ms *mocks.Storer) {
				ms.On("GetString", mock.Anything).Return("", store.ErrNotFound)
				ms.On("PutString", mock.Anything, mock.Anything).Return(fmt.Errorf("disk full"))
			},
			expectedError: "failed to write embeddings cache: disk full",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			ms := new(mocks.Storer)
			tc.setup(ms)

			ce := NewCachedEmbedder(&fakeEmbedder{vectors: map[string][]float32{"a": {1}}, err: tc.embedderErr}, ms)

			_, err := ce.Embed(context.Background(), []string{"a"})
			if assert.Error(t, err) {
				assert.Contains(t, err.Error(), tc.expectedError)
			}
		})
	}
}
