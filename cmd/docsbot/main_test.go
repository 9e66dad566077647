package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/docsbot-dev/docsbot/config"
	"github.com/docsbot-dev/docsbot/index"
	"github.com/docsbot-dev/docsbot/zendesk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

func writeFile(t *testing.T, dir string, name string, content string) (path string) {
	path = filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func execute(t *testing.T, args ...string) (out string, err error) {
	var buf bytes.Buffer

	root := newRootCmd()
	root.SetOut(&buf)
	root.SetErr(io.Discard)
	root.SetArgs(args)

	err = root.Execute()

	return buf.String(), err
}

func TestEvalConfigCommand(t *testing.T) {
	t.Setenv("EVAL_JUDGE_MODEL", "")
	t.Setenv("WANDB_ENTITY", "")
	t.Setenv("WANDB_PROJECT", "")

	out, err := execute(t, "eval-config")
	require.NoError(t, err)

	var ec config.EvalConfig
	require.NoError(t, yaml.Unmarshal([]byte(out), &ec))

	assert.Equal(t, "jp v1.2.0-beta", ec.StrategyName)
	assert.Equal(t, "ja", ec.Language)
	assert.Equal(t, "wandbot-eval-jp", ec.Project)
	assert.Contains(t, out, "eval_judge_model: gpt-4-1106-preview")
}

func TestEvalConfigCommandWithConfigFile(t *testing.T) {
	t.Setenv("WANDB_PROJECT", "")

	path := writeFile(t, t.TempDir(), "docsbot.yaml", "eval:\n  project: docsbot-eval\n  language: en\n")

	out, err := execute(t, "--config", path, "eval-config")
	require.NoError(t, err)

	assert.Contains(t, out, "wandb_project: docsbot-eval")
	assert.Contains(t, out, "language: en")
}

func TestMissingConfigFile(t *testing.T) {
	_, err := execute(t, "-c", filepath.Join(t.TempDir(), "missing.yaml"), "eval-config")

	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "failed to read configuration file")
	}
}

func TestLanguageFlagOverridesConfiguration(t *testing.T) {
	o := &options{language: "ja"}

	v, err := o.loadConfig()
	require.NoError(t, err)

	assert.Equal(t, "ja", v.GetString(config.LanguageKey))
}

func TestRunWithoutSlackTokens(t *testing.T) {
	t.Setenv("SLACK_EN_APP_TOKEN", "")
	t.Setenv("SLACK_EN_BOT_TOKEN", "")

	_, err := execute(t, "run", "-l", "en")

	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "invalid profile for language [en]")
	}
}

func TestReadNodes(t *testing.T) {
	path := writeFile(t, t.TempDir(), "nodes.jsonl", `{"id": "1", "text": "wandb.log logs metrics", "metadata": {"source": "https://docs.wandb.ai/log"}}

{"id": "2", "text": "wandb.init starts a run"}
`)

	nodes, err := readNodes(path)
	require.NoError(t, err)

	assert.Equal(t, []index.Node{
		{ID: "1", Text: "wandb.log logs metrics", Metadata: map[string]string{"source": "https://docs.wandb.ai/log"}},
		{ID: "2", Text: "wandb.init starts a run"},
	}, nodes)
}

func TestReadNodesWithInvalidLine(t *testing.T) {
	path := writeFile(t, t.TempDir(), "nodes.jsonl", "{\"id\": \"1\", \"text\": \"ok\"}\nnot json\n")

	_, err := readNodes(path)

	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "invalid node at line 2")
	}
}

// newFakeOpenAI returns a server answering embedding requests with vectors of two dimensions
// derived from the text and chat completions with a fixed answer
func newFakeOpenAI(t *testing.T) *httptest.Server {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/v1/embeddings":
			var req struct {
				Input []string `json:"input"`
				Model string   `json:"model"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

			data := make([]map[string]interface{}, 0, len(req.Input))
			for i, text := range req.Input {
				vector := []float32{0, 1}
				if strings.Contains(text, "log") {
					vector = []float32{1, 0}
				}
				data = append(data, map[string]interface{}{"object": "embedding", "index": i, "embedding": vector})
			}

			require.NoError(t, json.NewEncoder(w).Encode(map[string]interface{}{"object": "list", "model": req.Model, "data": data}))
		case "/v1/chat/completions":
			_, _ = w.Write([]byte(`{"id": "1", "object": "chat.completion", "model": "gpt-4-0613",
"choices": [{"index": 0, "message": {"role": "assistant", "content": "Call **wandb.log** in your loop"}, "finish_reason": "stop"}],
"usage": {"prompt_tokens": 20, "completion_tokens": 6, "total_tokens": 26}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)

	return server
}

func TestIndexThenAsk(t *testing.T) {
	t.Setenv("OPENAI_BASE_URL", "")
	t.Setenv("SLACK_EN_APPLICATION", "")

	server := newFakeOpenAI(t)
	dir := t.TempDir()

	promptPath := writeFile(t, dir, "prompt.json", `{"messages": [{"system": "Answer in {language_code}"}, {"human": "{context_str}\n{query_str}"}]}`)
	nodesPath := writeFile(t, dir, "nodes.jsonl", `{"id": "log", "text": "wandb.log logs metrics", "metadata": {"source": "https://docs.wandb.ai/guides/track/log"}}
{"id": "init", "text": "wandb.init starts a run", "metadata": {"source": "https://docs.wandb.ai/ref/python/init"}}
`)
	configPath := writeFile(t, dir, "docsbot.yaml", fmt.Sprintf(`logLevel: error
openAI:
  apiKey: sk-test
  baseURL: %s/v1
index:
  llm: gpt-4
  dimensions: 2
  topK: 1
  embeddingsCacheDir: %s
  persistDir: %s
  promptPath: %s
`, server.URL, filepath.Join(dir, "cache"), filepath.Join(dir, "index"), promptPath))

	_, err := execute(t, "-c", configPath, "ask", "How do I log?")
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "build it with the index command first")
	}

	_, err = execute(t, "-c", configPath, "index", nodesPath)
	require.NoError(t, err)

	out, err := execute(t, "-c", configPath, "-l", "en", "ask", "How", "do", "I", "log?")
	require.NoError(t, err)

	assert.Contains(t, out, "Call *wandb.log* in your loop")
	assert.Contains(t, out, "https://docs.wandb.ai/guides/track/log")
	assert.NotContains(t, out, "https://docs.wandb.ai/ref/python/init")
}

func TestOpsRouter(t *testing.T) {
	o, err := newOps()
	require.NoError(t, err)
	defer func() {
		_ = o.shutdown(nil)
	}()

	counter, err := o.meterProvider.Meter("test").Int64Counter("questions_answered")
	require.NoError(t, err)
	counter.Add(context.Background(), 3)

	server := httptest.NewServer(o.router())
	defer server.Close()

	resp, err := http.Get(server.URL + "/healthz")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))

	resp, err = http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	body, err = io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "questions_answered_total")
	assert.Contains(t, string(body), "go_goroutines")
}

func TestZendeskWithoutCredentials(t *testing.T) {
	t.Setenv("ZENDESK_EMAIL", "")
	t.Setenv("ZENDESK_PASSWORD", "")
	t.Setenv("ZENDESK_API_TOKEN", "")
	t.Setenv("ZENDESK_SUBDOMAIN", "")

	_, err := execute(t, "zendesk")

	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "invalid zendesk configuration")
	}
}

func TestZendeskResponderInTestAPIMode(t *testing.T) {
	t.Setenv("ZENDESK_EMAIL", "agent@example.com")
	t.Setenv("ZENDESK_PASSWORD", "secret")
	t.Setenv("ZENDESK_API_TOKEN", "")
	t.Setenv("ZENDESK_TEST_TICKET_MODE", "True")
	t.Setenv("ZENDESK_TEST_API_MODE", "True")

	var updates []map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/v2/search.json":
			assert.Equal(t, "type:ticket status:new tags:bottest -tags:answered_by_bot -tags:zopim_chat -tags:picked_up_by_bot", r.URL.Query().Get("query"))
			_, _ = w.Write([]byte(`{"results": [{"id": 7, "description": "How do I log?", "status": "new", "tags": ["bottest"]}], "next_page": null}`))
		case r.Method == http.MethodPut && r.URL.Path == "/api/v2/tickets/7.json":
			var update map[string]interface{}
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&update))
			updates = append(updates, update)
			_, _ = w.Write([]byte(`{"ticket": {"id": 7}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	configPath := writeFile(t, t.TempDir(), "docsbot.yaml", fmt.Sprintf("zendesk:\n  baseURL: %s\n  intro: \"\"\n", server.URL))

	v, err := (&options{configPath: configPath}).loadConfig()
	require.NoError(t, err)

	o, err := newOps()
	require.NoError(t, err)
	defer func() {
		_ = o.shutdown(nil)
	}()

	responder, zc, err := newZendeskResponder(v, zap.NewNop(), o)
	require.NoError(t, err)
	assert.True(t, zc.TestAPI)

	answered, err := responder.RespondToNewTickets(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, answered)
	require.Len(t, updates, 1)

	ticket := updates[0]["ticket"].(map[string]interface{})
	assert.Equal(t, "open", ticket["status"])
	assert.Equal(t, []interface{}{"bottest", zendesk.AnsweredTag}, ticket["tags"])
	comment := ticket["comment"].(map[string]interface{})
	assert.Equal(t, false, comment["public"])
	assert.Contains(t, comment["body"], "Lorem ipsum")
	assert.True(t, strings.HasSuffix(comment["body"].(string), "\n\n-WandBot 🤖"))
}
