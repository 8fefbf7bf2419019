package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/soitgoes511/graph-network-visualizer/internal/metrics"
	mid "github.com/soitgoes511/graph-network-visualizer/internal/server/middleware"
	"github.com/soitgoes511/graph-network-visualizer/pkg/annotate"
	"github.com/soitgoes511/graph-network-visualizer/pkg/cache"
	"github.com/soitgoes511/graph-network-visualizer/pkg/common"
	"github.com/soitgoes511/graph-network-visualizer/pkg/graph"
	"github.com/soitgoes511/graph-network-visualizer/pkg/loader"
	"github.com/soitgoes511/graph-network-visualizer/pkg/loader/text"
	"github.com/soitgoes511/graph-network-visualizer/pkg/progress"
	"github.com/soitgoes511/graph-network-visualizer/pkg/store"
	"github.com/soitgoes511/graph-network-visualizer/pkg/store/memory"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// meetingAnnotator reports "Acme Corp met IBM" for every non-empty text.
type meetingAnnotator struct{}

func (meetingAnnotator) Annotate(_ context.Context, text string) ([]annotate.Sentence, error) {
	if text == "" {
		return nil, nil
	}
	return []annotate.Sentence{{
		Text: text,
		Tokens: []annotate.Token{
			{Index: 0, Text: "Acme", Lemma: "Acme", POS: "PROPN", Dep: "compound", Head: 1, IsAlpha: true},
			{Index: 1, Text: "Corp", Lemma: "Corp", POS: "PROPN", Dep: "nsubj", Head: 2, IsAlpha: true},
			{Index: 2, Text: "met", Lemma: "meet", POS: "VERB", Dep: "ROOT", Head: 2, IsAlpha: true},
			{Index: 3, Text: "IBM", Lemma: "IBM", POS: "PROPN", Dep: "dobj", Head: 2, IsAlpha: true},
		},
		Entities: []annotate.EntitySpan{
			{Start: 0, End: 2, Label: "ORG", Text: "Acme Corp"},
			{Start: 3, End: 4, Label: "ORG", Text: "IBM"},
		},
	}}, nil
}

type testEnv struct {
	e   *echo.Echo
	app *mid.App
}

func newTestEnv(t *testing.T, apiKey string) testEnv {
	t.Helper()
	m := metrics.New(prometheus.NewRegistry())
	reg := loader.NewRegistry()
	reg.Register(text.NewTextDecoder(0), text.Extensions...)

	gc, err := graph.NewGraphClient(graph.NewGraphClientParams{
		Annotator: meetingAnnotator{},
		Decoders:  reg,
		Cache:     cache.New(cache.NewCacheParams{Options: cache.DefaultOptions(), Metrics: m}),
		Metrics:   m,
	})
	require.NoError(t, err)

	app := &mid.App{
		Graph:     gc,
		Snapshots: memory.NewMemoryStore(),
		Hub:       progress.NewHub(0),
		Metrics:   m,
		APIKey:    apiKey,
	}
	return testEnv{e: NewServer(app, ""), app: app}
}

func (env testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func processRequest(t *testing.T, fields map[string]string, files ...string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, name := range files {
		fw, err := w.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = fw.Write([]byte("Acme Corp met IBM in " + name))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/process", &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req
}

func decodeGraph(t *testing.T, rec *httptest.ResponseRecorder) common.GraphResponse {
	t.Helper()
	var resp common.GraphResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, "")
	rec := env.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestProcessThenView(t *testing.T) {
	env := newTestEnv(t, "")

	rec := env.do(processRequest(t, map[string]string{"node_limit": "2", "link_limit": "100"}, "a.txt", "b.txt"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	preview := decodeGraph(t, rec)
	require.NotEmpty(t, preview.Meta.QueryID)
	assert.True(t, preview.Meta.Truncated)
	assert.Equal(t, 2, preview.Meta.VisibleNodes)
	assert.Equal(t, 4, preview.Meta.TotalNodes)
	assert.Len(t, preview.Nodes, 2)

	rec = env.do(httptest.NewRequest(http.MethodGet, "/graph_view?query_id="+preview.Meta.QueryID+"&node_limit=10&link_limit=100", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	full := decodeGraph(t, rec)
	assert.False(t, full.Meta.Truncated)
	assert.Equal(t, full.Meta.TotalNodes, full.Meta.VisibleNodes)
	assert.Equal(t, full.Meta.TotalLinks, full.Meta.VisibleLinks)
	assert.Equal(t, preview.Meta.QueryID, full.Meta.QueryID)

	// no limits reuses the last served ones
	rec = env.do(httptest.NewRequest(http.MethodGet, "/graph_view?query_id="+preview.Meta.QueryID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	again := decodeGraph(t, rec)
	assert.Equal(t, 10, again.Meta.NodeLimit)
	assert.Equal(t, full.Nodes, again.Nodes)
}

func TestGraphView_Errors(t *testing.T) {
	env := newTestEnv(t, "")

	rec := env.do(httptest.NewRequest(http.MethodGet, "/graph_view?query_id=missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "query_not_found", decodeError(t, rec).Code)

	rec = env.do(httptest.NewRequest(http.MethodGet, "/graph_view", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(httptest.NewRequest(http.MethodGet, "/graph_view?query_id=x&node_limit=ten", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProcess_InvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]string
		files  []string
	}{
		{"depth too deep", map[string]string{"depth": "7"}, nil},
		{"zero node limit", map[string]string{"node_limit": "0"}, nil},
		{"urls not json", map[string]string{"urls": "https://example.org"}, nil},
		{"non http url", map[string]string{"urls": `["ftp://example.org"]`}, nil},
		{"unsupported upload", nil, []string{"scan.pdf"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, "")
			rec := env.do(processRequest(t, tt.fields, tt.files...))
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestShortestPath(t *testing.T) {
	env := newTestEnv(t, "")
	rec := env.do(processRequest(t, nil, "a.txt", "b.txt"))
	require.Equal(t, http.StatusOK, rec.Code)
	id := decodeGraph(t, rec).Meta.QueryID

	rec = env.do(httptest.NewRequest(http.MethodGet, "/shortest_path?query_id="+id+"&source=file:a.txt&target=file:b.txt", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body struct {
		Path []string `json:"path"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"file:a.txt", "entity:acme corp", "file:b.txt"}, body.Path)

	rec = env.do(httptest.NewRequest(http.MethodGet, "/shortest_path?query_id="+id+"&source=file:a.txt&target=file:a.txt", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Empty(t, body.Path)

	rec = env.do(httptest.NewRequest(http.MethodGet, "/shortest_path?query_id="+id+"&source=file:a.txt", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSnapshots(t *testing.T) {
	env := newTestEnv(t, "")
	rec := env.do(processRequest(t, nil, "a.txt"))
	require.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/snapshots?name=demo", bytes.NewReader(rec.Body.Bytes()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec = env.do(req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var saved struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &saved))
	require.NotEmpty(t, saved.ID)
	assert.Equal(t, "demo", saved.Name)

	rec = env.do(httptest.NewRequest(http.MethodGet, "/snapshots", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Snapshots []store.SnapshotInfo `json:"snapshots"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Snapshots, 1)
	assert.Equal(t, "demo", list.Snapshots[0].Name)

	rec = env.do(httptest.NewRequest(http.MethodGet, "/snapshots/"+saved.ID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	loaded := decodeGraph(t, rec)
	assert.Empty(t, loaded.Meta.QueryID)
	assert.NotEmpty(t, loaded.Nodes)

	rec = env.do(httptest.NewRequest(http.MethodGet, "/snapshots/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "snapshot_not_found", decodeError(t, rec).Code)
}

func TestAuth(t *testing.T) {
	env := newTestEnv(t, "secret")

	rec := env.do(httptest.NewRequest(http.MethodGet, "/graph_view?query_id=x", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/graph_view?query_id=x", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	assert.Equal(t, http.StatusUnauthorized, env.do(req).Code)

	req = httptest.NewRequest(http.MethodGet, "/graph_view?query_id=x", nil)
	req.Header.Set("Authorization", "Bearer secret")
	assert.Equal(t, http.StatusNotFound, env.do(req).Code)

	assert.Equal(t, http.StatusNotFound, env.do(httptest.NewRequest(http.MethodGet, "/graph_view?query_id=x&token=secret", nil)).Code)
	assert.Equal(t, http.StatusOK, env.do(httptest.NewRequest(http.MethodGet, "/health", nil)).Code)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, "")
	env.do(httptest.NewRequest(http.MethodGet, "/graph_view?query_id=missing", nil))

	rec := env.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "graphnet_view_requests_total")
}

func TestLogsStream(t *testing.T) {
	env := newTestEnv(t, "")
	srv := httptest.NewServer(env.e)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/logs", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get(echo.HeaderContentType))

	require.Eventually(t, func() bool { return env.app.Hub.Subscribers() == 1 }, 2*time.Second, 10*time.Millisecond)
	env.app.Hub.Publish("info", "[Process] Documents collected documents=2")

	scanner := bufio.NewScanner(resp.Body)
	var lines []string
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" && len(lines) > 0 {
			break
		}
		if line != "" {
			lines = append(lines, line)
		}
	}
	require.Len(t, lines, 2)
	assert.Equal(t, "event: log", lines[0])
	require.True(t, strings.HasPrefix(lines[1], "data: "))

	var e progress.Event
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(lines[1], "data: ")), &e))
	assert.Equal(t, "info", e.Level)
	assert.Equal(t, "[Process] Documents collected documents=2", e.Message)
}
