package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/app-idea-analyzer/internal/conf"
	globebiz "github.com/lk2023060901/app-idea-analyzer/internal/globe/biz"
	globeservice "github.com/lk2023060901/app-idea-analyzer/internal/globe/service"
	ideabiz "github.com/lk2023060901/app-idea-analyzer/internal/idea/biz"
	ideadata "github.com/lk2023060901/app-idea-analyzer/internal/idea/data"
	ideaservice "github.com/lk2023060901/app-idea-analyzer/internal/idea/service"
	"github.com/lk2023060901/app-idea-analyzer/internal/llm"
	marketbiz "github.com/lk2023060901/app-idea-analyzer/internal/market/biz"
	marketservice "github.com/lk2023060901/app-idea-analyzer/internal/market/service"
	"github.com/lk2023060901/app-idea-analyzer/internal/pkg/logger"
	"github.com/lk2023060901/app-idea-analyzer/internal/pkg/redis"
)

// stepLLM answers each completion step with a canned reply
type stepLLM map[string]string

func (s stepLLM) Complete(_ context.Context, req llm.CompletionRequest) (string, error) {
	return s[req.Step], nil
}

var replies = stepLLM{
	"plan":         `{"googleQuery":"meal planner","appStoreQuery":"meal planner","playStoreQuery":"meal planner"}`,
	"idea_details": `{"appName":"Meal Planner Pro","description":"Plans weekly meals.","category":"Productivity"}`,
	"globe":        `{"globeData":{"existing":["US"],"potential":["IN"],"challenging":["CN"]},"analysis":{"existing":"a","potential":"b","challenging":"c"}}`,
}

func newTestServer(t *testing.T, mutate func(*conf.Config)) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)

	config := conf.Default()
	if mutate != nil {
		mutate(config)
	}
	log := logger.NewNop()

	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	client := redis.NewFromUniversal(rdb, redis.DefaultConfig(), log)
	t.Cleanup(func() { _ = client.Close() })

	searchUC := marketbiz.NewSearchUseCase(
		marketbiz.NewQueryPlanner(replies, 0),
		marketbiz.NewAnalysisGenerator(replies, 0),
		nil,
		log,
	)
	ideaUC := ideabiz.NewIdeaUseCase(ideadata.NewRedisIdeaRepo(client), ideabiz.NewIdeaDetailsGenerator(replies, 0), log)

	table, err := globebiz.LoadCountryTable("")
	require.NoError(t, err)

	srv := NewHTTPServer(config, log,
		marketservice.NewSearchService(searchUC, log),
		ideaservice.NewIdeaService(ideaUC, log),
		globeservice.NewGlobeService(globebiz.NewClassifier(replies, 0), globebiz.NewRenderer(table), log),
	)
	return srv.Handler()
}

func do(h http.Handler, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	h.ServeHTTP(w, req)
	return w
}

func TestHealthAndMetrics(t *testing.T) {
	h := newTestServer(t, nil)

	w := do(h, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)

	w = do(h, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "# HELP")
}

func TestMetricsDisabled(t *testing.T) {
	h := newTestServer(t, func(c *conf.Config) { c.Metrics.Enabled = false })

	w := do(h, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNoRoute(t *testing.T) {
	h := newTestServer(t, nil)

	w := do(h, http.MethodGet, "/api/unknown", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Resource not found"}`, w.Body.String())
}

func TestUI(t *testing.T) {
	h := newTestServer(t, nil)

	w := do(h, http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "Check if your app idea already exists")

	w = do(h, http.MethodGet, "/static/app.js", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCORS_AnyOrigin(t *testing.T) {
	h := newTestServer(t, nil)

	w := do(h, http.MethodOptions, "/api/search", "", map[string]string{"Origin": "http://example.com"})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, "GET, POST, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "X-CSRF-Token")
}

func TestCORS_AllowList(t *testing.T) {
	h := newTestServer(t, func(c *conf.Config) {
		c.Server.CORS.AllowedOrigins = []string{"http://app.example.com"}
	})

	w := do(h, http.MethodGet, "/api/top-ideas", "", map[string]string{"Origin": "http://app.example.com"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "http://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, "Origin", w.Header().Get("Vary"))

	w = do(h, http.MethodGet, "/api/top-ideas", "", map[string]string{"Origin": "http://evil.example.com"})
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestAPIRoutes(t *testing.T) {
	h := newTestServer(t, nil)

	w := do(h, http.MethodGet, "/api/search?query=meal+planner", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"originalQuery": "meal planner",
		"searchQueries": {"googleQuery":"meal planner","appStoreQuery":"meal planner","playStoreQuery":"meal planner"},
		"results": [],
		"analysis": "No results found"
	}`, w.Body.String())

	w = do(h, http.MethodPost, "/api/top-ideas", `{"userInput":"an app that plans meals"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"appName":"Meal Planner Pro"`)

	w = do(h, http.MethodGet, "/api/top-ideas", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var ideas []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ideas))
	require.Len(t, ideas, 1)
	assert.Equal(t, "Meal Planner Pro", ideas[0]["appName"])
	assert.EqualValues(t, 1, ideas[0]["searches"])

	w = do(h, http.MethodGet, "/api/globe-data?query=meal+planner", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(h, http.MethodPost, "/api/globe-render", `{"globeData":{"existing":["US"],"potential":[],"challenging":[]},"widthSegments":4,"heightSegments":3}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var mesh struct {
		Colors []float32 `json:"colors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &mesh))
	assert.Len(t, mesh.Colors, 5*4*3)
}
