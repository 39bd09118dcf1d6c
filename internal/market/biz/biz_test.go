package biz

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lk2023060901/app-idea-analyzer/internal/llm"
	"github.com/lk2023060901/app-idea-analyzer/internal/pkg/logger"
	"github.com/lk2023060901/app-idea-analyzer/internal/websearch/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePlanner struct {
	plan *QueryPlan
	err  error
}

func (f *fakePlanner) Plan(_ context.Context, _ string) (*QueryPlan, error) {
	return f.plan, f.err
}

type fakeAnalyzer struct {
	calls   atomic.Int32
	results []*types.SearchResult
	err     error
}

func (f *fakeAnalyzer) Analyze(_ context.Context, _ string, results []*types.SearchResult) (*MarketAnalysis, error) {
	f.calls.Add(1)
	f.results = results
	if f.err != nil {
		return nil, f.err
	}
	return &MarketAnalysis{Structured: &StructuredAnalysis{Summary: "crowded market"}}, nil
}

type fakeProvider struct {
	id      types.ProviderID
	results []*types.SearchResult
	err     error
	delay   time.Duration

	mu    sync.Mutex
	query string
}

func (f *fakeProvider) Search(ctx context.Context, req *types.SearchRequest) (*types.SearchResponse, error) {
	f.mu.Lock()
	f.query = req.Query
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &types.SearchResponse{Query: req.Query, Results: f.results, Provider: f.id}, nil
}

func (f *fakeProvider) GetID() types.ProviderID { return f.id }
func (f *fakeProvider) GetName() string         { return string(f.id) }
func (f *fakeProvider) Validate() error         { return nil }

func (f *fakeProvider) lastQuery() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.query
}

func result(title string, source types.Source) *types.SearchResult {
	return &types.SearchResult{Title: title, Link: "https://example.com/" + title, Snippet: title + " snippet", Source: source}
}

var testPlan = &QueryPlan{
	GoogleQuery:    "recipe sharing app",
	AppStoreQuery:  "recipe share",
	PlayStoreQuery: "recipes social",
}

func providers() (*fakeProvider, *fakeProvider, *fakeProvider) {
	return &fakeProvider{id: types.ProviderGoogle},
		&fakeProvider{id: types.ProviderAppStore},
		&fakeProvider{id: types.ProviderPlayStore}
}

func registrations(google, appStore, playStore *fakeProvider) []Registration {
	return []Registration{
		{Provider: google, Policy: types.FailurePropagate},
		{Provider: appStore, Policy: types.FailureDegrade},
		{Provider: playStore, Policy: types.FailureDegrade},
	}
}

func TestAggregate_MergesInRegistrationOrder(t *testing.T) {
	google, appStore, playStore := providers()
	google.results = []*types.SearchResult{result("g1", types.SourceGoogle), result("g2", types.SourceGoogle)}
	appStore.results = []*types.SearchResult{result("a1", types.SourceAppStore)}
	playStore.results = []*types.SearchResult{result("p1", types.SourcePlayStore)}
	// the fastest provider must still come last
	google.delay = 30 * time.Millisecond

	analyzer := &fakeAnalyzer{}
	uc := NewSearchUseCase(&fakePlanner{plan: testPlan}, analyzer, registrations(google, appStore, playStore), logger.NewNop())

	out, err := uc.Aggregate(context.Background(), "  an app to share recipes  ")
	require.NoError(t, err)

	titles := make([]string, 0, len(out.Results))
	for _, r := range out.Results {
		titles = append(titles, r.Title)
	}
	assert.Equal(t, []string{"g1", "g2", "a1", "p1"}, titles)
	assert.Equal(t, testPlan, out.Plan)
	assert.Equal(t, int32(1), analyzer.calls.Load())
	assert.Len(t, analyzer.results, 4)
	require.NotNil(t, out.Analysis.Structured)
	assert.Equal(t, "crowded market", out.Analysis.Structured.Summary)

	assert.Equal(t, "recipe sharing app", google.lastQuery())
	assert.Equal(t, "recipe share", appStore.lastQuery())
	assert.Equal(t, "recipes social", playStore.lastQuery())
}

func TestAggregate_EmptyQuery(t *testing.T) {
	google, appStore, playStore := providers()
	uc := NewSearchUseCase(&fakePlanner{plan: testPlan}, &fakeAnalyzer{}, registrations(google, appStore, playStore), logger.NewNop())

	_, err := uc.Aggregate(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyQuery)
	assert.Empty(t, google.lastQuery())
}

func TestAggregate_NoResults(t *testing.T) {
	google, appStore, playStore := providers()
	analyzer := &fakeAnalyzer{}
	uc := NewSearchUseCase(&fakePlanner{plan: testPlan}, analyzer, registrations(google, appStore, playStore), logger.NewNop())

	out, err := uc.Aggregate(context.Background(), "something nobody built")
	require.NoError(t, err)
	assert.Empty(t, out.Results)
	assert.NotNil(t, out.Results)
	assert.Nil(t, out.Analysis.Structured)
	assert.Equal(t, NoResultsAnalysis, out.Analysis.Text)
	assert.Equal(t, int32(0), analyzer.calls.Load())
}

func TestAggregate_DegradedStoreContributesNothing(t *testing.T) {
	google, appStore, playStore := providers()
	google.results = []*types.SearchResult{result("g1", types.SourceGoogle)}
	appStore.err = errors.Join(types.ErrSearchAPI, errors.New("quota exceeded"))
	playStore.results = []*types.SearchResult{result("p1", types.SourcePlayStore)}

	analyzer := &fakeAnalyzer{}
	uc := NewSearchUseCase(&fakePlanner{plan: testPlan}, analyzer, registrations(google, appStore, playStore), logger.NewNop())

	out, err := uc.Aggregate(context.Background(), "recipes")
	require.NoError(t, err)
	require.Len(t, out.Results, 2)
	assert.Equal(t, "g1", out.Results[0].Title)
	assert.Equal(t, "p1", out.Results[1].Title)
	assert.Equal(t, int32(1), analyzer.calls.Load())
}

func TestAggregate_PropagatedErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind ErrorKind
	}{
		{name: "search api", err: &types.ProviderError{Provider: "google", Code: "api_error", Message: "Invalid API key", Err: types.ErrSearchAPI}, kind: KindSearchAPI},
		{name: "unexpected format", err: &types.ProviderError{Provider: "google", Code: "format", Message: "no results", Err: types.ErrUnexpectedFormat}, kind: KindUnexpectedFormat},
		{name: "transport", err: &types.ProviderError{Provider: "google", Code: "request", Message: "dial tcp", Err: types.ErrRequestFailed}, kind: KindGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			google, appStore, playStore := providers()
			google.err = tt.err
			appStore.results = []*types.SearchResult{result("a1", types.SourceAppStore)}

			analyzer := &fakeAnalyzer{}
			uc := NewSearchUseCase(&fakePlanner{plan: testPlan}, analyzer, registrations(google, appStore, playStore), logger.NewNop())

			out, err := uc.Aggregate(context.Background(), "recipes")
			require.Error(t, err)
			assert.Nil(t, out)

			var aggErr *AggregationError
			require.ErrorAs(t, err, &aggErr)
			assert.Equal(t, tt.kind, aggErr.Kind)
			assert.Equal(t, "search", aggErr.Stage)
			assert.Equal(t, types.ProviderGoogle, aggErr.Provider)
			assert.ErrorIs(t, err, tt.err)
			assert.Equal(t, int32(0), analyzer.calls.Load())
		})
	}
}

func TestAggregate_PropagateStorePolicy(t *testing.T) {
	google, appStore, playStore := providers()
	google.results = []*types.SearchResult{result("g1", types.SourceGoogle)}
	playStore.err = &types.ProviderError{Provider: "play_store", Code: "format", Err: types.ErrUnexpectedFormat}

	regs := registrations(google, appStore, playStore)
	regs[2].Policy = types.FailurePropagate
	uc := NewSearchUseCase(&fakePlanner{plan: testPlan}, &fakeAnalyzer{}, regs, logger.NewNop())

	_, err := uc.Aggregate(context.Background(), "recipes")
	var aggErr *AggregationError
	require.ErrorAs(t, err, &aggErr)
	assert.Equal(t, KindUnexpectedFormat, aggErr.Kind)
	assert.Equal(t, types.ProviderPlayStore, aggErr.Provider)
}

func TestAggregate_ProviderTimeout(t *testing.T) {
	google, appStore, playStore := providers()
	google.results = []*types.SearchResult{result("g1", types.SourceGoogle)}
	appStore.delay = time.Second

	regs := registrations(google, appStore, playStore)
	regs[1].Timeout = 20 * time.Millisecond
	uc := NewSearchUseCase(&fakePlanner{plan: testPlan}, &fakeAnalyzer{}, regs, logger.NewNop())

	start := time.Now()
	out, err := uc.Aggregate(context.Background(), "recipes")
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	require.Len(t, out.Results, 1)
}

func TestAggregate_PlannerAndAnalyzerErrors(t *testing.T) {
	malformed := &llm.MalformedOutputError{Step: "plan", Reason: "no JSON object found"}

	t.Run("planner", func(t *testing.T) {
		google, appStore, playStore := providers()
		uc := NewSearchUseCase(&fakePlanner{err: malformed}, &fakeAnalyzer{}, registrations(google, appStore, playStore), logger.NewNop())

		_, err := uc.Aggregate(context.Background(), "recipes")
		var aggErr *AggregationError
		require.ErrorAs(t, err, &aggErr)
		assert.Equal(t, KindMalformedModelOutput, aggErr.Kind)
		assert.Equal(t, "plan", aggErr.Stage)
		assert.Empty(t, google.lastQuery())
	})

	t.Run("analyzer", func(t *testing.T) {
		google, appStore, playStore := providers()
		google.results = []*types.SearchResult{result("g1", types.SourceGoogle)}
		analyzer := &fakeAnalyzer{err: llm.ErrCompletionFailed}
		uc := NewSearchUseCase(&fakePlanner{plan: testPlan}, analyzer, registrations(google, appStore, playStore), logger.NewNop())

		_, err := uc.Aggregate(context.Background(), "recipes")
		var aggErr *AggregationError
		require.ErrorAs(t, err, &aggErr)
		assert.Equal(t, KindGeneric, aggErr.Kind)
		assert.Equal(t, "analysis", aggErr.Stage)
		assert.ErrorIs(t, err, llm.ErrCompletionFailed)
	})
}

// scriptedLLM returns one canned reply and records the request
type scriptedLLM struct {
	reply string
	req   llm.CompletionRequest
}

func (s *scriptedLLM) Complete(_ context.Context, req llm.CompletionRequest) (string, error) {
	s.req = req
	return s.reply, nil
}

func TestQueryPlanner(t *testing.T) {
	t.Run("decodes and trims", func(t *testing.T) {
		completer := &scriptedLLM{reply: "```json\n{\"googleQuery\": \" recipe app \", \"appStoreQuery\": \"recipes\", \"playStoreQuery\": \"cooking\"}\n```"}
		plan, err := NewQueryPlanner(completer, 0).Plan(context.Background(), "share recipes")
		require.NoError(t, err)
		assert.Equal(t, &QueryPlan{GoogleQuery: "recipe app", AppStoreQuery: "recipes", PlayStoreQuery: "cooking"}, plan)
		assert.Equal(t, "plan", completer.req.Step)
		assert.Contains(t, completer.req.Prompt, `"share recipes"`)
	})

	t.Run("blank query is malformed", func(t *testing.T) {
		completer := &scriptedLLM{reply: `{"googleQuery": "   ", "appStoreQuery": "recipes", "playStoreQuery": "cooking"}`}
		plan, err := NewQueryPlanner(completer, 0).Plan(context.Background(), "share recipes")
		assert.Nil(t, plan)
		assert.ErrorIs(t, err, llm.ErrMalformedOutput)
		assert.Equal(t, KindMalformedModelOutput, Classify(err))
	})

	t.Run("missing query is malformed", func(t *testing.T) {
		completer := &scriptedLLM{reply: `{"googleQuery": "recipe app", "appStoreQuery": "recipes"}`}
		_, err := NewQueryPlanner(completer, 0).Plan(context.Background(), "share recipes")
		assert.ErrorIs(t, err, llm.ErrMalformedOutput)
	})
}

func TestAnalysisGenerator(t *testing.T) {
	completer := &scriptedLLM{reply: `{
		"summary": "Recipe sharing is popular",
		"existingApps": [{"name": "Yummly", "description": "Recipe discovery"}],
		"marketAnalysis": {"keyPlayers": ["Yummly"], "trends": ["video recipes"]},
		"userDemographics": {"ageGroups": ["25-34"]},
		"monetizationStrategies": ["subscriptions"],
		"challenges": ["competition"],
		"opportunities": ["niche diets"]
	}`}
	results := []*types.SearchResult{result("Yummly", types.SourceAppStore)}

	analysis, err := NewAnalysisGenerator(completer, 0).Analyze(context.Background(), "share recipes", results)
	require.NoError(t, err)
	require.NotNil(t, analysis.Structured)
	assert.Equal(t, "Recipe sharing is popular", analysis.Structured.Summary)
	assert.Equal(t, llm.Text("Yummly"), analysis.Structured.ExistingApps[0].Name)
	assert.Equal(t, llm.TextList{"video recipes"}, analysis.Structured.MarketAnalysis.Trends)
	assert.Contains(t, completer.req.Prompt, "1. [AppStore] Yummly: Yummly snippet")
	assert.Equal(t, 1000, completer.req.MaxTokens)

	completer.reply = `{"existingApps": []}`
	_, err = NewAnalysisGenerator(completer, 0).Analyze(context.Background(), "share recipes", results)
	assert.ErrorIs(t, err, llm.ErrMalformedOutput)
}

func TestAnalysisGenerator_LooseOptionalFields(t *testing.T) {
	completer := &scriptedLLM{reply: `{
		"summary": "Budget apps are crowded",
		"existingApps": [{"name": "Mint", "description": null, "marketShare": 12.5, "revenue": null}],
		"marketAnalysis": {"totalMarketSize": 4000000000, "growthRate": null, "keyPlayers": ["Mint", null, 42], "trends": null},
		"userDemographics": null,
		"monetizationStrategies": "subscriptions",
		"challenges": [],
		"opportunities": null
	}`}

	analysis, err := NewAnalysisGenerator(completer, 0).Analyze(context.Background(), "budget tracker", nil)
	require.NoError(t, err)

	got := analysis.Structured
	require.Len(t, got.ExistingApps, 1)
	assert.Equal(t, llm.Text("12.5"), got.ExistingApps[0].MarketShare)
	assert.Empty(t, got.ExistingApps[0].Revenue)
	assert.Empty(t, got.ExistingApps[0].Description)
	assert.Equal(t, llm.Text("4000000000"), got.MarketAnalysis.TotalMarketSize)
	assert.Equal(t, llm.TextList{"Mint", "42"}, got.MarketAnalysis.KeyPlayers)
	assert.Empty(t, got.MarketAnalysis.Trends)
	assert.Equal(t, llm.TextList{"subscriptions"}, got.MonetizationStrategies)

	body, err := json.Marshal(analysis)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"marketShare":"12.5"`)
	assert.NotContains(t, string(body), `"revenue"`)
}

func TestAnalysisGenerator_BlankSummary(t *testing.T) {
	completer := &scriptedLLM{reply: `{"summary": "   "}`}
	_, err := NewAnalysisGenerator(completer, 0).Analyze(context.Background(), "budget tracker", nil)
	assert.ErrorIs(t, err, llm.ErrMalformedOutput)
}

func TestMarketAnalysisJSON(t *testing.T) {
	text, err := json.Marshal(TextAnalysis(NoResultsAnalysis))
	require.NoError(t, err)
	assert.Equal(t, `"No results found"`, string(text))

	structured, err := json.Marshal(&MarketAnalysis{Structured: &StructuredAnalysis{Summary: "ok"}})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(structured), `{"summary":"ok"`))
}
