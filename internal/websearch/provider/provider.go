package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	wshttp "github.com/lk2023060901/app-idea-analyzer/internal/websearch/http"
	"github.com/lk2023060901/app-idea-analyzer/internal/websearch/types"
	"github.com/tidwall/gjson"
)

const (
	// DefaultMaxResults caps each adapter's result list
	DefaultMaxResults = 5

	defaultTimeout = 15 * time.Second
	maxBodyBytes   = 4 << 20
)

// Provider defines the interface for search providers
type Provider interface {
	// Search executes a search query
	Search(ctx context.Context, req *types.SearchRequest) (*types.SearchResponse, error)

	// GetID returns the provider ID
	GetID() types.ProviderID

	// GetName returns the provider name
	GetName() string

	// Validate validates the provider configuration
	Validate() error
}

// BaseProvider holds the SerpAPI plumbing shared by every engine adapter
type BaseProvider struct {
	config     *types.ProviderConfig
	httpClient *http.Client
	apiKeys    []string // Support multiple API keys for rotation
	keyIndex   atomic.Uint32
}

// NewBaseProvider creates a new base provider
func NewBaseProvider(config *types.ProviderConfig) *BaseProvider {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	var apiKeys []string
	for _, k := range strings.Split(config.APIKey, ",") {
		if k = strings.TrimSpace(k); k != "" {
			apiKeys = append(apiKeys, k)
		}
	}

	return &BaseProvider{
		config:     config,
		httpClient: wshttp.NewHTTPClient(timeout),
		apiKeys:    apiKeys,
	}
}

// GetID returns the provider ID
func (b *BaseProvider) GetID() types.ProviderID {
	return b.config.ID
}

// GetName returns the provider name
func (b *BaseProvider) GetName() string {
	return b.config.Name
}

// Validate validates the provider configuration
func (b *BaseProvider) Validate() error {
	return b.config.Validate()
}

// GetAPIKey returns the current API key (with rotation support)
func (b *BaseProvider) GetAPIKey() string {
	if len(b.apiKeys) == 0 {
		return ""
	}
	idx := b.keyIndex.Add(1) - 1
	return b.apiKeys[int(idx)%len(b.apiKeys)]
}

// maxResults resolves the cap: request hint, then config, then default
func (b *BaseProvider) maxResults(req *types.SearchRequest) int {
	if req.MaxResults > 0 {
		return req.MaxResults
	}
	if b.config.MaxResults > 0 {
		return b.config.MaxResults
	}
	return DefaultMaxResults
}

func (b *BaseProvider) newError(code, message string, kind error, cause error) *types.ProviderError {
	err := kind
	if cause != nil {
		err = fmt.Errorf("%w: %w", kind, cause)
	}
	return &types.ProviderError{
		Provider: b.config.ID,
		Code:     code,
		Message:  message,
		Err:      err,
	}
}

// fetch issues one GET against the SerpAPI endpoint and returns the parsed
// payload. Transport failures, non-2xx answers, invalid JSON and payloads
// carrying an "error" field become classified ProviderErrors. SerpAPI's
// "no results" answer is not an error.
func (b *BaseProvider) fetch(ctx context.Context, engine string, params url.Values) (gjson.Result, error) {
	params.Set("engine", engine)
	params.Set("api_key", b.GetAPIKey())
	params.Set("output", "json")

	endpoint := strings.TrimRight(b.config.APIHost, "/") + "/search.json?" + params.Encode()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return gjson.Result{}, b.newError("BAD_REQUEST", "Failed to create request", types.ErrRequestFailed, err)
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := b.httpClient.Do(httpReq)
	if err != nil {
		return gjson.Result{}, b.newError("REQUEST_FAILED", "Failed to execute request", types.ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return gjson.Result{}, b.newError("READ_FAILED", "Failed to read response", types.ErrRequestFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := gjson.GetBytes(body, "error").String()
		if msg == "" {
			msg = truncate(string(body), 200)
		}
		return gjson.Result{}, b.newError(fmt.Sprintf("HTTP_%d", resp.StatusCode), msg, types.ErrSearchAPI, nil)
	}

	if !gjson.ValidBytes(body) {
		return gjson.Result{}, b.newError("INVALID_JSON", "Response is not valid JSON", types.ErrUnexpectedFormat, nil)
	}

	payload := gjson.ParseBytes(body)
	if !payload.IsObject() {
		return gjson.Result{}, b.newError("INVALID_SHAPE", "Response is not a JSON object", types.ErrUnexpectedFormat, nil)
	}
	if msg := payload.Get("error"); msg.Exists() && !isEmptyResults(payload) {
		return gjson.Result{}, b.newError("API_ERROR", msg.String(), types.ErrSearchAPI, nil)
	}

	return payload, nil
}

// isEmptyResults recognizes SerpAPI's way of saying the engine found nothing
func isEmptyResults(payload gjson.Result) bool {
	state := strings.ToLower(payload.Get("search_information.organic_results_state").String())
	if strings.Contains(state, "empty") {
		return true
	}
	return strings.Contains(payload.Get("error").String(), "hasn't returned any results")
}

// resultArray returns the array at path, an empty array when the engine
// reported no results, or an unexpected format error
func (b *BaseProvider) resultArray(payload gjson.Result, path string) ([]gjson.Result, error) {
	arr := payload.Get(path)
	if arr.IsArray() {
		return arr.Array(), nil
	}
	if !arr.Exists() && isEmptyResults(payload) {
		return nil, nil
	}
	return nil, b.newError("INVALID_SHAPE", fmt.Sprintf("missing %q array", path), types.ErrUnexpectedFormat, nil)
}

func (b *BaseProvider) response(req *types.SearchRequest, results []*types.SearchResult, start time.Time) *types.SearchResponse {
	if results == nil {
		results = []*types.SearchResult{}
	}
	return &types.SearchResponse{
		Query:    req.Query,
		Results:  results,
		Took:     time.Since(start).Milliseconds(),
		Provider: b.config.ID,
	}
}

func (b *BaseProvider) localeParams(params url.Values, countryKey, languageKey string) {
	if b.config.Country != "" {
		params.Set(countryKey, b.config.Country)
	}
	if b.config.Language != "" {
		params.Set(languageKey, b.config.Language)
	}
}
