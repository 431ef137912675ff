package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/m4xw311/sleuth/errors"
	"golang.org/x/time/rate"
)

const (
	SearchNoAnswer    = "No answer found"
	SearchErrorResult = "Error in search"

	searchTimeout = 30 * time.Second
)

// SearchOptions configures the search tool.
type SearchOptions struct {
	Endpoint          string
	Engine            string
	APIKeyEnv         string
	RequestsPerMinute int
	CacheSize         int
	HTTPClient        *http.Client
}

// SearchTool answers a free-text query through the SerpApi search API. It
// never returns an error: every failure becomes SearchErrorResult.
type SearchTool struct {
	endpoint  string
	engine    string
	apiKeyEnv string
	client    *http.Client
	limiter   *rate.Limiter
	cache     *lru.Cache[string, string]
}

func NewSearchTool(opts SearchOptions) *SearchTool {
	s := &SearchTool{
		endpoint:  opts.Endpoint,
		engine:    opts.Engine,
		apiKeyEnv: opts.APIKeyEnv,
		client:    opts.HTTPClient,
	}
	if s.endpoint == "" {
		s.endpoint = "https://serpapi.com/search.json"
	}
	if s.engine == "" {
		s.engine = "google"
	}
	if s.apiKeyEnv == "" {
		s.apiKeyEnv = "SERPAPI_API_KEY"
	}
	if s.client == nil {
		s.client = &http.Client{Timeout: searchTimeout}
	}
	if opts.RequestsPerMinute > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(float64(opts.RequestsPerMinute)/60.0), 1)
	}
	if opts.CacheSize > 0 {
		// lru.New only fails for a non-positive size.
		s.cache, _ = lru.New[string, string](opts.CacheSize)
	}
	return s
}

func (s *SearchTool) Name() string { return "search" }
func (s *SearchTool) Description() string {
	return "a search engine. useful for when you need to answer questions about current events. input should be a search query."
}

func (s *SearchTool) Execute(ctx context.Context, query string) (string, error) {
	answer, err := s.search(ctx, query)
	if err != nil {
		log.Error("search failed", "op", "search", "query", query, "err", err)
		return SearchErrorResult, nil
	}
	return answer, nil
}

func (s *SearchTool) search(ctx context.Context, query string) (string, error) {
	// The credential is only required once the tool is actually used.
	apiKey := os.Getenv(s.apiKeyEnv)
	if apiKey == "" {
		return "", errors.New("SerpApi API key not found in %s", s.apiKeyEnv)
	}

	if s.cache != nil {
		if cached, ok := s.cache.Get(query); ok {
			log.Debug("search cache hit", "query", query)
			return cached, nil
		}
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return "", errors.Wrapf(err, "waiting for search rate limiter")
		}
	}

	q := url.Values{}
	q.Set("engine", s.engine)
	q.Set("q", query)
	q.Set("api_key", apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return "", errors.Wrapf(err, "create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", errors.Wrapf(err, "request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrapf(err, "read response")
	}
	if resp.StatusCode != http.StatusOK {
		return "", errors.New("search API returned %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", errors.Wrapf(err, "parse response")
	}
	if msg, ok := payload["error"]; ok {
		return "", errors.New("search API error: %v", msg)
	}

	answer := ExtractAnswer(payload)
	if s.cache != nil {
		s.cache.Add(query, answer)
	}
	return answer, nil
}

// ExtractAnswer probes a search response for the best available answer:
// answer_box.answer, then answer_box.snippet, then the first organic result's
// snippet, falling back to SearchNoAnswer.
func ExtractAnswer(payload map[string]any) string {
	if box, ok := payload["answer_box"].(map[string]any); ok {
		if v, ok := textValue(box["answer"]); ok {
			return v
		}
		if v, ok := textValue(box["snippet"]); ok {
			return v
		}
	}
	if results, ok := payload["organic_results"].([]any); ok && len(results) > 0 {
		if first, ok := results[0].(map[string]any); ok {
			if v, ok := textValue(first["snippet"]); ok {
				return v
			}
		}
	}
	return SearchNoAnswer
}

// textValue accepts non-empty strings and numbers.
func textValue(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, t != ""
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	default:
		return "", false
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return fmt.Sprintf("%s...", s[:n])
}
