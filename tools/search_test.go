package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

const testKeyEnv = "SLEUTH_TEST_SERPAPI_KEY"

func TestExtractAnswer(t *testing.T) {
	testCases := []struct {
		name string
		body string
		want string
	}{
		{"AnswerBoxAnswer", `{"answer_box":{"answer":"42","snippet":"ignored"}}`, "42"},
		{"NumericAnswer", `{"answer_box":{"answer":42}}`, "42"},
		{"AnswerBoxSnippet", `{"answer_box":{"snippet":"from snippet"},"organic_results":[{"snippet":"organic"}]}`, "from snippet"},
		{"EmptyAnswerFallsThrough", `{"answer_box":{"answer":""},"organic_results":[{"snippet":"organic"}]}`, "organic"},
		{"OrganicOnly", `{"organic_results":[{"snippet":"foo"},{"snippet":"bar"}]}`, "foo"},
		{"EmptyOrganic", `{"organic_results":[]}`, SearchNoAnswer},
		{"WrongShapes", `{"answer_box":"text","organic_results":{"snippet":"x"}}`, SearchNoAnswer},
		{"Empty", `{}`, SearchNoAnswer},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var payload map[string]any
			if err := json.Unmarshal([]byte(tc.body), &payload); err != nil {
				t.Fatal(err)
			}
			if got := ExtractAnswer(payload); got != tc.want {
				t.Errorf("ExtractAnswer() = %q, want %q", got, tc.want)
			}
		})
	}
}

func newSearchServer(t *testing.T, status int, body string, calls *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		if r.URL.Query().Get("api_key") != "secret" {
			t.Errorf("expected api_key secret, got %q", r.URL.Query().Get("api_key"))
		}
		if r.URL.Query().Get("q") == "" {
			t.Error("expected q parameter")
		}
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSearchToolExecute(t *testing.T) {
	t.Setenv(testKeyEnv, "secret")

	var calls int32
	srv := newSearchServer(t, http.StatusOK, `{"answer_box":{"answer":"Paris"}}`, &calls)
	tool := NewSearchTool(SearchOptions{Endpoint: srv.URL, APIKeyEnv: testKeyEnv, CacheSize: 8})

	for i := 0; i < 2; i++ {
		got, err := tool.Execute(context.Background(), "capital of France")
		if err != nil {
			t.Fatalf("search must never return an error, got %v", err)
		}
		if got != "Paris" {
			t.Errorf("expected Paris, got %q", got)
		}
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("expected second lookup to be served from cache, backend saw %d calls", n)
	}
}

func TestSearchToolMasksFailures(t *testing.T) {
	t.Run("MissingKey", func(t *testing.T) {
		t.Setenv(testKeyEnv, "")
		var calls int32
		srv := newSearchServer(t, http.StatusOK, `{}`, &calls)
		tool := NewSearchTool(SearchOptions{Endpoint: srv.URL, APIKeyEnv: testKeyEnv})

		got, err := tool.Execute(context.Background(), "anything")
		if err != nil || got != SearchErrorResult {
			t.Errorf("Execute() = %q, %v; want %q", got, err, SearchErrorResult)
		}
		if atomic.LoadInt32(&calls) != 0 {
			t.Errorf("backend should not be called without a key")
		}
	})

	t.Run("HTTPError", func(t *testing.T) {
		t.Setenv(testKeyEnv, "secret")
		var calls int32
		srv := newSearchServer(t, http.StatusUnauthorized, `{"error":"Invalid API key"}`, &calls)
		tool := NewSearchTool(SearchOptions{Endpoint: srv.URL, APIKeyEnv: testKeyEnv})

		got, err := tool.Execute(context.Background(), "anything")
		if err != nil || got != SearchErrorResult {
			t.Errorf("Execute() = %q, %v; want %q", got, err, SearchErrorResult)
		}
	})

	t.Run("BadJSON", func(t *testing.T) {
		t.Setenv(testKeyEnv, "secret")
		var calls int32
		srv := newSearchServer(t, http.StatusOK, `<html>`, &calls)
		tool := NewSearchTool(SearchOptions{Endpoint: srv.URL, APIKeyEnv: testKeyEnv})

		got, err := tool.Execute(context.Background(), "anything")
		if err != nil || got != SearchErrorResult {
			t.Errorf("Execute() = %q, %v; want %q", got, err, SearchErrorResult)
		}
	})

	t.Run("NetworkError", func(t *testing.T) {
		t.Setenv(testKeyEnv, "secret")
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		endpoint := srv.URL
		srv.Close()
		tool := NewSearchTool(SearchOptions{Endpoint: endpoint, APIKeyEnv: testKeyEnv})

		got, err := tool.Execute(context.Background(), "anything")
		if err != nil || got != SearchErrorResult {
			t.Errorf("Execute() = %q, %v; want %q", got, err, SearchErrorResult)
		}
	})
}

func TestSearchToolNoAnswer(t *testing.T) {
	t.Setenv(testKeyEnv, "secret")
	var calls int32
	srv := newSearchServer(t, http.StatusOK, `{}`, &calls)
	tool := NewSearchTool(SearchOptions{Endpoint: srv.URL, APIKeyEnv: testKeyEnv, RequestsPerMinute: 600})

	got, err := tool.Execute(context.Background(), "obscure")
	if err != nil || got != SearchNoAnswer {
		t.Errorf("Execute() = %q, %v; want %q", got, err, SearchNoAnswer)
	}
}
