package search

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"mockview/internal/domain"
	"mockview/internal/infra/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSearXNGSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("path = %q", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("q") != "Zodiac" {
			t.Errorf("q = %q", q.Get("q"))
		}
		if q.Get("format") != "json" {
			t.Errorf("format = %q", q.Get("format"))
		}
		w.Write([]byte(`{"results":[
			{"title":"Zodiac Metrics","url":"https://example.com/1","content":"Analytics startup."},
			{"title":"Zodiac funding","url":"https://example.com/2","content":"Raised a series A."},
			{"title":"Unrelated","url":"https://example.com/3","content":"Horoscope site."}
		],"number_of_results":3}`))
	}))
	defer srv.Close()

	p := NewSearXNGProvider(srv.URL, 0, discardLogger())

	results, err := p.Search(context.Background(), "Zodiac", 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want capped at 2", len(results))
	}
	if results[0].Title != "Zodiac Metrics" || results[0].Snippet != "Analytics startup." {
		t.Errorf("first result = %+v", results[0])
	}
	if results[1].URL != "https://example.com/2" {
		t.Errorf("second result = %+v", results[1])
	}
}

func TestSearXNGErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "search unavailable", http.StatusBadGateway)
	}))
	defer srv.Close()

	p := NewSearXNGProvider(srv.URL, 0, discardLogger())
	if _, err := p.Search(context.Background(), "anything", 3); err == nil {
		t.Fatal("expected error on HTTP 502")
	}
}

type countingProvider struct {
	mu      sync.Mutex
	calls   int
	results []domain.SearchResult
	err     error
}

func (p *countingProvider) Name() string { return "counting" }

func (p *countingProvider) Search(_ context.Context, _ string, _ int) ([]domain.SearchResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return p.results, p.err
}

func (p *countingProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func TestCachedProviderHitsAndExpiry(t *testing.T) {
	inner := &countingProvider{results: []domain.SearchResult{{Title: "hit"}}}
	c := NewCachedProvider(inner, 50*time.Millisecond)

	for i := 0; i < 3; i++ {
		results, err := c.Search(context.Background(), "Acme", 3)
		if err != nil {
			t.Fatalf("Search: %v", err)
		}
		if len(results) != 1 || results[0].Title != "hit" {
			t.Errorf("results = %+v", results)
		}
	}
	if inner.callCount() != 1 {
		t.Errorf("calls = %d, want 1 (cached)", inner.callCount())
	}

	// A different query misses.
	c.Search(context.Background(), "Initech", 3)
	if inner.callCount() != 2 {
		t.Errorf("calls = %d after distinct query", inner.callCount())
	}

	time.Sleep(60 * time.Millisecond)
	c.Search(context.Background(), "Acme", 3)
	if inner.callCount() != 3 {
		t.Errorf("calls = %d after TTL expiry", inner.callCount())
	}
}

func TestCachedProviderDoesNotCacheErrors(t *testing.T) {
	inner := &countingProvider{err: errors.New("backend down")}
	c := NewCachedProvider(inner, time.Minute)

	c.Search(context.Background(), "Acme", 3)
	c.Search(context.Background(), "Acme", 3)
	if inner.callCount() != 2 {
		t.Errorf("calls = %d, errors must not be cached", inner.callCount())
	}
}

func TestNewBackendSelection(t *testing.T) {
	p, err := New(config.SearchConfig{Backend: "noop"}, discardLogger())
	if err != nil || p.Name() != "noop" {
		t.Errorf("noop backend: %v, %v", p, err)
	}

	p, err = New(config.SearchConfig{Backend: "searxng", BaseURL: "http://localhost:8888"}, discardLogger())
	if err != nil || p.Name() != "searxng" {
		t.Errorf("searxng backend: %v, %v", p, err)
	}

	if _, err := New(config.SearchConfig{Backend: "searxng"}, discardLogger()); err == nil {
		t.Error("searxng without base_url should fail")
	}

	if _, err := New(config.SearchConfig{Backend: "bing"}, discardLogger()); err == nil {
		t.Error("unknown backend should fail")
	}

	results, err := NewNoopProvider().Search(context.Background(), "anything", 3)
	if err != nil || len(results) != 0 {
		t.Errorf("noop search = %v, %v", results, err)
	}
}
