// Package search provides web search backends for company research.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"mockview/internal/domain"
	"mockview/internal/infra/config"
)

const maxSearchBodySize = 512 * 1024 // 512KB

// searxngResponse models the relevant portion of the SearXNG JSON response.
type searxngResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
		Engine  string `json:"engine"`
	} `json:"results"`
	NumberOfResults int `json:"number_of_results"`
}

// SearXNGProvider searches the web via a SearXNG instance.
type SearXNGProvider struct {
	client      *http.Client
	instanceURL string
	logger      *slog.Logger
}

// NewSearXNGProvider creates a search provider backed by a SearXNG instance.
func NewSearXNGProvider(instanceURL string, timeout time.Duration, logger *slog.Logger) *SearXNGProvider {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &SearXNGProvider{
		client:      &http.Client{Timeout: timeout},
		instanceURL: strings.TrimRight(instanceURL, "/"),
		logger:      logger,
	}
}

// Name implements domain.SearchProvider.
func (p *SearXNGProvider) Name() string { return "searxng" }

// Search implements domain.SearchProvider.
func (p *SearXNGProvider) Search(ctx context.Context, query string, maxResults int) ([]domain.SearchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.instanceURL+"/search", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	q := req.URL.Query()
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("pageno", "1")
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSearchBodySize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search failed (HTTP %d): %s", resp.StatusCode, string(body))
	}

	var searxResp searxngResponse
	if err := json.Unmarshal(body, &searxResp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	results := make([]domain.SearchResult, 0, len(searxResp.Results))
	for _, r := range searxResp.Results {
		if len(results) >= maxResults {
			break
		}
		results = append(results, domain.SearchResult{
			Title:   r.Title,
			Snippet: r.Content,
			URL:     r.URL,
		})
	}

	p.logger.Debug("searxng search completed", "query", query, "results", len(results))
	return results, nil
}

var _ domain.SearchProvider = (*SearXNGProvider)(nil)

// New builds the configured search provider. The searxng backend is
// wrapped with a TTL cache so repeated lookups for the same company
// within a session don't hammer the instance.
func New(cfg config.SearchConfig, logger *slog.Logger) (domain.SearchProvider, error) {
	switch cfg.Backend {
	case "searxng":
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("search: searxng backend requires base_url")
		}
		return NewCachedProvider(NewSearXNGProvider(cfg.BaseURL, cfg.Timeout, logger), cfg.CacheTTL), nil
	case "noop", "":
		return NewNoopProvider(), nil
	default:
		return nil, fmt.Errorf("search: unknown backend %q", cfg.Backend)
	}
}
