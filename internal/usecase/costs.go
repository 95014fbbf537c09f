package usecase

import (
	"math"
	"sync"
	"time"
)

// ModelPricing is the per-1K-token price of a model.
type ModelPricing struct {
	Input  float64
	Output float64
}

// pricing holds per-1K-token prices by provider and model. Unknown
// models cost zero rather than failing the call.
var pricing = map[string]map[string]ModelPricing{
	"openai": {
		"gpt-4o":        {Input: 0.0025, Output: 0.01},
		"gpt-4":         {Input: 0.03, Output: 0.06},
		"gpt-4-turbo":   {Input: 0.01, Output: 0.03},
		"gpt-3.5-turbo": {Input: 0.001, Output: 0.002},
	},
	"anthropic": {
		"claude-3-5-sonnet-20241022": {Input: 0.003, Output: 0.015},
		"claude-3-5-haiku-20241022":  {Input: 0.001, Output: 0.005},
		"claude-3-opus-20240229":     {Input: 0.015, Output: 0.075},
		"claude-3-5-sonnet":          {Input: 0.003, Output: 0.015},
		"claude-3-5-haiku":           {Input: 0.001, Output: 0.005},
		"claude-3-opus":              {Input: 0.015, Output: 0.075},
	},
}

// APICall is the record of a single LLM call.
type APICall struct {
	Timestamp    time.Time `json:"timestamp"`
	Provider     string    `json:"provider"`
	Model        string    `json:"model"`
	InputTokens  int       `json:"input_tokens"`
	OutputTokens int       `json:"output_tokens"`
	CostUSD      float64   `json:"cost_usd"`
}

// TokenStats aggregates token usage across a session.
type TokenStats struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// CostSummary is the display view of a session's spend.
type CostSummary struct {
	SessionID       string                        `json:"session_id"`
	DurationMinutes float64                       `json:"duration_minutes"`
	TotalCostUSD    float64                       `json:"total_cost_usd"`
	TotalCalls      int                           `json:"total_calls"`
	TokenStats      TokenStats                    `json:"token_stats"`
	CostBreakdown   map[string]map[string]float64 `json:"cost_breakdown"`
	LastUpdated     time.Time                     `json:"last_updated"`
}

// CostTracker accumulates LLM spend for one session. Safe for
// concurrent use; supporting agents record calls in parallel.
type CostTracker struct {
	mu        sync.Mutex
	sessionID string
	calls     []APICall
	startTime time.Time
}

// NewCostTracker creates a tracker for the session.
func NewCostTracker(sessionID string) *CostTracker {
	return &CostTracker{sessionID: sessionID, startTime: time.Now()}
}

// TextCost returns the price of a text generation call; zero for
// unknown provider/model pairs.
func TextCost(provider, model string, inputTokens, outputTokens int) float64 {
	p, ok := pricing[provider][model]
	if !ok {
		return 0
	}
	return float64(inputTokens)/1000*p.Input + float64(outputTokens)/1000*p.Output
}

// AddTextCall records a text generation call and returns its cost.
func (t *CostTracker) AddTextCall(provider, model string, inputTokens, outputTokens int) float64 {
	cost := TextCost(provider, model, inputTokens, outputTokens)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls = append(t.calls, APICall{
		Timestamp:    time.Now(),
		Provider:     provider,
		Model:        model,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		CostUSD:      cost,
	})
	return cost
}

// AddAgentCost records spend an agent reported through response
// metadata. Token counts were already accounted for inside the agent's
// provider call, so only the dollar amount is carried here, grouped
// under the "agent" pseudo-provider.
func (t *CostTracker) AddAgentCost(agent string, cost float64) {
	if cost <= 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls = append(t.calls, APICall{
		Timestamp: time.Now(),
		Provider:  "agent",
		Model:     agent,
		CostUSD:   cost,
	})
}

// TotalCost returns the session's total spend so far.
func (t *CostTracker) TotalCost() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.totalLocked()
}

func (t *CostTracker) totalLocked() float64 {
	total := 0.0
	for _, c := range t.calls {
		total += c.CostUSD
	}
	return total
}

// Breakdown groups spend by provider and model.
func (t *CostTracker) Breakdown() map[string]map[string]float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := map[string]map[string]float64{}
	for _, c := range t.calls {
		if out[c.Provider] == nil {
			out[c.Provider] = map[string]float64{}
		}
		out[c.Provider][c.Model] += c.CostUSD
	}
	return out
}

// Stats aggregates token counts across all recorded calls.
func (t *CostTracker) Stats() TokenStats {
	t.mu.Lock()
	defer t.mu.Unlock()

	var s TokenStats
	for _, c := range t.calls {
		s.InputTokens += c.InputTokens
		s.OutputTokens += c.OutputTokens
	}
	s.TotalTokens = s.InputTokens + s.OutputTokens
	return s
}

// Summary returns the full spend summary for display or archiving.
func (t *CostTracker) Summary() CostSummary {
	breakdown := t.Breakdown()
	stats := t.Stats()

	t.mu.Lock()
	defer t.mu.Unlock()
	return CostSummary{
		SessionID:       t.sessionID,
		DurationMinutes: math.Round(time.Since(t.startTime).Minutes()*10) / 10,
		TotalCostUSD:    math.Round(t.totalLocked()*10000) / 10000,
		TotalCalls:      len(t.calls),
		TokenStats:      stats,
		CostBreakdown:   breakdown,
		LastUpdated:     time.Now(),
	}
}

// EstimateTokens is the rough fallback used when no tokenizer is
// available: about 4 characters per token, never zero.
func EstimateTokens(text string) int {
	n := len(text) / 4
	if n < 1 {
		return 1
	}
	return n
}
