package domain

import (
	"context"
	"time"
)

// Role constants for chat messages.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is a single message in an LLM conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is sent to an LLM provider.
type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

// ChatResponse is returned from an LLM provider.
type ChatResponse struct {
	ID        string    `json:"id"`
	Model     string    `json:"model"`
	Content   string    `json:"content"`
	Usage     Usage     `json:"usage"`
	CreatedAt time.Time `json:"created_at"`
}

// Usage tracks token consumption for one call.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// LLMProvider abstracts a chat-completion backend. Calls raise on failure
// so the agents' degrade-not-propagate contract applies at their boundary.
type LLMProvider interface {
	Name() string
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// SearchResult is one hit from a web search.
type SearchResult struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	URL     string `json:"url"`
}

// SearchProvider abstracts a web-search backend. Implementations return
// zero results on failure rather than an error only at the agent level;
// the provider itself reports errors so adapters can log and degrade.
type SearchProvider interface {
	Name() string
	Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error)
}

// TokenCounter estimates token usage for cost accounting.
type TokenCounter interface {
	Count(model, text string) (int, error)
}

// TranscriptRecord is a completed session's archived transcript.
type TranscriptRecord struct {
	SessionID   string             `json:"session_id"`
	StartedAt   time.Time          `json:"started_at"`
	CompletedAt time.Time          `json:"completed_at"`
	Phase       InterviewPhase     `json:"phase"`
	Turns       []ConversationTurn `json:"turns"`
	Summary     string             `json:"summary,omitempty"`
	TotalCost   float64            `json:"total_cost"`
}

// TranscriptArchiver persists completed-session transcripts. Live session
// state stays in memory; only finished transcripts are archived.
type TranscriptArchiver interface {
	Archive(ctx context.Context, rec TranscriptRecord) error
	Get(ctx context.Context, sessionID string) (*TranscriptRecord, error)
	List(ctx context.Context, limit int) ([]TranscriptRecord, error)
	Close() error
}
