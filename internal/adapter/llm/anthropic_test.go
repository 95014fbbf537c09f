package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"mockview/internal/domain"
	"mockview/internal/infra/config"
)

func TestAnthropicChat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("x-api-key"); got != "test-key" {
			t.Errorf("api key header = %q", got)
		}
		if got := r.Header.Get("anthropic-version"); got != defaultAnthropicVersion {
			t.Errorf("version header = %q", got)
		}

		var req anthropicRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.System != "You are an interviewer." {
			t.Errorf("system = %q, want system prompt lifted out of messages", req.System)
		}
		if len(req.Messages) != 1 || req.Messages[0].Role != domain.RoleUser {
			t.Errorf("messages = %+v", req.Messages)
		}
		if req.MaxTokens != 500 {
			t.Errorf("max_tokens = %d", req.MaxTokens)
		}

		json.NewEncoder(w).Encode(anthropicResponse{
			ID:    "msg-1",
			Model: "claude-3-5-haiku",
			Content: []anthropicContent{
				{Type: "text", Text: "Walk me "},
				{Type: "text", Text: "through your last project."},
			},
			Usage: anthropicUsage{InputTokens: 15, OutputTokens: 8},
		})
	}))
	defer srv.Close()

	p := NewAnthropicProvider(config.ProviderConfig{
		Name:    "anthropic",
		Model:   "claude-3-5-haiku",
		APIKey:  "test-key",
		BaseURL: srv.URL,
	}, discardLogger())

	resp, err := p.Chat(context.Background(), domain.ChatRequest{
		Model: "claude-3-5-haiku",
		Messages: []domain.ChatMessage{
			{Role: domain.RoleSystem, Content: "You are an interviewer."},
			{Role: domain.RoleUser, Content: "start"},
		},
		MaxTokens: 500,
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.Content != "Walk me through your last project." {
		t.Errorf("content = %q", resp.Content)
	}
	if resp.Usage.TotalTokens != 23 {
		t.Errorf("usage = %+v, want input+output summed", resp.Usage)
	}
}

func TestAnthropicMaxTokensDefault(t *testing.T) {
	req := toAnthropicRequest(domain.ChatRequest{
		Messages: []domain.ChatMessage{{Role: domain.RoleUser, Content: "hi"}},
	})
	if req.MaxTokens != 4096 {
		t.Errorf("max_tokens = %d, want API-required default", req.MaxTokens)
	}
}
