package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"mockview/internal/domain"
	"mockview/internal/infra/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOpenAIChat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("auth header = %q", got)
		}

		var req openaiRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "gpt-4o" {
			t.Errorf("model = %q", req.Model)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != domain.RoleSystem {
			t.Errorf("messages = %+v", req.Messages)
		}
		if req.Temperature == nil || *req.Temperature != 0.7 {
			t.Errorf("temperature = %v", req.Temperature)
		}

		json.NewEncoder(w).Encode(openaiResponse{
			ID:    "chatcmpl-1",
			Model: "gpt-4o",
			Choices: []openaiChoice{
				{Message: openaiMessage{Role: domain.RoleAssistant, Content: "Tell me about yourself."}},
			},
			Usage:   openaiUsage{PromptTokens: 20, CompletionTokens: 6, TotalTokens: 26},
			Created: 1700000000,
		})
	}))
	defer srv.Close()

	p := NewOpenAIProvider(config.ProviderConfig{
		Name:    "openai",
		Model:   "gpt-4o",
		APIKey:  "test-key",
		BaseURL: srv.URL,
	}, discardLogger())

	resp, err := p.Chat(context.Background(), domain.ChatRequest{
		Model: "gpt-4o",
		Messages: []domain.ChatMessage{
			{Role: domain.RoleSystem, Content: "You are an interviewer."},
			{Role: domain.RoleUser, Content: "start"},
		},
		Temperature: 0.7,
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.Content != "Tell me about yourself." {
		t.Errorf("content = %q", resp.Content)
	}
	if resp.Usage.TotalTokens != 26 {
		t.Errorf("usage = %+v", resp.Usage)
	}
}

func TestOpenAIDefaultsModel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req openaiRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Model != "gpt-4o-mini" {
			t.Errorf("model = %q, want configured default", req.Model)
		}
		json.NewEncoder(w).Encode(openaiResponse{ID: "chatcmpl-2", Model: req.Model})
	}))
	defer srv.Close()

	p := NewOpenAIProvider(config.ProviderConfig{Name: "openai", Model: "gpt-4o-mini", BaseURL: srv.URL}, discardLogger())
	if _, err := p.Chat(context.Background(), domain.ChatRequest{
		Messages: []domain.ChatMessage{{Role: domain.RoleUser, Content: "hi"}},
	}); err != nil {
		t.Fatalf("Chat: %v", err)
	}
}

func TestOpenAIErrorMapping(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusTooManyRequests, domain.ErrRateLimit},
		{http.StatusUnauthorized, domain.ErrAuthInvalid},
		{http.StatusInternalServerError, domain.ErrProviderError},
	}
	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
			w.Write([]byte(`{"error":"nope"}`))
		}))

		p := NewOpenAIProvider(config.ProviderConfig{Name: "openai", BaseURL: srv.URL}, discardLogger())
		_, err := p.Chat(context.Background(), domain.ChatRequest{
			Messages: []domain.ChatMessage{{Role: domain.RoleUser, Content: "hi"}},
		})
		if !errors.Is(err, tt.want) {
			t.Errorf("status %d: err = %v, want %v", tt.status, err, tt.want)
		}
		srv.Close()
	}
}
