package llm

import (
	"context"
	"testing"

	"mockview/internal/domain"
)

type wordCounter struct{}

func (wordCounter) Count(_ string, text string) (int, error) {
	n := 0
	inWord := false
	for _, r := range text {
		if r == ' ' {
			inWord = false
			continue
		}
		if !inWord {
			n++
			inWord = true
		}
	}
	return n, nil
}

func TestMeteredProviderFillsMissingUsage(t *testing.T) {
	inner := &stubProvider{resp: &domain.ChatResponse{Content: "two words"}}
	p := NewMeteredProvider(inner, wordCounter{})

	resp, err := p.Chat(context.Background(), domain.ChatRequest{
		Model: "gpt-4o",
		Messages: []domain.ChatMessage{
			{Role: domain.RoleSystem, Content: "one two three"},
			{Role: domain.RoleUser, Content: "four five"},
		},
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.Usage.PromptTokens != 5 {
		t.Errorf("prompt tokens = %d", resp.Usage.PromptTokens)
	}
	if resp.Usage.CompletionTokens != 2 {
		t.Errorf("completion tokens = %d", resp.Usage.CompletionTokens)
	}
	if resp.Usage.TotalTokens != 7 {
		t.Errorf("total tokens = %d", resp.Usage.TotalTokens)
	}
}

func TestMeteredProviderKeepsBackendUsage(t *testing.T) {
	inner := &stubProvider{resp: &domain.ChatResponse{
		Content: "two words",
		Usage:   domain.Usage{PromptTokens: 100, CompletionTokens: 50, TotalTokens: 150},
	}}
	p := NewMeteredProvider(inner, wordCounter{})

	resp, err := p.Chat(context.Background(), domain.ChatRequest{Model: "gpt-4o"})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.Usage.TotalTokens != 150 {
		t.Errorf("usage = %+v, backend counts must win", resp.Usage)
	}
}

func TestTiktokenCounterCachesEncoders(t *testing.T) {
	c := NewTiktokenCounter()

	n1, err := c.Count("gpt-4o", "Hello, how are you today?")
	if err != nil {
		t.Skipf("encoding unavailable: %v", err)
	}
	if n1 == 0 {
		t.Error("zero tokens for non-empty text")
	}

	n2, err := c.Count("gpt-4o", "Hello, how are you today?")
	if err != nil {
		t.Fatalf("second count: %v", err)
	}
	if n1 != n2 {
		t.Errorf("counts differ: %d vs %d", n1, n2)
	}
}
