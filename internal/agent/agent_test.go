package agent

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"mockview/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeLLM is a scriptable chat provider that records requests.
type fakeLLM struct {
	mu    sync.Mutex
	reqs  []domain.ChatRequest
	reply string
	usage domain.Usage
	err   error
}

func (f *fakeLLM) Name() string { return "fake" }

func (f *fakeLLM) Chat(_ context.Context, req domain.ChatRequest) (*domain.ChatResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return nil, f.err
	}
	return &domain.ChatResponse{
		ID:        "resp-1",
		Model:     req.Model,
		Content:   f.reply,
		Usage:     f.usage,
		CreatedAt: time.Now(),
	}, nil
}

func (f *fakeLLM) lastRequest() domain.ChatRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reqs[len(f.reqs)-1]
}

// fakeSearch is a scriptable search provider that records queries.
type fakeSearch struct {
	mu      sync.Mutex
	queries []string
	results []domain.SearchResult
	err     error
}

func (f *fakeSearch) Name() string { return "fake-search" }

func (f *fakeSearch) Search(_ context.Context, query string, _ int) ([]domain.SearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

func newTestContext(interviewType string) *domain.InterviewContext {
	return domain.NewInterviewContext("sess-1",
		domain.LLMSettings{Provider: "openai", Model: "gpt-4o", Temperature: 0.7, MaxTokens: 150},
		domain.InterviewSettings{InterviewType: interviewType, Tone: "professional", Difficulty: "medium"},
		domain.CandidateInfo{})
}

func userMsg(content string) domain.AgentMessage {
	return domain.NewUserMessage(content, "sess-1", time.Now())
}

func systemMsg(content string) domain.AgentMessage {
	return domain.NewSystemEvent(content, "sess-1", time.Now())
}
