package usecase

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

// fakeAgent is a scriptable domain.Agent for registry and orchestrator
// tests.
type fakeAgent struct {
	name      string
	caps      []domain.Capability
	enabled   bool
	score     float64
	processFn func(context.Context, domain.AgentMessage, *domain.InterviewContext) domain.AgentResponse

	mu       sync.Mutex
	recorded []domain.AgentResponse
}

func newFakeAgent(name string, score float64, caps ...domain.Capability) *fakeAgent {
	return &fakeAgent{name: name, caps: caps, enabled: true, score: score}
}

func (f *fakeAgent) Name() string { return f.name }

func (f *fakeAgent) Capabilities() []domain.Capability {
	out := make([]domain.Capability, len(f.caps))
	copy(out, f.caps)
	return out
}

func (f *fakeAgent) CanHandle(domain.AgentMessage, *domain.InterviewContext) float64 {
	return f.score
}

func (f *fakeAgent) Process(ctx context.Context, msg domain.AgentMessage, ictx *domain.InterviewContext) domain.AgentResponse {
	if f.processFn != nil {
		return f.processFn(ctx, msg, ictx)
	}
	return domain.NewAgentResponse(f.name, f.name+" response", 0.8)
}

func (f *fakeAgent) Enabled() bool     { return f.enabled }
func (f *fakeAgent) SetEnabled(v bool) { f.enabled = v }

func (f *fakeAgent) Status() domain.AgentStatus {
	return domain.AgentStatus{Name: f.name, Enabled: f.enabled}
}

func (f *fakeAgent) RecordMetrics(resp domain.AgentResponse, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recorded = append(f.recorded, resp)
}

// panickyAgent panics in CanHandle, Process, and Status.
type panickyAgent struct{ fakeAgent }

func newPanickyAgent(name string) *panickyAgent {
	return &panickyAgent{fakeAgent{name: name, enabled: true, score: 0.9}}
}

func (p *panickyAgent) CanHandle(domain.AgentMessage, *domain.InterviewContext) float64 {
	panic("scoring blew up")
}

func (p *panickyAgent) Process(context.Context, domain.AgentMessage, *domain.InterviewContext) domain.AgentResponse {
	panic("processing blew up")
}

func (p *panickyAgent) Status() domain.AgentStatus {
	panic("status blew up")
}

// fakeArchiver captures archived transcripts in memory.
type fakeArchiver struct {
	mu      sync.Mutex
	records []domain.TranscriptRecord
	err     error
}

func (a *fakeArchiver) Archive(_ context.Context, rec domain.TranscriptRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.records = append(a.records, rec)
	return nil
}

func (a *fakeArchiver) Get(_ context.Context, sessionID string) (*domain.TranscriptRecord, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.records {
		if a.records[i].SessionID == sessionID {
			rec := a.records[i]
			return &rec, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (a *fakeArchiver) List(context.Context, int) ([]domain.TranscriptRecord, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]domain.TranscriptRecord, len(a.records))
	copy(out, a.records)
	return out, nil
}

func (a *fakeArchiver) Close() error { return nil }

func newTestContext(id string) *domain.InterviewContext {
	return domain.NewInterviewContext(id,
		domain.LLMSettings{Provider: "openai", Model: "gpt-4o"},
		domain.InterviewSettings{InterviewType: "behavioral"},
		domain.CandidateInfo{})
}
