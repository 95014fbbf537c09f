package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"mockview/internal/agent"
	"mockview/internal/domain"
	"mockview/internal/infra/config"
	"mockview/internal/usecase"
)

// scriptedAgent answers every message with a fixed reply, cost, and
// metadata, so the handlers can be exercised without a live provider.
type scriptedAgent struct {
	*agent.Base
	reply string
	conf  float64
	cost  float64
	meta  map[string]any
}

func (a *scriptedAgent) CanHandle(domain.AgentMessage, *domain.InterviewContext) float64 {
	return a.conf
}

func (a *scriptedAgent) Process(_ context.Context, _ domain.AgentMessage, _ *domain.InterviewContext) domain.AgentResponse {
	resp := domain.NewAgentResponse(a.Name(), a.reply, a.conf)
	if a.cost > 0 {
		resp.Metadata["cost"] = a.cost
	}
	for k, v := range a.meta {
		resp.Metadata[k] = v
	}
	return resp
}

// memArchiver keeps transcripts in a map for assertions.
type memArchiver struct {
	mu   sync.Mutex
	recs map[string]domain.TranscriptRecord
}

func newMemArchiver() *memArchiver {
	return &memArchiver{recs: make(map[string]domain.TranscriptRecord)}
}

func (m *memArchiver) Archive(_ context.Context, rec domain.TranscriptRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs[rec.SessionID] = rec
	return nil
}

func (m *memArchiver) Get(_ context.Context, sessionID string) (*domain.TranscriptRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.recs[sessionID]
	if !ok {
		return nil, domain.NewDomainError("memArchiver.Get", domain.ErrSessionNotFound, sessionID)
	}
	return &rec, nil
}

func (m *memArchiver) List(_ context.Context, limit int) ([]domain.TranscriptRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.TranscriptRecord
	for _, rec := range m.recs {
		out = append(out, rec)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memArchiver) Close() error { return nil }

const (
	testGreeting  = "Welcome! Tell me about yourself."
	testSummary   = "## Interview Summary\nSolid session overall."
	testChallenge = "Hi, I'm your technical interviewer. Give me a one-line intro."
)

func newTestServer(t *testing.T, archiver domain.TranscriptArchiver, maxSessions int) (*Server, *usecase.SessionManager) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	registry := usecase.NewRegistry(logger)
	registry.Register(&scriptedAgent{
		Base:  agent.NewBase(usecase.AgentInterview, domain.CapInterviewQuestions),
		reply: testGreeting,
		conf:  0.9,
		cost:  0.01,
	}, 10)
	registry.Register(&scriptedAgent{
		Base:  agent.NewBase(usecase.AgentTechnical, domain.CapTechnicalAssessment),
		reply: testChallenge,
		conf:  0.9,
		cost:  0.01,
	}, 9)
	registry.Register(&scriptedAgent{
		Base:  agent.NewBase(usecase.AgentSummary, domain.CapSummaryGeneration),
		reply: testSummary,
		conf:  0.85,
		cost:  0.02,
	}, 5)
	registry.Register(&scriptedAgent{
		Base:  agent.NewBase(usecase.AgentEvaluation, domain.CapPerformanceScoring),
		reply: "Overall a solid performance.",
		conf:  0.8,
		cost:  0.005,
		meta:  map[string]any{"report": map[string]any{"score": 7.5, "recommendation": "hire"}},
	}, 4)

	orch := usecase.NewOrchestrator(usecase.OrchestratorDeps{
		Registry: registry,
		Selector: usecase.NewSelector(0.3, 2, logger),
		Logger:   logger,
	})
	sessions := usecase.NewSessionManager(usecase.SessionManagerDeps{
		Archiver:    archiver,
		Logger:      logger,
		MaxSessions: maxSessions,
	})

	srv := NewServer(Deps{
		Sessions:     sessions,
		Orchestrator: orch,
		Archiver:     archiver,
		Defaults: config.InterviewConfig{
			LLM:      domain.LLMSettings{Provider: "openai", Model: "gpt-4o"},
			Defaults: domain.InterviewSettings{InterviewType: "behavioral", Tone: "professional", Difficulty: "medium"},
		},
		Logger: logger,
	})
	return srv, sessions
}

func createSession(t *testing.T, ts *httptest.Server, body string) createSessionResponse {
	t.Helper()
	resp, err := http.Post(ts.URL+"/api/sessions", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST /api/sessions: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	var created createSessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return created
}

func TestCreateSessionReturnsGreeting(t *testing.T) {
	srv, sessions := newTestServer(t, nil, 0)
	ts := httptest.NewServer(srv.Handler(context.Background()))
	defer ts.Close()

	created := createSession(t, ts, `{}`)

	if created.SessionID == "" {
		t.Fatal("empty session id")
	}
	if created.Message != testGreeting {
		t.Errorf("message = %q", created.Message)
	}
	if created.Phase != string(domain.PhaseIntroduction) {
		t.Errorf("phase = %q, want introduction after the start event", created.Phase)
	}
	if sessions.Count() != 1 {
		t.Errorf("live sessions = %d", sessions.Count())
	}
}

func TestCreateTechnicalSessionRoutesToTechnical(t *testing.T) {
	srv, _ := newTestServer(t, nil, 0)
	ts := httptest.NewServer(srv.Handler(context.Background()))
	defer ts.Close()

	created := createSession(t, ts, `{"interview_type":"technical","technical_track":"sql"}`)

	if created.Message != testChallenge {
		t.Errorf("message = %q, want the technical interviewer's greeting", created.Message)
	}
}

func TestCreateSessionLimit(t *testing.T) {
	srv, _ := newTestServer(t, nil, 1)
	ts := httptest.NewServer(srv.Handler(context.Background()))
	defer ts.Close()

	createSession(t, ts, `{}`)

	resp, err := http.Post(ts.URL+"/api/sessions", "application/json", bytes.NewReader(nil))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429 when the session table is full", resp.StatusCode)
	}
}

func TestEndSessionSummarizesAndArchives(t *testing.T) {
	archiver := newMemArchiver()
	srv, sessions := newTestServer(t, archiver, 0)
	ts := httptest.NewServer(srv.Handler(context.Background()))
	defer ts.Close()

	created := createSession(t, ts, `{}`)

	resp, err := http.Post(ts.URL+"/api/sessions/"+created.SessionID+"/end", "application/json", nil)
	if err != nil {
		t.Fatalf("POST end: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var ended endSessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&ended); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.Contains(ended.Summary, "Interview Summary") {
		t.Errorf("summary = %q", ended.Summary)
	}
	report, _ := ended.Evaluation.(map[string]any)
	if report["score"] != 7.5 {
		t.Errorf("evaluation = %v, want the assessment report", ended.Evaluation)
	}
	// Greeting 0.01, evaluation 0.005, summary 0.02.
	if math.Abs(ended.TotalCost-0.035) > 1e-9 {
		t.Errorf("total cost = %v, want 0.035", ended.TotalCost)
	}

	if sessions.Count() != 0 {
		t.Errorf("live sessions = %d, want 0 after end", sessions.Count())
	}

	rec, err := archiver.Get(context.Background(), created.SessionID)
	if err != nil {
		t.Fatalf("archived record: %v", err)
	}
	if rec.Phase != domain.PhaseCompleted {
		t.Errorf("archived phase = %q", rec.Phase)
	}
	if rec.Summary != ended.Summary {
		t.Errorf("archived summary = %q", rec.Summary)
	}
}

func TestEndUnknownSession(t *testing.T) {
	srv, _ := newTestServer(t, nil, 0)
	ts := httptest.NewServer(srv.Handler(context.Background()))
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/sessions/does-not-exist/end", "application/json", nil)
	if err != nil {
		t.Fatalf("POST end: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestChatWebSocket(t *testing.T) {
	srv, sessions := newTestServer(t, nil, 0)
	ts := httptest.NewServer(srv.Handler(context.Background()))
	defer ts.Close()

	session, err := sessions.Create(domain.LLMSettings{Provider: "openai", Model: "gpt-4o"},
		domain.InterviewSettings{InterviewType: "behavioral"}, domain.CandidateInfo{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?session_id=" + session.ID
	ws, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer ws.Close(websocket.StatusNormalClosure, "")

	in := chatInbound{Content: "I enjoy mentoring juniors and shipping reliable services."}
	if err := wsjson.Write(ctx, ws, in); err != nil {
		t.Fatalf("write: %v", err)
	}

	var out chatOutbound
	if err := wsjson.Read(ctx, ws, &out); err != nil {
		t.Fatalf("read: %v", err)
	}
	if out.Content != testGreeting {
		t.Errorf("content = %q", out.Content)
	}
	if out.PrimaryAgent != usecase.AgentInterview {
		t.Errorf("primary = %q", out.PrimaryAgent)
	}
	if out.Phase != string(domain.PhaseIntroduction) {
		t.Errorf("phase = %q", out.Phase)
	}
	if math.Abs(out.CostBreakdown[usecase.AgentInterview]-0.01) > 1e-9 {
		t.Errorf("cost breakdown = %v", out.CostBreakdown)
	}
	if math.Abs(session.Costs.TotalCost()-0.01) > 1e-9 {
		t.Errorf("tracked cost = %v", session.Costs.TotalCost())
	}
}

func TestChatUnknownSession(t *testing.T) {
	srv, _ := newTestServer(t, nil, 0)
	ts := httptest.NewServer(srv.Handler(context.Background()))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/ws?session_id=nope")
	if err != nil {
		t.Fatalf("GET /ws: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestTranscriptEndpoints(t *testing.T) {
	archiver := newMemArchiver()
	now := time.Now()
	for i := 0; i < 3; i++ {
		archiver.recs[fmt.Sprintf("sess-%d", i)] = domain.TranscriptRecord{
			SessionID:   fmt.Sprintf("sess-%d", i),
			StartedAt:   now.Add(-time.Hour),
			CompletedAt: now,
			Phase:       domain.PhaseCompleted,
			Summary:     "done",
		}
	}

	srv, _ := newTestServer(t, archiver, 0)
	ts := httptest.NewServer(srv.Handler(context.Background()))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/transcripts?limit=2")
	if err != nil {
		t.Fatalf("GET list: %v", err)
	}
	defer resp.Body.Close()
	var records []domain.TranscriptRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("records = %d, want limit applied", len(records))
	}

	resp, err = http.Get(ts.URL + "/api/transcripts/sess-1")
	if err != nil {
		t.Fatalf("GET one: %v", err)
	}
	defer resp.Body.Close()
	var rec domain.TranscriptRecord
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		t.Fatalf("decode one: %v", err)
	}
	if rec.SessionID != "sess-1" || rec.Summary != "done" {
		t.Errorf("record = %+v", rec)
	}

	resp, err = http.Get(ts.URL + "/api/transcripts/missing")
	if err != nil {
		t.Fatalf("GET missing: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestStatusEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, nil, 0)
	ts := httptest.NewServer(srv.Handler(context.Background()))
	defer ts.Close()

	createSession(t, ts, `{}`)

	resp, err := http.Get(ts.URL + "/api/status")
	if err != nil {
		t.Fatalf("GET status: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var status statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if status.ActiveSessions != 1 {
		t.Errorf("active_sessions = %d", status.ActiveSessions)
	}
	if status.Orchestrator.TotalRequests != 1 {
		t.Errorf("total_requests = %d, want the start event counted", status.Orchestrator.TotalRequests)
	}
}
