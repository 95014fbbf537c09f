// Package gateway exposes the interview service over HTTP and WebSocket.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"mockview/internal/domain"
	"mockview/internal/infra/config"
	"mockview/internal/usecase"
)

// Deps holds injected dependencies for the gateway server.
type Deps struct {
	Sessions     *usecase.SessionManager
	Orchestrator *usecase.Orchestrator
	Archiver     domain.TranscriptArchiver
	Defaults     config.InterviewConfig
	Config       config.GatewayConfig
	Logger       *slog.Logger
}

// Server is the WebSocket/HTTP gateway. One WebSocket connection carries
// one interview conversation; session lifecycle is plain HTTP.
type Server struct {
	deps      Deps
	httpSrv   *http.Server
	boundAddr string
}

// NewServer creates a gateway server.
func NewServer(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Server{deps: deps}
}

// Handler builds the gateway's HTTP handler, including rate limiting.
func (s *Server) Handler(ctx context.Context) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/sessions", s.handleCreateSession)
	mux.HandleFunc("POST /api/sessions/{id}/end", s.handleEndSession)
	mux.HandleFunc("GET /api/transcripts", s.handleListTranscripts)
	mux.HandleFunc("GET /api/transcripts/{id}", s.handleGetTranscript)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("/ws", s.handleChat)

	var handler http.Handler = mux
	if s.deps.Config.RateLimit.Enabled {
		handler = RateLimit(ctx, s.deps.Config.RateLimit)(handler)
	}
	return handler
}

// Start begins serving. Blocks until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.deps.Config.Addr)
	if err != nil {
		return fmt.Errorf("gateway listen: %w", err)
	}
	s.boundAddr = listener.Addr().String()
	s.httpSrv = &http.Server{Handler: s.Handler(ctx)}

	s.deps.Logger.Info("gateway started", "addr", s.boundAddr)

	go func() {
		<-ctx.Done()
		s.Stop(context.Background())
	}()

	if err := s.httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("gateway serve: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the gateway server.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.httpSrv.Shutdown(shutdownCtx)
}

// BoundAddr returns the actual address the server bound to. Only valid after Start.
func (s *Server) BoundAddr() string { return s.boundAddr }

// --- Session lifecycle ---

type createSessionRequest struct {
	Provider       string               `json:"provider,omitempty"`
	Model          string               `json:"model,omitempty"`
	InterviewType  string               `json:"interview_type,omitempty"`
	Tone           string               `json:"tone,omitempty"`
	Difficulty     string               `json:"difficulty,omitempty"`
	TechnicalTrack string               `json:"technical_track,omitempty"`
	Candidate      domain.CandidateInfo `json:"candidate,omitempty"`
}

type createSessionResponse struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
	Phase     string `json:"phase"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err.Error() != "EOF" {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	llm := s.deps.Defaults.LLM
	if req.Provider != "" {
		llm.Provider = req.Provider
	}
	if req.Model != "" {
		llm.Model = req.Model
	}

	interview := s.deps.Defaults.Defaults
	if req.InterviewType != "" {
		interview.InterviewType = req.InterviewType
	}
	if req.Tone != "" {
		interview.Tone = req.Tone
	}
	if req.Difficulty != "" {
		interview.Difficulty = req.Difficulty
	}
	if req.TechnicalTrack != "" {
		interview.TechnicalTrack = req.TechnicalTrack
	}

	session, err := s.deps.Sessions.Create(llm, interview, req.Candidate)
	if err != nil {
		if errors.Is(err, domain.ErrRateLimit) {
			writeError(w, http.StatusTooManyRequests, "session limit reached")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	// The synthetic start event produces the interviewer's greeting.
	start := domain.NewSystemEvent("start_interview", session.ID, time.Now())
	combined := s.deps.Orchestrator.Process(r.Context(), start, session.Ctx)
	recordTurnCosts(session, combined)

	writeJSON(w, http.StatusCreated, createSessionResponse{
		SessionID: session.ID,
		Message:   combined.Content,
		Phase:     string(session.Ctx.Phase()),
	})
}

type endSessionResponse struct {
	SessionID  string  `json:"session_id"`
	Summary    string  `json:"summary"`
	Evaluation any     `json:"evaluation,omitempty"`
	TotalCost  float64 `json:"total_cost"`
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	session, err := s.deps.Sessions.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	// The closing assessment runs first so the evaluation agent sees the
	// full transcript and the feedback agent's accumulated state.
	evalMsg := domain.NewSystemEvent("evaluate_session", id, time.Now())
	evaluated := s.deps.Orchestrator.Process(r.Context(), evalMsg, session.Ctx)
	recordTurnCosts(session, evaluated)

	// Then the closing summary, before completing.
	msg := domain.NewUserMessage("Please provide a final interview summary.", id, time.Now())
	msg.Type = domain.MsgSummaryRequest
	combined := s.deps.Orchestrator.Process(r.Context(), msg, session.Ctx)
	recordTurnCosts(session, combined)
	totalCost := session.Costs.TotalCost()

	if err := s.deps.Sessions.Complete(r.Context(), id, combined.Content); err != nil {
		s.deps.Logger.Error("session completion failed", "session_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to end session")
		return
	}

	writeJSON(w, http.StatusOK, endSessionResponse{
		SessionID:  id,
		Summary:    combined.Content,
		Evaluation: evaluationReport(evaluated),
		TotalCost:  totalCost,
	})
}

// evaluationReport pulls the structured assessment out of the evaluation
// turn's metadata. Nil when no evaluation agent handled the trigger.
func evaluationReport(combined domain.CombinedResponse) any {
	meta, _ := combined.Metadata["primary_agent_metadata"].(map[string]any)
	return meta["report"]
}

// --- Transcript archive ---

func (s *Server) handleListTranscripts(w http.ResponseWriter, r *http.Request) {
	if s.deps.Archiver == nil {
		writeError(w, http.StatusNotFound, "transcript archive disabled")
		return
	}
	limit := 0
	fmt.Sscanf(r.URL.Query().Get("limit"), "%d", &limit)

	records, err := s.deps.Archiver.List(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list transcripts")
		return
	}
	if records == nil {
		records = []domain.TranscriptRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleGetTranscript(w http.ResponseWriter, r *http.Request) {
	if s.deps.Archiver == nil {
		writeError(w, http.StatusNotFound, "transcript archive disabled")
		return
	}
	rec, err := s.deps.Archiver.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		if domain.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "transcript not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load transcript")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// --- Status ---

type statusResponse struct {
	ActiveSessions int                         `json:"active_sessions"`
	Orchestrator   usecase.OrchestratorMetrics `json:"orchestrator"`
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		ActiveSessions: s.deps.Sessions.Count(),
		Orchestrator:   s.deps.Orchestrator.Metrics(),
	})
}

// --- WebSocket chat ---

// chatInbound is one candidate message over the socket.
type chatInbound struct {
	Content string `json:"content"`
	Type    string `json:"type,omitempty"` // optional override, e.g. "code_submission"
}

// chatOutbound is one interviewer turn over the socket.
type chatOutbound struct {
	Content            string             `json:"content"`
	PrimaryAgent       string             `json:"primary_agent"`
	ContributingAgents []string           `json:"contributing_agents"`
	Confidence         float64            `json:"confidence"`
	Phase              string             `json:"phase"`
	CostBreakdown      map[string]float64 `json:"cost_breakdown,omitempty"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	session, err := s.deps.Sessions.Get(sessionID)
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.originPatterns(),
	})
	if err != nil {
		s.deps.Logger.Warn("websocket accept failed", "error", err)
		return
	}
	defer ws.Close(websocket.StatusNormalClosure, "")

	s.deps.Logger.Info("chat connected", "session_id", sessionID)

	for {
		var in chatInbound
		if err := wsjson.Read(r.Context(), ws, &in); err != nil {
			s.deps.Logger.Info("chat disconnected", "session_id", sessionID)
			return
		}

		s.deps.Sessions.Touch(sessionID)

		msg := domain.NewUserMessage(in.Content, sessionID, time.Now())
		if in.Type != "" {
			msg.Type = domain.MessageType(in.Type)
		}

		combined := s.deps.Orchestrator.Process(r.Context(), msg, session.Ctx)
		recordTurnCosts(session, combined)

		out := chatOutbound{
			Content:            combined.Content,
			PrimaryAgent:       combined.PrimaryAgent,
			ContributingAgents: combined.ContributingAgents,
			Confidence:         combined.TotalConfidence,
			Phase:              string(session.Ctx.Phase()),
			CostBreakdown:      combined.CostBreakdown,
		}
		if err := wsjson.Write(r.Context(), ws, out); err != nil {
			s.deps.Logger.Warn("chat write failed", "session_id", sessionID, "error", err)
			return
		}
	}
}

func (s *Server) originPatterns() []string {
	patterns := []string{
		"localhost",
		"localhost:*",
		"127.0.0.1",
		"127.0.0.1:*",
		"[::1]",
		"[::1]:*",
	}
	return append(patterns, s.deps.Config.AllowedOrigins...)
}

// recordTurnCosts feeds the per-agent cost breakdown into the session's
// cost tracker.
func recordTurnCosts(session *usecase.Session, combined domain.CombinedResponse) {
	for agent, cost := range combined.CostBreakdown {
		session.Costs.AddAgentCost(agent, cost)
	}
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
