package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	"mockview/internal/domain"
	"mockview/internal/infra/tracer"
)

const (
	rephraseApology = "I apologize, but I'm having trouble processing that. Could you please rephrase your response?"
	failureApology  = "I apologize, but I encountered an issue processing your message. Let's continue with the interview."
)

// OrchestratorMetrics summarizes orchestrator behavior over its
// lifetime.
type OrchestratorMetrics struct {
	TotalRequests          int            `json:"total_requests"`
	AverageConfidence      float64        `json:"average_confidence"`
	AverageResponseTime    time.Duration  `json:"average_response_time"`
	RoutingHistoryLength   int            `json:"routing_history_length"`
	AgentUsage             map[string]int `json:"agent_usage"`
	AverageAgentsPerTurn   float64        `json:"average_agents_per_request"`
	ConfidenceDistribution map[string]int `json:"confidence_distribution"`
}

// OrchestratorDeps holds injected dependencies for the orchestrator.
type OrchestratorDeps struct {
	Registry *Registry
	Selector *Selector
	Logger   *slog.Logger
}

// Orchestrator routes each message to a primary agent plus supporting
// agents, runs them, and merges their responses into one turn result.
// Processing never returns an error: every failure degrades into an
// apologetic low-confidence response so the interview keeps moving.
type Orchestrator struct {
	deps OrchestratorDeps

	mu             sync.Mutex
	routingHistory []domain.RoutingDecision
	totalRequests  int
	avgConfidence  float64
	avgElapsed     time.Duration
	confidenceDist map[string]int
}

// NewOrchestrator creates an orchestrator.
func NewOrchestrator(deps OrchestratorDeps) *Orchestrator {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Orchestrator{
		deps:           deps,
		confidenceDist: map[string]int{"high": 0, "medium": 0, "low": 0},
	}
}

// Process handles one inbound message end to end: route, execute,
// combine, record the turn, and advance the interview phase.
func (o *Orchestrator) Process(ctx context.Context, msg domain.AgentMessage, ictx *domain.InterviewContext) (combined domain.CombinedResponse) {
	ctx, span := tracer.StartSpan(ctx, "orchestrator.process",
		trace.WithAttributes(
			tracer.StringAttr("session_id", msg.SessionID),
			tracer.StringAttr("message_type", string(msg.Type)),
		),
	)
	defer span.End()

	start := time.Now()

	defer func() {
		if rec := recover(); rec != nil {
			err := fmt.Errorf("orchestrator panic: %v", rec)
			o.deps.Logger.Error("orchestrator failed", "session_id", msg.SessionID, "error", err)
			tracer.RecordError(span, err)
			combined = domain.CombinedResponse{
				Content:            failureApology,
				PrimaryAgent:       "orchestrator",
				ContributingAgents: []string{},
				TotalConfidence:    0.1,
				Metadata:           map[string]any{"error": err.Error()},
				CostBreakdown:      map[string]float64{},
			}
		}
		o.recordTurn(combined, time.Since(start))
	}()

	decision := o.deps.Selector.Select(msg, ictx)

	o.mu.Lock()
	o.routingHistory = append(o.routingHistory, decision)
	o.mu.Unlock()

	responses := o.executeAgents(ctx, msg, ictx, decision)
	combined = o.combine(responses, decision, ictx)

	o.updateContext(ictx, msg, combined.Content)
	o.updatePhase(ictx, msg)

	span.SetAttributes(
		tracer.StringAttr("primary_agent", combined.PrimaryAgent),
		tracer.IntAttr("response_count", len(responses)),
		tracer.FloatAttr("confidence", combined.TotalConfidence),
	)
	tracer.SetOK(span)

	return combined
}

// executeAgents runs the primary agent first, then the supporting
// agents concurrently. A failing or panicking agent contributes
// nothing; the rest of the turn proceeds.
func (o *Orchestrator) executeAgents(ctx context.Context, msg domain.AgentMessage, ictx *domain.InterviewContext, decision domain.RoutingDecision) []domain.AgentResponse {
	var responses []domain.AgentResponse

	if resp, ok := o.runAgent(ctx, decision.PrimaryAgent, msg, ictx); ok {
		responses = append(responses, resp)
	}

	type result struct {
		idx  int
		resp domain.AgentResponse
		ok   bool
	}

	results := make([]result, len(decision.SupportingAgents))
	var wg sync.WaitGroup
	for i, name := range decision.SupportingAgents {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			resp, ok := o.runAgent(ctx, name, msg, ictx)
			results[i] = result{idx: i, resp: resp, ok: ok}
		}(i, name)
	}
	wg.Wait()

	for _, r := range results {
		if r.ok {
			responses = append(responses, r.resp)
		}
	}
	return responses
}

// runAgent looks up and executes one agent, shielding the turn from
// panics.
func (o *Orchestrator) runAgent(ctx context.Context, name string, msg domain.AgentMessage, ictx *domain.InterviewContext) (resp domain.AgentResponse, ok bool) {
	agent, err := o.deps.Registry.Get(name)
	if err != nil || !agent.Enabled() {
		return domain.AgentResponse{}, false
	}

	defer func() {
		if rec := recover(); rec != nil {
			o.deps.Logger.Error("agent panicked", "agent", name, "panic", rec)
			resp, ok = domain.AgentResponse{}, false
		}
	}()

	start := time.Now()
	resp = agent.Process(ctx, msg, ictx)
	agent.RecordMetrics(resp, time.Since(start))
	return resp, true
}

// combine merges agent responses into one turn result. The primary
// agent's content wins; a substantive search result is the fallback and
// is also cached on the context for later turns.
func (o *Orchestrator) combine(responses []domain.AgentResponse, decision domain.RoutingDecision, ictx *domain.InterviewContext) domain.CombinedResponse {
	if len(responses) == 0 {
		return domain.CombinedResponse{
			Content:            rephraseApology,
			PrimaryAgent:       "orchestrator",
			ContributingAgents: []string{},
			TotalConfidence:    0.1,
			Metadata:           map[string]any{"error": "no agent responses"},
			CostBreakdown:      map[string]float64{},
		}
	}

	var primary, search, feedbackResp *domain.AgentResponse
	for i := range responses {
		if responses[i].AgentName == decision.PrimaryAgent {
			primary = &responses[i]
		}
		if responses[i].AgentName == AgentSearch {
			search = &responses[i]
		}
		if responses[i].AgentName == AgentFeedback {
			feedbackResp = &responses[i]
		}
	}

	searchUsable := search != nil && usableSearchContent(search.Content)
	if searchUsable && ictx != nil {
		ictx.AddSearchContext(search.Content)
	}

	var content string
	switch {
	case primary != nil && strings.TrimSpace(primary.Content) != "":
		content = primary.Content
	case searchUsable:
		content = search.Content
	default:
		content = rephraseApology
	}

	total := 0.0
	contributing := make([]string, 0, len(responses))
	costs := map[string]float64{}
	for _, resp := range responses {
		total += resp.Confidence
		if resp.AgentName != "" {
			contributing = append(contributing, resp.AgentName)
		}
		if cost, ok := resp.Metadata["cost"].(float64); ok {
			costs[resp.AgentName] = cost
		}
	}

	primaryMeta := map[string]any{}
	if primary != nil {
		primaryMeta = primary.Metadata
	}

	var feedbackData map[string]any
	if feedbackResp != nil && len(feedbackResp.Metadata) > 0 {
		feedbackData = feedbackResp.Metadata
	}

	return domain.CombinedResponse{
		Content:            content,
		PrimaryAgent:       decision.PrimaryAgent,
		ContributingAgents: contributing,
		TotalConfidence:    total / float64(len(responses)),
		Metadata: map[string]any{
			"routing_decision":       decision,
			"response_count":         len(responses),
			"primary_agent_metadata": primaryMeta,
		},
		CostBreakdown: costs,
		FeedbackData:  feedbackData,
	}
}

// usableSearchContent reports whether a search response is substantive
// enough to surface or cache.
func usableSearchContent(content string) bool {
	trimmed := strings.TrimSpace(content)
	if len(trimmed) <= 50 {
		return false
	}
	return !strings.Contains(trimmed, "I couldn't find") &&
		!strings.Contains(trimmed, "not available")
}

// updateContext appends the user turn and the interviewer's reply to
// the transcript.
func (o *Orchestrator) updateContext(ictx *domain.InterviewContext, msg domain.AgentMessage, response string) {
	if ictx == nil {
		return
	}
	ictx.AddTurn(domain.ConversationTurn{
		Timestamp: time.Now(),
		Speaker:   domain.SenderUser,
		Content:   msg.Content,
		Type:      string(msg.Type),
		Metadata:  msg.Metadata,
	})
	ictx.AddTurn(domain.ConversationTurn{
		Timestamp: time.Now(),
		Speaker:   "interviewer",
		Content:   response,
		Type:      "message",
		Metadata:  map[string]any{"type": "interview_response"},
	})
}

// updatePhase advances the interview through its phases based on how
// far the conversation has come.
func (o *Orchestrator) updatePhase(ictx *domain.InterviewContext, msg domain.AgentMessage) {
	if ictx == nil {
		return
	}

	switch {
	case msg.Type == domain.MsgSystemEvent && strings.Contains(strings.ToLower(msg.Content), "start"):
		o.advance(ictx, domain.PhaseIntroduction)
	case msg.Type == domain.MsgUserResponse:
		switch n := ictx.UserTurnCount(); {
		case n <= 2:
			o.advance(ictx, domain.PhaseIntroduction)
		case n <= 5:
			o.advance(ictx, domain.PhaseBehavioralQuestion)
		default:
			o.advance(ictx, domain.PhaseCaseStudy)
		}
	}
}

func (o *Orchestrator) advance(ictx *domain.InterviewContext, phase domain.InterviewPhase) {
	if ictx.Phase() == phase {
		return
	}
	if err := ictx.AdvancePhase(phase); err != nil {
		o.deps.Logger.Warn("phase transition rejected",
			"session_id", ictx.SessionID(), "from", ictx.Phase(), "to", phase, "error", err)
	}
}

// recordTurn folds one turn into the rolling orchestrator metrics.
func (o *Orchestrator) recordTurn(combined domain.CombinedResponse, elapsed time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.totalRequests++
	n := float64(o.totalRequests)
	o.avgConfidence = (o.avgConfidence*(n-1) + combined.TotalConfidence) / n
	o.avgElapsed = time.Duration((float64(o.avgElapsed)*(n-1) + float64(elapsed)) / n)

	switch {
	case combined.TotalConfidence >= 0.7:
		o.confidenceDist["high"]++
	case combined.TotalConfidence >= 0.4:
		o.confidenceDist["medium"]++
	default:
		o.confidenceDist["low"]++
	}
}

// RoutingHistory returns a copy of all routing decisions made so far.
func (o *Orchestrator) RoutingHistory() []domain.RoutingDecision {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make([]domain.RoutingDecision, len(o.routingHistory))
	copy(out, o.routingHistory)
	return out
}

// Metrics reports orchestrator usage derived from the routing history
// and rolling averages.
func (o *Orchestrator) Metrics() OrchestratorMetrics {
	o.mu.Lock()
	defer o.mu.Unlock()

	usage := map[string]int{}
	totalAgents := 0
	for _, d := range o.routingHistory {
		usage[d.PrimaryAgent]++
		totalAgents += 1 + len(d.SupportingAgents)
		for _, a := range d.SupportingAgents {
			usage[a]++
		}
	}

	avgPerTurn := 0.0
	if len(o.routingHistory) > 0 {
		avgPerTurn = float64(totalAgents) / float64(len(o.routingHistory))
	}

	dist := make(map[string]int, len(o.confidenceDist))
	for k, v := range o.confidenceDist {
		dist[k] = v
	}

	return OrchestratorMetrics{
		TotalRequests:          o.totalRequests,
		AverageConfidence:      o.avgConfidence,
		AverageResponseTime:    o.avgElapsed,
		RoutingHistoryLength:   len(o.routingHistory),
		AgentUsage:             usage,
		AverageAgentsPerTurn:   avgPerTurn,
		ConfidenceDistribution: dist,
	}
}
