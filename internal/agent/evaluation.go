package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/trace"

	"mockview/internal/domain"
	"mockview/internal/infra/tracer"
)

const evaluationSystemPrompt = `You are an expert interview evaluator. Analyze a full interview transcript and produce a structured evaluation report.

Scoring: 9-10 exceptional, 7-8 strong, 5-6 average, below 5 weak.
Assess concrete strengths, specific improvements, communication clarity and structure, and cultural fit.

Respond with JSON only:
{
  "score": <0-10>,
  "summary": "<executive summary>",
  "strengths": ["..."],
  "improvements": ["..."],
  "technical_assessment": "<optional>",
  "communication_assessment": "...",
  "cultural_fit_assessment": "..."
}`

// EvaluationReport is the structured end-of-interview assessment.
type EvaluationReport struct {
	Score                   int      `json:"score"`
	Summary                 string   `json:"summary"`
	Strengths               []string `json:"strengths"`
	Improvements            []string `json:"improvements"`
	TechnicalAssessment     string   `json:"technical_assessment,omitempty"`
	CommunicationAssessment string   `json:"communication_assessment"`
	CulturalFitAssessment   string   `json:"cultural_fit_assessment"`
}

// EvaluationDeps holds injected dependencies for the evaluation agent.
type EvaluationDeps struct {
	Provider domain.LLMProvider
	Logger   *slog.Logger
}

// Evaluation generates the final report card. It is triggered
// explicitly by the evaluate_session system event rather than by the
// routing cascade, and it reads the feedback agent's rolling assessment
// alongside the transcript.
type Evaluation struct {
	*Base
	provider domain.LLMProvider
	logger   *slog.Logger
}

// NewEvaluation creates the evaluation agent.
func NewEvaluation(deps EvaluationDeps) *Evaluation {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Evaluation{
		Base:     NewBase("evaluation", domain.CapPerformanceScoring, domain.CapFeedbackAnalysis),
		provider: deps.Provider,
		logger:   deps.Logger,
	}
}

// CanHandle only fires on the explicit trigger.
func (a *Evaluation) CanHandle(msg domain.AgentMessage, _ *domain.InterviewContext) float64 {
	if strings.Contains(msg.Content, "evaluate_session") {
		return 1.0
	}
	return 0.0
}

// Process produces the report.
func (a *Evaluation) Process(ctx context.Context, msg domain.AgentMessage, ictx *domain.InterviewContext) domain.AgentResponse {
	ctx, span := tracer.StartSpan(ctx, "agent.evaluation",
		trace.WithAttributes(tracer.StringAttr("session_id", msg.SessionID)))
	defer span.End()

	if ictx == nil || ictx.HistoryLen() == 0 {
		return a.degrade("No transcript available to evaluate.", 0.1, nil)
	}

	prompt := a.reportPrompt(ictx)
	content, cost, err := chatWithCost(ctx, a.provider, ictx.LLMConfig(), evaluationSystemPrompt, prompt)
	if err != nil {
		a.logger.Warn("evaluation failed", "session_id", msg.SessionID, "error", err)
		tracer.RecordError(span, err)
		return a.degrade("Evaluation is unavailable right now.", 0.1, err)
	}

	report := parseEvaluationReport(content)

	resp := a.respond("Evaluation complete.", 1.0)
	resp.Metadata["report"] = report
	resp.Metadata["cost"] = cost
	return resp
}

func (a *Evaluation) reportPrompt(ictx *domain.InterviewContext) string {
	var transcript []string
	for _, turn := range ictx.RecentTurns(ictx.HistoryLen()) {
		transcript = append(transcript, fmt.Sprintf("%s: %s", strings.ToUpper(turn.Speaker), turn.Content))
	}

	role := ictx.Candidate().RoleTitle
	if role == "" {
		role = "Candidate"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Analyze this %s interview for the role of %s.\n\n",
		ictx.InterviewConfig().InterviewType, role)

	feedbackState := ictx.AgentState("feedback")
	if n := stateInt(feedbackState, "evaluated_count"); n > 0 {
		fmt.Fprintf(&sb, "Automated per-answer assessment (averages over %d answers): "+
			"technical depth %.2f, clarity %.2f, specificity %.2f, structure %.2f.\n\n",
			n,
			floatFromState(feedbackState, "avg_technical_depth"),
			floatFromState(feedbackState, "avg_clarity"),
			floatFromState(feedbackState, "avg_specificity"),
			floatFromState(feedbackState, "avg_structure"))
	}

	fmt.Fprintf(&sb, "TRANSCRIPT:\n%s\n", strings.Join(transcript, "\n\n"))
	return sb.String()
}

// parseEvaluationReport extracts the JSON object from the model output,
// falling back to a neutral report when the output cannot be parsed.
func parseEvaluationReport(content string) EvaluationReport {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")

	if start >= 0 && end > start {
		var report EvaluationReport
		if err := json.Unmarshal([]byte(content[start:end+1]), &report); err == nil {
			return report
		}
	}

	summary := content
	if len(summary) > 200 {
		summary = summary[:200]
	}
	return EvaluationReport{
		Score:                   5,
		Summary:                 summary,
		Strengths:               []string{"Unable to parse structured feedback"},
		Improvements:            []string{"Unable to parse structured feedback"},
		CommunicationAssessment: "Unable to parse structured feedback",
		CulturalFitAssessment:   "Unable to parse structured feedback",
	}
}

func floatFromState(state map[string]any, key string) float64 {
	v, _ := state[key].(float64)
	return v
}
