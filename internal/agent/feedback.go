package agent

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"mockview/internal/domain"
	"mockview/internal/feedback"
	"mockview/internal/infra/tracer"
)

// FeedbackDeps holds injected dependencies for the feedback agent.
type FeedbackDeps struct {
	Logger *slog.Logger
}

// Feedback analyzes candidate answers in real time with the pure
// heuristics in internal/feedback and rides along on every user turn.
// Its content feeds the live feedback widget; its rolling averages are
// persisted in agent state for the summary and evaluation agents to
// read at the end of the session.
type Feedback struct {
	*Base
	classifier *feedback.Classifier
	assessor   *feedback.Assessor
	generator  *feedback.Generator
	logger     *slog.Logger
}

// NewFeedback creates the feedback agent.
func NewFeedback(deps FeedbackDeps) *Feedback {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Feedback{
		Base:       NewBase("feedback", domain.CapFeedbackAnalysis, domain.CapPerformanceScoring),
		classifier: feedback.NewClassifier(),
		assessor:   feedback.NewAssessor(),
		generator:  feedback.NewGenerator(),
		logger:     deps.Logger,
	}
}

// CanHandle analyzes any user response.
func (a *Feedback) CanHandle(msg domain.AgentMessage, _ *domain.InterviewContext) float64 {
	if msg.Sender == domain.SenderUser {
		return 0.9
	}
	return 0.1
}

// Process assesses the answer and returns display feedback. Greetings,
// acknowledgments, questions back at the interviewer and very short
// answers are skipped with an empty zero-confidence response.
func (a *Feedback) Process(ctx context.Context, msg domain.AgentMessage, ictx *domain.InterviewContext) domain.AgentResponse {
	_, span := tracer.StartSpan(ctx, "agent.feedback",
		trace.WithAttributes(tracer.StringAttr("session_id", msg.SessionID)))
	defer span.End()

	if !a.classifier.ShouldEvaluate(msg.Content) {
		resp := a.respond("", 0)
		resp.Metadata["skipped"] = "response not suitable for evaluation"
		return resp
	}

	interviewType := ""
	if ictx != nil {
		interviewType = ictx.InterviewConfig().InterviewType
	}

	responseType := a.classifier.Classify(msg.Content, interviewType)
	metrics := a.assessor.Assess(msg.Content)
	display := a.generator.Display(metrics, responseType)

	if ictx != nil {
		a.recordAssessment(ictx, metrics, responseType)
	}
	span.SetAttributes(tracer.StringAttr("response_type", responseType))

	resp := a.respond(display, 0.8)
	resp.Metadata["response_type"] = responseType
	resp.Metadata["metrics"] = metrics
	resp.Metadata["strengths"] = a.generator.Strengths(metrics, responseType)
	resp.Metadata["improvements"] = a.generator.Improvements(metrics, responseType)
	resp.Metadata["suggestions"] = a.generator.Suggestions(metrics, responseType)
	resp.Metadata["feedback_type"] = "real_time"
	return resp
}

// recordAssessment folds this answer into the rolling session
// assessment kept in agent state.
func (a *Feedback) recordAssessment(ictx *domain.InterviewContext, m feedback.AssessmentMetrics, responseType string) {
	state := ictx.AgentState(a.Name())
	n := stateInt(state, "evaluated_count")

	roll := func(key string, v float64) float64 {
		prev, _ := state[key].(float64)
		return (prev*float64(n) + v) / float64(n+1)
	}

	ictx.UpdateAgentState(a.Name(), map[string]any{
		"evaluated_count":       n + 1,
		"avg_technical_depth":   roll("avg_technical_depth", m.TechnicalDepth),
		"avg_clarity":           roll("avg_clarity", m.CommunicationClarity),
		"avg_specificity":       roll("avg_specificity", m.Specificity),
		"avg_structure":         roll("avg_structure", m.Structure),
		"avg_star_usage":        roll("avg_star_usage", m.STARMethodUsage),
		"last_response_type":    responseType,
		"last_overall_keywords": m.Keywords,
	})
}
