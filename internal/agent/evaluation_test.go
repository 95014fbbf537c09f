package agent

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"mockview/internal/domain"
)

func evaluationContext() *domain.InterviewContext {
	ictx := newTestContext("behavioral")
	ictx.AddTurn(domain.ConversationTurn{Timestamp: time.Now(), Speaker: "interviewer", Content: "Tell me about yourself."})
	ictx.AddTurn(domain.ConversationTurn{Timestamp: time.Now(), Speaker: domain.SenderUser, Content: "I led the migration of our reporting stack."})
	return ictx
}

func TestEvaluationCanHandle(t *testing.T) {
	a := NewEvaluation(EvaluationDeps{Provider: &fakeLLM{}, Logger: testLogger()})

	if got := a.CanHandle(systemMsg("evaluate_session"), nil); got != 1.0 {
		t.Errorf("trigger = %v", got)
	}
	if got := a.CanHandle(userMsg("how did I do?"), nil); got != 0.0 {
		t.Errorf("general = %v", got)
	}
}

func TestEvaluationParsesReport(t *testing.T) {
	llm := &fakeLLM{
		reply: `Here is the report: {"score": 8, "summary": "Strong candidate.", ` +
			`"strengths": ["clear examples"], "improvements": ["more metrics"], ` +
			`"communication_assessment": "Well structured.", "cultural_fit_assessment": "Collaborative."}`,
		usage: domain.Usage{PromptTokens: 1000, CompletionTokens: 1000, TotalTokens: 2000},
	}
	a := NewEvaluation(EvaluationDeps{Provider: llm, Logger: testLogger()})

	resp := a.Process(context.Background(), systemMsg("evaluate_session"), evaluationContext())
	if resp.Confidence != 1.0 {
		t.Errorf("confidence = %v", resp.Confidence)
	}
	report, ok := resp.Metadata["report"].(EvaluationReport)
	if !ok {
		t.Fatalf("report = %T", resp.Metadata["report"])
	}
	if report.Score != 8 || report.Summary != "Strong candidate." {
		t.Errorf("report = %+v", report)
	}
	if len(report.Strengths) != 1 || report.Strengths[0] != "clear examples" {
		t.Errorf("strengths = %v", report.Strengths)
	}
	if resp.Metadata["cost"] != 0.0125 {
		t.Errorf("cost = %v", resp.Metadata["cost"])
	}
}

func TestEvaluationPromptIncludesFeedbackAverages(t *testing.T) {
	llm := &fakeLLM{reply: `{"score": 6, "summary": "ok"}`}
	a := NewEvaluation(EvaluationDeps{Provider: llm, Logger: testLogger()})
	ictx := evaluationContext()
	ictx.SetAgentState("feedback", map[string]any{
		"evaluated_count":     2,
		"avg_technical_depth": 0.7,
		"avg_clarity":         0.6,
		"avg_specificity":     0.5,
		"avg_structure":       0.4,
	})

	a.Process(context.Background(), systemMsg("evaluate_session"), ictx)

	prompt := llm.lastRequest().Messages[1].Content
	if !strings.Contains(prompt, "averages over 2 answers") {
		t.Errorf("feedback averages missing from prompt:\n%s", prompt)
	}
	if !strings.Contains(prompt, "TRANSCRIPT:") {
		t.Error("transcript missing from prompt")
	}
}

func TestEvaluationUnparseableReplyFallsBack(t *testing.T) {
	llm := &fakeLLM{reply: "The candidate did fine overall."}
	a := NewEvaluation(EvaluationDeps{Provider: llm, Logger: testLogger()})

	resp := a.Process(context.Background(), systemMsg("evaluate_session"), evaluationContext())
	report := resp.Metadata["report"].(EvaluationReport)
	if report.Score != 5 {
		t.Errorf("fallback score = %d", report.Score)
	}
	if !strings.Contains(report.Summary, "did fine") {
		t.Errorf("fallback summary = %q", report.Summary)
	}
}

func TestEvaluationWithoutTranscript(t *testing.T) {
	a := NewEvaluation(EvaluationDeps{Provider: &fakeLLM{}, Logger: testLogger()})

	resp := a.Process(context.Background(), systemMsg("evaluate_session"), newTestContext("behavioral"))
	if resp.Confidence != 0.1 {
		t.Errorf("confidence = %v", resp.Confidence)
	}
	if !strings.Contains(resp.Content, "No transcript") {
		t.Errorf("content = %q", resp.Content)
	}
}

func TestEvaluationProviderFailureDegrades(t *testing.T) {
	llm := &fakeLLM{err: errors.New("provider down")}
	a := NewEvaluation(EvaluationDeps{Provider: llm, Logger: testLogger()})

	resp := a.Process(context.Background(), systemMsg("evaluate_session"), evaluationContext())
	if resp.Confidence != 0.1 {
		t.Errorf("confidence = %v", resp.Confidence)
	}
	if resp.Metadata["error"] == nil {
		t.Error("error metadata missing")
	}
}
