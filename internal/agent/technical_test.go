package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"mockview/internal/domain"
)

func newTechnicalAgent(llm *fakeLLM) *Technical {
	return NewTechnical(TechnicalDeps{Provider: llm, Logger: testLogger()})
}

func TestTechnicalCanHandle(t *testing.T) {
	a := newTechnicalAgent(&fakeLLM{})

	if got := a.CanHandle(userMsg("def solve():"), nil); got != 0.9 {
		t.Errorf("user = %v", got)
	}
	if got := a.CanHandle(systemMsg("start_interview"), nil); got != 0.9 {
		t.Errorf("system = %v", got)
	}
	other := userMsg("hello")
	other.Sender = "search"
	if got := a.CanHandle(other, nil); got != 0.3 {
		t.Errorf("agent = %v", got)
	}
}

func TestTechnicalWelcome(t *testing.T) {
	a := newTechnicalAgent(&fakeLLM{})
	ictx := newTestContext("technical")

	resp := a.Process(context.Background(), systemMsg("start_interview"), ictx)
	if resp.Confidence != 0.9 {
		t.Errorf("confidence = %v", resp.Confidence)
	}
	if !strings.Contains(resp.Content, "code editor") {
		t.Errorf("content = %q", resp.Content)
	}
	if got := stateString(ictx.AgentState("technical"), "phase"); got != "introduction" {
		t.Errorf("phase = %q", got)
	}
}

func TestTechnicalPivotsToChallenge(t *testing.T) {
	llm := &fakeLLM{
		reply: "Count orders per region.\n```sql\nCREATE TABLE tbl (region TEXT);\n```\n```python\ndf = pd.DataFrame()\n```\nExpected output: [a table of counts]",
		usage: domain.Usage{PromptTokens: 1000, CompletionTokens: 1000, TotalTokens: 2000},
	}
	a := newTechnicalAgent(llm)
	ictx := newTestContext("technical")

	resp := a.Process(context.Background(), userMsg("Hi, I'm a data analyst with five years of experience"), ictx)
	if resp.Confidence != 0.95 {
		t.Errorf("confidence = %v", resp.Confidence)
	}
	if resp.Metadata["question_type"] != "coding_challenge" {
		t.Errorf("question_type = %v", resp.Metadata["question_type"])
	}
	if resp.Metadata["question_number"] != 1 {
		t.Errorf("question_number = %v", resp.Metadata["question_number"])
	}
	if resp.Metadata["cost"] != 0.0125 {
		t.Errorf("cost = %v", resp.Metadata["cost"])
	}

	challenge, _ := resp.Metadata["editor_prompt"].(string)
	if !strings.Contains(challenge, "```sql") || !strings.Contains(challenge, "```python") {
		t.Errorf("fenced blocks missing: %q", challenge)
	}
	if strings.Contains(challenge, "[a table of counts]") {
		t.Error("bracketed placeholder not stripped")
	}

	state := ictx.AgentState("technical")
	if got := stateString(state, "phase"); got != "coding" {
		t.Errorf("phase = %q", got)
	}
	if stateInt(state, "question_count") != 1 {
		t.Errorf("question_count = %v", state["question_count"])
	}
}

func TestTechnicalFollowupDuringCoding(t *testing.T) {
	llm := &fakeLLM{
		reply: "How would you handle an empty DataFrame?",
		usage: domain.Usage{PromptTokens: 1000, CompletionTokens: 1000, TotalTokens: 2000},
	}
	a := newTechnicalAgent(llm)
	ictx := newTestContext("technical")
	ictx.SetAgentState("technical", map[string]any{"phase": "coding", "question_count": 1})

	resp := a.Process(context.Background(), userMsg("I grouped by region and counted rows"), ictx)
	if resp.Confidence != 0.85 {
		t.Errorf("confidence = %v", resp.Confidence)
	}
	if resp.Metadata["question_type"] != "technical_followup" {
		t.Errorf("question_type = %v", resp.Metadata["question_type"])
	}
	if resp.Content != llm.reply {
		t.Errorf("content = %q", resp.Content)
	}
	if resp.Metadata["question_number"] != 2 {
		t.Errorf("question_number = %v", resp.Metadata["question_number"])
	}
	// Follow-ups call the provider too, so they carry the same cost
	// metadata as the challenge turn.
	if resp.Metadata["cost"] != 0.0125 {
		t.Errorf("cost = %v", resp.Metadata["cost"])
	}
}

func TestTechnicalChallengeFailureDegrades(t *testing.T) {
	llm := &fakeLLM{err: errors.New("provider down")}
	a := newTechnicalAgent(llm)

	resp := a.Process(context.Background(), userMsg("ready when you are"), newTestContext("technical"))
	if resp.Confidence != 0.3 {
		t.Errorf("confidence = %v", resp.Confidence)
	}
	if resp.Content == "" {
		t.Error("degraded response should keep the conversation going")
	}
	if resp.Metadata["error"] == nil {
		t.Error("error metadata missing")
	}
}

func TestTechnicalNextSkillHintOverridesTrack(t *testing.T) {
	llm := &fakeLLM{reply: "```sql\nSELECT 1;\n```"}
	a := newTechnicalAgent(llm)
	ictx := newTestContext("technical")
	ictx.SetSessionMeta("next_skill", TrackSQL)

	a.Process(context.Background(), userMsg("let's begin"), ictx)

	prompt := llm.lastRequest().Messages[1].Content
	if !strings.Contains(prompt, "SQL querying") {
		t.Errorf("hint ignored, prompt:\n%s", prompt)
	}
}

func TestChallengePrompt(t *testing.T) {
	tests := []struct {
		name         string
		track, role  string
		wantContains string
	}{
		{"pandas track", TrackPandas, "", "dataframe manipulation"},
		{"sql track", TrackSQL, "", "SQL querying"},
		{"algorithms track", TrackAlgorithms, "", "algorithm"},
		{"basic python track", TrackBasicPython, "", "core scripting"},
		{"analyst role inference", "", "Senior Data Analyst", "data manipulation"},
		{"engineer role inference", "", "Backend Engineer", "algorithm"},
		{"no role defaults to data", "", "", "data manipulation"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := challengePrompt(tt.track, "medium", tt.role)
			if !strings.Contains(got, tt.wantContains) {
				t.Errorf("prompt missing %q:\n%s", tt.wantContains, got)
			}
			if !strings.Contains(got, `"medium"`) {
				t.Error("difficulty missing from prompt")
			}
		})
	}
}
