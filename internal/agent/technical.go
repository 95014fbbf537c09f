package agent

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"go.opentelemetry.io/otel/trace"

	"mockview/internal/domain"
	"mockview/internal/infra/tracer"
)

const technicalSystemPrompt = "You are a strict technical interviewer. Keep guidance " +
	"concise and technical. Never include placeholders in square brackets."

// Technical tracks selectable via interview configuration.
const (
	TrackPandas      = "pandas"
	TrackSQL         = "sql"
	TrackAlgorithms  = "algorithms"
	TrackBasicPython = "basic_python"
)

var placeholderRe = regexp.MustCompile(`\[[^\]]+\]`)

// TechnicalDeps holds injected dependencies for the technical agent.
type TechnicalDeps struct {
	Provider domain.LLMProvider
	Logger   *slog.Logger
}

// Technical runs coding-focused interviews: it pivots to a generated
// coding challenge right after the introduction and keeps follow-ups
// short and strictly technical. The challenge text is carried in
// response metadata so the transport can place it in the candidate's
// editor. Phase and question count live in agent state.
type Technical struct {
	*Base
	provider domain.LLMProvider
	logger   *slog.Logger
}

// NewTechnical creates the technical interviewer agent.
func NewTechnical(deps TechnicalDeps) *Technical {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Technical{
		Base:     NewBase("technical", domain.CapTechnicalAssessment, domain.CapInterviewQuestions, domain.CapConversationFlow),
		provider: deps.Provider,
		logger:   deps.Logger,
	}
}

// CanHandle mirrors the interview agent: candidate answers and system
// events score high.
func (a *Technical) CanHandle(msg domain.AgentMessage, _ *domain.InterviewContext) float64 {
	if msg.Sender == domain.SenderUser || msg.Sender == domain.SenderSystem {
		return 0.9
	}
	return 0.3
}

// Process drives the coding interview.
func (a *Technical) Process(ctx context.Context, msg domain.AgentMessage, ictx *domain.InterviewContext) domain.AgentResponse {
	ctx, span := tracer.StartSpan(ctx, "agent.technical",
		trace.WithAttributes(tracer.StringAttr("session_id", msg.SessionID)))
	defer span.End()

	if msg.Sender == domain.SenderSystem {
		ictx.UpdateAgentState(a.Name(), map[string]any{"phase": "introduction"})
		resp := a.respond(a.welcomeMessage(ictx), 0.9)
		resp.Metadata["phase"] = "introduction"
		return resp
	}

	state := ictx.AgentState(a.Name())
	questionNumber := stateInt(state, "question_count") + 1

	// First candidate reply pivots straight into the coding challenge.
	if stateString(state, "phase") != "coding" {
		challenge, cost, err := a.generateChallenge(ctx, ictx)
		if err != nil {
			a.logger.Warn("challenge generation failed", "session_id", msg.SessionID, "error", err)
			tracer.RecordError(span, err)
			return a.degrade("Give me a moment to prepare the coding problem, and tell me a bit more about your recent work in the meantime.", 0.3, err)
		}

		ictx.UpdateAgentState(a.Name(), map[string]any{
			"phase":          "coding",
			"question_count": questionNumber,
		})

		resp := a.respond("I'll place the coding problem in the editor now. Use the Run button and hint controls as needed.", 0.95)
		resp.Metadata["question_type"] = "coding_challenge"
		resp.Metadata["question_number"] = questionNumber
		resp.Metadata["editor_prompt"] = challenge
		resp.Metadata["cost"] = cost
		return resp
	}

	followup, cost, err := a.generateFollowup(ctx, msg.Content, ictx)
	if err != nil {
		a.logger.Warn("technical follow-up failed", "session_id", msg.SessionID, "error", err)
		return a.degrade("What's the time complexity of your approach?", 0.3, err)
	}

	ictx.UpdateAgentState(a.Name(), map[string]any{"question_count": questionNumber})

	resp := a.respond(followup, 0.85)
	resp.Metadata["question_type"] = "technical_followup"
	resp.Metadata["question_number"] = questionNumber
	resp.Metadata["cost"] = cost
	return resp
}

func (a *Technical) welcomeMessage(ictx *domain.InterviewContext) string {
	return fmt.Sprintf("Hi, I'm %s. I'll be conducting your technical interview today. "+
		"We'll use the code editor on the right for the challenge. "+
		"Give me a one-line intro, and then I'll place the problem in the editor.",
		interviewerName(ictx.SessionID()))
}

// generateChallenge produces one coding problem matching the configured
// track and difficulty. A "next_skill" session metadata hint, when set,
// overrides the configured track for the next challenge.
func (a *Technical) generateChallenge(ctx context.Context, ictx *domain.InterviewContext) (string, float64, error) {
	cfg := ictx.InterviewConfig()
	track := cfg.TechnicalTrack
	if hint, ok := ictx.SessionMeta("next_skill"); ok {
		if s, ok := hint.(string); ok && s != "" {
			track = s
		}
	}

	prompt := challengePrompt(track, cfg.Difficulty, ictx.Candidate().RoleTitle)
	content, cost, err := chatWithCost(ctx, a.provider, ictx.LLMConfig(), technicalSystemPrompt, prompt)
	if err != nil {
		return "", 0, err
	}
	// Strip bracketed placeholders but keep the fenced code blocks the
	// transport parses for editor setup.
	return strings.TrimSpace(placeholderRe.ReplaceAllString(content, "")), cost, nil
}

func (a *Technical) generateFollowup(ctx context.Context, previous string, ictx *domain.InterviewContext) (string, float64, error) {
	prompt := fmt.Sprintf("You are in the middle of a coding interview. The candidate responded:\n%s\n"+
		"Provide ONE short follow-up (1-2 sentences) focusing on correctness, complexity, edge cases, or tests. "+
		"Allowed styles: 'What's the time complexity?', 'How would you handle empty input?', "+
		"'Can you add a quick test?'. Forbidden: any behavioral 'tell me about a time' questions.",
		previous)

	content, cost, err := chatWithCost(ctx, a.provider, ictx.LLMConfig(), technicalSystemPrompt, prompt)
	if err != nil {
		return "", 0, err
	}
	return strings.TrimSpace(placeholderRe.ReplaceAllString(content, "")), cost, nil
}

func challengePrompt(track, difficulty, role string) string {
	dataPrompt := func(focus string) string {
		return fmt.Sprintf("You are running a technical interview focused strictly on %s. "+
			"Provide ONE concise data manipulation problem.\n"+
			"The dataset must be available both as SQL table 'tbl' and as DataFrame 'df'.\n"+
			"Include: a realistic table schema with types, SQL to create and populate 'tbl' "+
			"(30-100 realistic rows), equivalent code to build 'df', a clear analytical task "+
			"referencing tbl/df, and the expected output with a tiny example.\n"+
			"Fence the SQL as ```sql``` and the code as ```python``` so they can be parsed.\n"+
			"Match difficulty: %q. No placeholders in square brackets.", focus, difficulty)
	}
	algoPrompt := "You are running a technical coding interview. Provide ONE concise algorithm " +
		"problem (array/string/hashmap/graph).\n" +
		"Include: a precise problem statement, a function signature with constraints, and 2-3 " +
		"example inputs and outputs.\n" +
		fmt.Sprintf("Match difficulty: %q. No placeholders in square brackets. ", difficulty) +
		"End with a directive to implement and run tests."

	switch track {
	case TrackPandas:
		return dataPrompt("dataframe manipulation (filtering, grouping, aggregation, joins)")
	case TrackSQL:
		return dataPrompt("SQL querying (filtering, grouping, aggregation, joins, window functions)")
	case TrackAlgorithms:
		return algoPrompt
	case TrackBasicPython:
		return "You are running a technical interview focused on core scripting skills (no heavy " +
			"algorithms). Provide ONE concise problem over lists, maps, sets, or simple string/file " +
			"processing.\nInclude: a precise problem statement, a function signature, and 2-3 example " +
			"inputs and outputs.\n" +
			fmt.Sprintf("Match difficulty: %q. No placeholders in square brackets. ", difficulty) +
			"End with a directive to implement and run quick tests."
	}

	// No explicit track: infer from the role the way recruiters label
	// them — analytics roles get a data problem, everyone else an
	// algorithm problem.
	lowerRole := strings.ToLower(strings.TrimSpace(role))
	for _, k := range []string{"data scientist", "data analyst", "analyst", "analytics"} {
		if strings.Contains(lowerRole, k) {
			return dataPrompt("data manipulation (filtering, grouping, aggregation, joins)")
		}
	}
	if lowerRole == "" {
		return dataPrompt("data manipulation (filtering, grouping, aggregation, joins)")
	}
	return algoPrompt
}
