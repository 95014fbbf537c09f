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

const interviewSystemPrompt = "You are an expert interviewer. Generate natural, " +
	"conversational questions based on the given prompt. Keep responses concise and " +
	"professional. Never use placeholder text in square brackets; always reference " +
	"actual details mentioned by the candidate or ask specific, concrete questions."

var (
	namePatterns = []*regexp.Regexp{
		regexp.MustCompile(`my name is (\w+)`),
		regexp.MustCompile(`i'm (\w+)`),
		regexp.MustCompile(`i am (\w+)`),
		regexp.MustCompile(`hi, i'm (\w+)`),
		regexp.MustCompile(`hello, i'm (\w+)`),
	}
	answerMetricRe = regexp.MustCompile(`(?i)\d+%|\d+ percent|\d+ times|\d+x|\$\d+|\d+ dollars|\d+ weeks|\d+ months`)

	answerTechnicalTerms = []string{
		"python", "sql", "machine learning", "data science", "algorithm",
		"model", "analysis", "statistics", "database", "api", "framework",
		"regression", "classification", "clustering", "neural network",
		"deep learning", "optimization", "scaling", "performance",
	}
	experienceIndicators = []string{
		"worked on", "implemented", "developed", "created", "built",
		"managed", "led", "supervised", "project", "experience",
		"previously", "in my role", "responsibility",
	}
	confidentIndicators = []string{"confident", "sure", "definitely", "clearly", "obviously"}
	uncertainIndicators = []string{"maybe", "perhaps", "might", "could", "not sure", "uncertain"}
	exampleIndicators   = []string{
		"for example", "specifically", "in particular", "such as",
		"including", "namely", "that is", "i.e.", "e.g.",
	}
)

// responseAnalysis is what the interview agent extracts from a
// candidate answer before deciding the next question.
type responseAnalysis struct {
	Length          int
	TechnicalTerms  []string
	Experience      []string
	ConfidenceLevel string
	ExampleCount    int
	Metrics         []string
}

// InterviewDeps holds injected dependencies for the interview agent.
type InterviewDeps struct {
	Provider domain.LLMProvider
	Logger   *slog.Logger
}

// Interview is the primary conversational agent: it opens the session
// with a welcome message and turns every candidate answer into a
// contextual follow-up question. Per-session progress (question count,
// candidate name) lives in the context's agent state, never on the
// agent itself.
type Interview struct {
	*Base
	provider domain.LLMProvider
	logger   *slog.Logger
}

// NewInterview creates the interview agent.
func NewInterview(deps InterviewDeps) *Interview {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Interview{
		Base:     NewBase("interview", domain.CapInterviewQuestions, domain.CapConversationFlow),
		provider: deps.Provider,
		logger:   deps.Logger,
	}
}

// CanHandle favors candidate answers, handles system events for the
// session opening, and stays available as a weak default otherwise.
func (a *Interview) CanHandle(msg domain.AgentMessage, _ *domain.InterviewContext) float64 {
	switch msg.Sender {
	case domain.SenderUser:
		return 0.9
	case domain.SenderSystem:
		return 0.7
	default:
		return 0.3
	}
}

// Process generates the next interviewer utterance.
func (a *Interview) Process(ctx context.Context, msg domain.AgentMessage, ictx *domain.InterviewContext) domain.AgentResponse {
	ctx, span := tracer.StartSpan(ctx, "agent.interview",
		trace.WithAttributes(tracer.StringAttr("session_id", msg.SessionID)))
	defer span.End()

	switch msg.Sender {
	case domain.SenderUser:
		return a.followUp(ctx, msg, ictx)
	case domain.SenderSystem:
		return a.handleSystemEvent(ctx, msg, ictx)
	default:
		// Other agents' messages are acknowledged without content so
		// they never leak into the conversation.
		resp := a.respond("", 0.1)
		resp.Metadata["agent_message_processed"] = true
		return resp
	}
}

func (a *Interview) handleSystemEvent(ctx context.Context, msg domain.AgentMessage, ictx *domain.InterviewContext) domain.AgentResponse {
	if strings.Contains(strings.ToLower(msg.Content), "start_interview") {
		return a.welcome(ctx, ictx)
	}
	resp := a.respond("Interview system ready.", 0.5)
	resp.Metadata["system_message"] = true
	return resp
}

// welcome opens the session: a short self-introduction under a stable
// persona name plus the canonical opener question. Generated by the
// LLM; a static opener covers provider failure so the session still
// starts.
func (a *Interview) welcome(ctx context.Context, ictx *domain.InterviewContext) domain.AgentResponse {
	cfg := ictx.InterviewConfig()
	name := interviewerName(ictx.SessionID())

	var sb strings.Builder
	fmt.Fprintf(&sb, "You are %s, an expert interviewer conducting a %s interview.\n", name, cfg.InterviewType)
	fmt.Fprintf(&sb, "Interview tone: %s\n", cfg.Tone)
	candidate := ictx.Candidate()
	if candidate.CompanyName != "" {
		fmt.Fprintf(&sb, "Company: %s\n", candidate.CompanyName)
	}
	if candidate.RoleTitle != "" {
		fmt.Fprintf(&sb, "Position: %s\n", candidate.RoleTitle)
	}
	sb.WriteString("\nGenerate a natural, conversational welcome message that introduces " +
		"yourself by name, mentions the interview type (and company/role when given), " +
		"sets a professional but approachable tone, and ends with the question " +
		"'Tell me about yourself'. Keep it to 2-3 sentences. Never use placeholder " +
		"text in square brackets. Write only the welcome message:")

	content, cost, err := chatWithCost(ctx, a.provider, ictx.LLMConfig(), interviewSystemPrompt, sb.String())
	if err != nil {
		a.logger.Warn("welcome generation failed, using static opener",
			"session_id", ictx.SessionID(), "error", err)
		fallback := fmt.Sprintf("Hi, I'm %s. I'll be conducting your %s interview today. To get started, tell me about yourself.",
			name, cfg.InterviewType)
		resp := a.degrade(fallback, 0.5, err)
		resp.Metadata["interview_started"] = true
		resp.Metadata["phase"] = "introduction"
		return resp
	}

	ictx.UpdateAgentState(a.Name(), map[string]any{"interviewer_name": name})

	resp := a.respond(content, 0.9)
	resp.Metadata["interview_started"] = true
	resp.Metadata["phase"] = "introduction"
	resp.Metadata["cost"] = cost
	return resp
}

// followUp analyzes the candidate's answer and asks the next question.
func (a *Interview) followUp(ctx context.Context, msg domain.AgentMessage, ictx *domain.InterviewContext) domain.AgentResponse {
	state := ictx.AgentState(a.Name())
	if stateString(state, "candidate_name") == "" {
		if name := extractCandidateName(msg.Content); name != "" {
			ictx.UpdateAgentState(a.Name(), map[string]any{"candidate_name": name})
		}
	}

	analysis := analyzeAnswer(msg.Content)
	questionType := nextQuestionType(ictx.InterviewConfig().InterviewType, analysis)
	prompt := a.questionPrompt(questionType, ictx, msg.Content, analysis)

	content, cost, err := chatWithCost(ctx, a.provider, ictx.LLMConfig(), interviewSystemPrompt, prompt)
	if err != nil {
		a.logger.Warn("follow-up generation failed",
			"session_id", msg.SessionID, "question_type", questionType, "error", err)
		return a.degrade("Could you walk me through that in a bit more detail?", 0.3, err)
	}

	questionNumber := stateInt(state, "question_count") + 1
	ictx.UpdateAgentState(a.Name(), map[string]any{"question_count": questionNumber})

	resp := a.respond(content, 0.8)
	resp.Metadata["question_type"] = questionType
	resp.Metadata["question_number"] = questionNumber
	resp.Metadata["cost"] = cost
	return resp
}

func (a *Interview) questionPrompt(questionType string, ictx *domain.InterviewContext, previous string, analysis responseAnalysis) string {
	cfg := ictx.InterviewConfig()

	var sb strings.Builder
	fmt.Fprintf(&sb, "You are conducting a %s interview with a %s tone at %s difficulty level.\n\n",
		cfg.InterviewType, cfg.Tone, cfg.Difficulty)
	fmt.Fprintf(&sb, "The candidate just responded: %q\n\n", previous)
	fmt.Fprintf(&sb, "Response analysis:\n- Length: %d words\n- Technical terms: %s\n- Confidence: %s\n- Specific examples: %d provided\n",
		analysis.Length, strings.Join(analysis.TechnicalTerms, ", "), analysis.ConfidenceLevel, analysis.ExampleCount)

	if searchCtx := ictx.SearchContext(); len(searchCtx) > 0 {
		fmt.Fprintf(&sb, "\nBackground information from earlier research:\n%s\n",
			strings.Join(searchCtx, "\n"))
	}

	fmt.Fprintf(&sb, "\nBased on their response, generate a specific, contextual %s question that "+
		"references details they mentioned, asks for concrete examples or deeper explanations, "+
		"maintains a %s tone, is appropriate for %s difficulty, and encourages detailed responses. "+
		"If they didn't give enough information for an intelligent question, ask for more details.\n\nQuestion:",
		questionType, cfg.Tone, cfg.Difficulty)
	return sb.String()
}

func extractCandidateName(response string) string {
	lower := strings.ToLower(response)
	for _, re := range namePatterns {
		if m := re.FindStringSubmatch(lower); m != nil {
			return strings.ToUpper(m[1][:1]) + m[1][1:]
		}
	}
	return ""
}

func analyzeAnswer(response string) responseAnalysis {
	lower := strings.ToLower(response)

	var terms []string
	for _, t := range answerTechnicalTerms {
		if strings.Contains(lower, t) {
			terms = append(terms, t)
		}
	}
	var experience []string
	for _, ind := range experienceIndicators {
		if strings.Contains(lower, ind) {
			experience = append(experience, ind)
		}
	}

	confident, uncertain := 0, 0
	for _, ind := range confidentIndicators {
		if strings.Contains(lower, ind) {
			confident++
		}
	}
	for _, ind := range uncertainIndicators {
		if strings.Contains(lower, ind) {
			uncertain++
		}
	}
	level := "neutral"
	if confident > uncertain {
		level = "confident"
	} else if uncertain > confident {
		level = "uncertain"
	}

	examples := 0
	for _, ind := range exampleIndicators {
		if strings.Contains(lower, ind) {
			examples++
		}
	}

	return responseAnalysis{
		Length:          len(strings.Fields(response)),
		TechnicalTerms:  terms,
		Experience:      experience,
		ConfidenceLevel: level,
		ExampleCount:    examples,
		Metrics:         answerMetricRe.FindAllString(response, -1),
	}
}

// nextQuestionType picks the follow-up style from the interview type
// and what the answer showed.
func nextQuestionType(interviewType string, analysis responseAnalysis) string {
	switch interviewType {
	case "technical":
		switch {
		case len(analysis.TechnicalTerms) > 3:
			return "technical_depth"
		case len(analysis.TechnicalTerms) > 0:
			return "technical_implementation"
		case analysis.ConfidenceLevel == "confident":
			return "technical_optimization"
		default:
			return "technical_basic"
		}
	case "behavioral":
		switch {
		case analysis.ExampleCount > 0:
			return "behavioral_depth"
		case contains(analysis.Experience, "led") || contains(analysis.Experience, "managed"):
			return "behavioral_leadership"
		default:
			return "behavioral_general"
		}
	case "case_study":
		switch {
		case analysis.Length > 100:
			return "case_study_depth"
		case len(analysis.TechnicalTerms) > 0:
			return "case_study_alternatives"
		case analysis.ConfidenceLevel == "confident":
			return "case_study_challenges"
		default:
			return "case_study_general"
		}
	default:
		return "general"
	}
}

func contains(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
