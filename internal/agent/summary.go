package agent

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"go.opentelemetry.io/otel/trace"

	"mockview/internal/domain"
	"mockview/internal/infra/tracer"
)

var summaryKeywords = []string{"summary", "wrap up", "conclude", "end interview", "final thoughts"}

// SummaryDeps holds injected dependencies for the summary agent.
type SummaryDeps struct {
	Logger *slog.Logger
}

// Summary produces the end-of-interview report from the transcript and
// the feedback agent's rolling assessment. Purely heuristic — no LLM
// call, so the closing report is available even when providers are
// down.
type Summary struct {
	*Base
	logger *slog.Logger
}

// NewSummary creates the summary agent.
func NewSummary(deps SummaryDeps) *Summary {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Summary{
		Base:   NewBase("summary", domain.CapSummaryGeneration, domain.CapPerformanceScoring),
		logger: deps.Logger,
	}
}

// CanHandle fires on explicit summary requests and during the closing
// phases.
func (a *Summary) CanHandle(msg domain.AgentMessage, ictx *domain.InterviewContext) float64 {
	lower := strings.ToLower(msg.Content)
	if containsAnyTerm(lower, summaryKeywords) {
		return 0.9
	}
	if ictx != nil {
		switch ictx.Phase() {
		case domain.PhaseWrapUp, domain.PhaseCompleted:
			return 0.8
		}
	}
	return 0.1
}

// Process assembles the summary.
func (a *Summary) Process(ctx context.Context, msg domain.AgentMessage, ictx *domain.InterviewContext) domain.AgentResponse {
	_, span := tracer.StartSpan(ctx, "agent.summary",
		trace.WithAttributes(tracer.StringAttr("session_id", msg.SessionID)))
	defer span.End()

	if ictx == nil || ictx.HistoryLen() == 0 {
		return a.respond("There isn't enough conversation yet for a summary.", 0.3)
	}

	report := buildSessionReport(ictx)

	resp := a.respond(formatSessionReport(report), 0.9)
	resp.Metadata["summary_data"] = report
	resp.Metadata["summary_type"] = "comprehensive"
	return resp
}

// SessionReport is the structured view behind the formatted summary.
type SessionReport struct {
	SessionID          string   `json:"session_id"`
	DurationMinutes    float64  `json:"duration_minutes"`
	TotalExchanges     int      `json:"total_exchanges"`
	InterviewType      string   `json:"interview_type"`
	OverallScore       float64  `json:"overall_score"`
	TechnicalScore     float64  `json:"technical_score"`
	CommunicationScore float64  `json:"communication_score"`
	EngagementScore    float64  `json:"engagement_score"`
	AvgResponseWords   float64  `json:"avg_response_words"`
	Strengths          []string `json:"strengths"`
	Improvements       []string `json:"improvements"`
	Recommendations    []string `json:"recommendations"`
	TopicsCovered      []string `json:"topics_covered"`
}

var summaryTechnicalTerms = []string{
	"algorithm", "model", "data", "python", "sql", "machine learning",
	"statistics", "analysis", "database", "api", "framework", "library",
	"optimization", "performance", "scalability", "architecture",
}

var summaryStructureTerms = []string{"first", "second", "then", "because", "therefore", "for example"}

var topicVocabulary = []struct {
	Topic string
	Terms []string
}{
	{"Machine Learning", []string{"machine learning", "model", "algorithm", "prediction"}},
	{"Data Analysis", []string{"data analysis", "statistics", "visualization", "insights"}},
	{"Programming", []string{"python", "code", "programming", "implementation", "development"}},
	{"Databases", []string{"sql", "database", "query", "data storage"}},
	{"Business Understanding", []string{"business", "stakeholder", "requirement", "process"}},
	{"Problem Solving", []string{"approach", "solution", "problem", "challenge", "methodology"}},
}

func buildSessionReport(ictx *domain.InterviewContext) SessionReport {
	turns := ictx.RecentTurns(ictx.HistoryLen())

	var userContents []string
	totalWords := 0
	for _, t := range turns {
		if t.Speaker == domain.SenderUser {
			userContents = append(userContents, t.Content)
			totalWords += len(strings.Fields(t.Content))
		}
	}
	userTurns := len(userContents)
	avgWords := 0.0
	if userTurns > 0 {
		avgWords = float64(totalWords) / float64(userTurns)
	}
	allUser := strings.ToLower(strings.Join(userContents, " "))

	// Technical competency from vocabulary coverage.
	technicalMentions := 0
	for _, term := range summaryTechnicalTerms {
		if strings.Contains(allUser, term) {
			technicalMentions++
		}
	}
	technicalScore := math.Min(1, float64(technicalMentions)/10)

	// Communication from response length and structure markers.
	structureCount := 0
	for _, c := range userContents {
		lower := strings.ToLower(c)
		for _, term := range summaryStructureTerms {
			if strings.Contains(lower, term) {
				structureCount++
			}
		}
	}
	lengthScore := math.Min(1, avgWords/25)
	structureScore := 0.0
	if userTurns > 0 {
		structureScore = math.Min(1, float64(structureCount)/float64(userTurns*2))
	}
	communicationScore := (lengthScore + structureScore) / 2

	engagementScore := math.Min(1, avgWords/30)

	// Overall score prefers the feedback agent's rolling assessment
	// when one exists.
	overall := (technicalScore + communicationScore + engagementScore) / 3
	feedbackState := ictx.AgentState("feedback")
	if stateInt(feedbackState, "evaluated_count") > 0 {
		sum, n := 0.0, 0
		for _, key := range []string{"avg_technical_depth", "avg_clarity", "avg_specificity", "avg_structure"} {
			if v, ok := feedbackState[key].(float64); ok {
				sum += v
				n++
			}
		}
		if n > 0 {
			overall = sum / float64(n)
		}
	}

	var strengths []string
	if overall >= 0.7 {
		strengths = append(strengths, "Consistently strong responses")
	}
	if technicalScore >= 0.6 {
		strengths = append(strengths, "Good technical foundation")
	}
	if communicationScore >= 0.7 {
		strengths = append(strengths, "Effective communication skills")
	}
	if engagementScore >= 0.7 {
		strengths = append(strengths, "High engagement and participation")
	}
	if len(strengths) == 0 {
		strengths = append(strengths, "Completed the interview process")
	}

	var improvements []string
	if technicalScore < 0.5 {
		improvements = append(improvements, "Expand technical vocabulary and concepts")
	}
	if communicationScore < 0.6 {
		improvements = append(improvements, "Provide more structured and detailed responses")
	}
	if avgWords < 15 {
		improvements = append(improvements, "Elaborate more on answers")
	}

	var recommendations []string
	switch {
	case overall >= 0.8:
		recommendations = append(recommendations, "Excellent interview performance! Focus on maintaining this level.")
	case overall >= 0.6:
		recommendations = append(recommendations, "Good foundation demonstrated. Continue practicing interview skills.")
	default:
		recommendations = append(recommendations, "Focus on providing more detailed and specific responses.")
	}
	if technicalScore < 0.6 {
		recommendations = append(recommendations, "Review core technical concepts and practice explaining them clearly.")
	}
	if communicationScore < 0.6 {
		recommendations = append(recommendations, "Practice structuring responses with clear examples and logical flow.")
	}

	var topics []string
	for _, tv := range topicVocabulary {
		for _, term := range tv.Terms {
			if strings.Contains(allUser, term) {
				topics = append(topics, tv.Topic)
				break
			}
		}
	}

	return SessionReport{
		SessionID:          ictx.SessionID(),
		DurationMinutes:    math.Round(ictx.Duration().Minutes()*10) / 10,
		TotalExchanges:     len(turns) / 2,
		InterviewType:      ictx.InterviewConfig().InterviewType,
		OverallScore:       round2(overall),
		TechnicalScore:     round2(technicalScore),
		CommunicationScore: round2(communicationScore),
		EngagementScore:    round2(engagementScore),
		AvgResponseWords:   math.Round(avgWords*10) / 10,
		Strengths:          strengths,
		Improvements:       improvements,
		Recommendations:    recommendations,
		TopicsCovered:      topics,
	}
}

func formatSessionReport(r SessionReport) string {
	var sb strings.Builder
	sb.WriteString("## Interview Summary\n\n")
	fmt.Fprintf(&sb, "**Session Details:**\n- Duration: %.1f minutes\n- Interview Type: %s\n- Total Exchanges: %d\n\n",
		r.DurationMinutes, r.InterviewType, r.TotalExchanges)
	fmt.Fprintf(&sb, "**Performance Overview:**\n- Overall Score: %.1f/1.0\n- Technical Competency: %.1f/1.0\n- Communication Effectiveness: %.1f/1.0\n\n",
		r.OverallScore, r.TechnicalScore, r.CommunicationScore)

	sb.WriteString("**Key Strengths:**\n")
	for _, s := range r.Strengths {
		fmt.Fprintf(&sb, "- %s\n", s)
	}
	if len(r.Improvements) > 0 {
		sb.WriteString("\n**Areas for Improvement:**\n")
		for _, s := range r.Improvements {
			fmt.Fprintf(&sb, "- %s\n", s)
		}
	}
	sb.WriteString("\n**Recommendations:**\n")
	for _, s := range r.Recommendations {
		fmt.Fprintf(&sb, "- %s\n", s)
	}
	return strings.TrimSpace(sb.String())
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
