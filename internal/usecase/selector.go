package usecase

import (
	"log/slog"
	"sort"
	"strings"

	"mockview/internal/domain"
)

// Well-known specialist agent names used by the routing cascade.
const (
	AgentInterview  = "interview"
	AgentFeedback   = "feedback"
	AgentSummary    = "summary"
	AgentSearch     = "search"
	AgentEvaluation = "evaluation"
	AgentTechnical  = "technical"
)

// scoredNames is the fixed preference order used to break score ties:
// conversational agents win over auxiliary ones.
var scoredNames = []string{AgentInterview, AgentTechnical, AgentFeedback, AgentSummary, AgentSearch, AgentEvaluation}

var (
	searchKeywords = []string{
		"search", "research", "find", "look up", "current", "trends", "company",
	}
	factQuestions = []string{
		"what was", "who was", "what is", "who is", "can you find", "can you look up",
		"what's the name", "what's his name", "what's her name",
		"who is the", "what is the", "who was the", "what was the",
	}
	companyNames = []string{
		"zodiac", "metrics", "google", "amazon", "microsoft", "apple",
		"facebook", "meta", "netflix", "uber", "airbnb", "stripe",
		"square", "acme", "startup", "company",
	}
	leadershipRoles = []string{
		"ceo", "founder", "president", "director", "manager", "co-founder",
		"chief", "leader", "boss", "head", "executive",
	}
	techMentions = []string{
		"python", "r", "sql", "spark", "hadoop", "tensorflow", "pytorch",
		"scikit-learn", "pandas", "numpy", "aws", "gcp", "azure",
		"docker", "kubernetes", "machine learning", "ai", "data science",
	}
	projectMentions = []string{
		"project", "worked on", "led", "managed", "developed", "built",
		"implemented", "created", "designed", "architected",
	}
	timeMentions = []string{
		"last year", "this year", "recently", "currently", "now", "today",
		"when", "during", "while",
	}
	entityMentions = []string{
		"new york", "san francisco", "seattle", "boston", "austin",
		"london", "berlin", "tokyo",
		"university", "college", "school", "institute",
	}
)

// Selector scores the specialist agents against each message and turns
// the scores into a routing decision. The scoring is a fixed rule
// cascade; later rules overwrite earlier ones so the most specific
// signal wins.
type Selector struct {
	supportThreshold float64
	maxSupporting    int
	logger           *slog.Logger
}

// NewSelector creates a selector. supportThreshold is the minimum score
// for an agent to ride along as supporting; maxSupporting caps the
// supporting list (0 = unlimited).
func NewSelector(supportThreshold float64, maxSupporting int, logger *slog.Logger) *Selector {
	if supportThreshold <= 0 {
		supportThreshold = 0.3
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Selector{
		supportThreshold: supportThreshold,
		maxSupporting:    maxSupporting,
		logger:           logger,
	}
}

// Select scores the agents for the message and picks a primary plus
// supporting agents above the threshold.
func (s *Selector) Select(msg domain.AgentMessage, ictx *domain.InterviewContext) domain.RoutingDecision {
	scores := s.score(msg, ictx)

	primary := scoredNames[0]
	for _, name := range scoredNames[1:] {
		if scores[name] > scores[primary] {
			primary = name
		}
	}

	var supporting []string
	for _, name := range scoredNames {
		if name != primary && scores[name] > s.supportThreshold {
			supporting = append(supporting, name)
		}
	}
	sort.Strings(supporting)
	if s.maxSupporting > 0 && len(supporting) > s.maxSupporting {
		supporting = supporting[:s.maxSupporting]
	}

	decision := domain.RoutingDecision{PrimaryAgent: primary, SupportingAgents: supporting}
	s.enhance(&decision, msg)

	s.logger.Debug("routing decision",
		"session_id", msg.SessionID,
		"primary", decision.PrimaryAgent,
		"supporting", decision.SupportingAgents,
		"search_score", scores[AgentSearch],
		"interview_score", scores[AgentInterview])

	return decision
}

// enhance applies context rules on top of the raw scores: user answers
// always get feedback analysis riding along, and an empty primary falls
// back to the interview agent.
func (s *Selector) enhance(d *domain.RoutingDecision, msg domain.AgentMessage) {
	if msg.Type == domain.MsgUserResponse &&
		d.PrimaryAgent != AgentFeedback && !d.HasSupporting(AgentFeedback) {
		d.SupportingAgents = append(d.SupportingAgents, AgentFeedback)
	}
	if d.PrimaryAgent == "" {
		d.PrimaryAgent = AgentInterview
	}
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

// score runs the rule cascade over the message. Strong signals (search
// intent, fact questions, long company narratives) overwrite scores;
// the weak keyword rules only nudge — they floor the search score and
// cap the interview score so a casual mention never cancels an explicit
// search request.
func (s *Selector) score(msg domain.AgentMessage, ictx *domain.InterviewContext) map[string]float64 {
	scores := map[string]float64{
		AgentInterview: 0, AgentTechnical: 0, AgentFeedback: 0,
		AgentSummary: 0, AgentSearch: 0, AgentEvaluation: 0,
	}
	lower := strings.ToLower(msg.Content)

	floorSearch := func(v float64) {
		if scores[AgentSearch] < v {
			scores[AgentSearch] = v
		}
	}
	capInterview := func(v float64) {
		if scores[AgentInterview] > v {
			scores[AgentInterview] = v
		}
	}

	if msg.Type == domain.MsgUserResponse {
		scores[AgentInterview] = 0.9
	}
	if msg.Type == domain.MsgSummaryRequest {
		scores[AgentSummary] = 0.9
		scores[AgentInterview] = 0
	}

	// Explicit search requests.
	if containsAny(lower, searchKeywords) {
		scores[AgentSearch] = 0.9
		scores[AgentInterview] = 0.3
	}

	// Fact-finding questions.
	if containsAny(lower, factQuestions) {
		floorSearch(0.8)
		capInterview(0.4)
	}

	// Company mentions. A long answer mentioning a company is the
	// candidate narrating their own experience, so search is suppressed
	// outright; a short mention gets a modest search boost.
	if containsAny(lower, companyNames) {
		if len(strings.Fields(msg.Content)) > 100 {
			scores[AgentSearch] = 0.2
			scores[AgentInterview] = 0.9
		} else {
			floorSearch(0.4)
			if scores[AgentInterview] < 0.7 && msg.Type == domain.MsgUserResponse {
				scores[AgentInterview] = 0.7
			}
		}
	}

	// Weak nudges: casual mentions of roles, technologies, projects,
	// time references, or places.
	if containsAny(lower, leadershipRoles) {
		floorSearch(0.3)
		capInterview(0.8)
	}
	if containsAny(lower, techMentions) {
		floorSearch(0.2)
		capInterview(0.8)
	}
	if containsAny(lower, projectMentions) {
		floorSearch(0.2)
		capInterview(0.8)
	}
	if containsAny(lower, timeMentions) {
		floorSearch(0.2)
		capInterview(0.8)
	}
	if containsAny(lower, entityMentions) {
		floorSearch(0.2)
		capInterview(0.8)
	}

	// Any question gets a floor on the search score, never a ceiling.
	if strings.Contains(msg.Content, "?") {
		floorSearch(0.4)
	}

	if msg.Type == domain.MsgSystemEvent {
		scores[AgentInterview] = 0.9
	}

	// The end-of-session assessment is triggered by a dedicated system
	// event and goes straight to the evaluation agent.
	if msg.Type == domain.MsgSystemEvent && strings.Contains(lower, "evaluate_session") {
		scores[AgentEvaluation] = 1.0
		scores[AgentInterview] = 0
	}

	allZero := true
	for _, v := range scores {
		if v != 0 {
			allZero = false
			break
		}
	}
	if allZero {
		scores[AgentInterview] = 0.5
	}

	// Technical sessions swap the conversational lead: whatever score
	// the interview agent earned moves to the technical interviewer,
	// leaving interview below the supporting threshold.
	if ictx != nil && ictx.InterviewConfig().InterviewType == "technical" &&
		scores[AgentInterview] > scores[AgentTechnical] {
		scores[AgentTechnical] = scores[AgentInterview]
		scores[AgentInterview] = 0.3
	}

	return scores
}
