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

var (
	searchTriggerKeywords = []string{
		"search", "research", "find", "look up", "current", "trends", "company",
	}
	currentInfoKeywords = []string{
		"latest", "recent", "new", "update", "current", "trending",
	}
	factQuestionPhrases = []string{
		"what was", "who was", "what is", "who is", "can you find", "can you look up",
		"what's the name", "what's his name", "what's her name",
		"who is the", "what is the", "who was the", "what was the",
	}
	knownCompanyNames = []string{
		"zodiac", "metrics", "google", "amazon", "microsoft", "apple",
		"facebook", "meta", "netflix", "uber", "airbnb", "stripe",
		"square", "acme", "startup", "company",
	}
	leadershipMentions = []string{
		"ceo", "founder", "president", "director", "manager", "co-founder",
		"chief", "leader", "boss", "head", "executive",
	}
	technologyMentions = []string{
		"python", "r", "sql", "spark", "hadoop", "tensorflow", "pytorch",
		"scikit-learn", "pandas", "numpy", "aws", "gcp", "azure",
		"docker", "kubernetes", "machine learning", "ai", "data science",
	}
	projectPhrases = []string{
		"project", "worked on", "led", "managed", "developed", "built",
		"implemented", "created", "designed", "architected",
	}
	timePhrases = []string{
		"last year", "this year", "recently", "currently", "now", "today",
		"when", "during", "while",
	}
	entityPhrases = []string{
		"new york", "san francisco", "seattle", "boston", "austin",
		"london", "berlin", "tokyo",
		"university", "college", "school", "institute",
	}

	companyPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)\s+(?:Inc|Corp|LLC|Ltd|Company|Co)\b`),
		regexp.MustCompile(`\b([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)\s+(?:Technologies|Tech|Analytics|Solutions|Systems)\b`),
		regexp.MustCompile(`\b([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)\s+(?:Metrics|Data|AI|ML|Analytics)\b`),
	}
)

// SearchDeps holds injected dependencies for the search agent.
type SearchDeps struct {
	Provider   domain.SearchProvider
	MaxResults int
	Logger     *slog.Logger
}

// Search looks up company background when the conversation calls for
// it. It is deliberately conservative: without a resolvable company in
// the recent turns it emits an empty zero-confidence response, so the
// orchestrator's combiner never surfaces a pointless search.
type Search struct {
	*Base
	provider   domain.SearchProvider
	maxResults int
	logger     *slog.Logger
}

// NewSearch creates the search agent.
func NewSearch(deps SearchDeps) *Search {
	if deps.MaxResults <= 0 {
		deps.MaxResults = 3
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Search{
		Base:       NewBase("search", domain.CapWebSearch, domain.CapResearch, domain.CapInformationGathering),
		provider:   deps.Provider,
		maxResults: deps.MaxResults,
		logger:     deps.Logger,
	}
}

// CanHandle scores explicit search intent highest, current-information
// questions in the middle, and everything else low.
func (a *Search) CanHandle(msg domain.AgentMessage, _ *domain.InterviewContext) float64 {
	lower := strings.ToLower(msg.Content)
	if containsAnyTerm(lower, searchTriggerKeywords) {
		return 0.8
	}
	if containsAnyTerm(lower, currentInfoKeywords) {
		return 0.6
	}
	return 0.1
}

// Process performs a company lookup when the message warrants one.
func (a *Search) Process(ctx context.Context, msg domain.AgentMessage, ictx *domain.InterviewContext) domain.AgentResponse {
	ctx, span := tracer.StartSpan(ctx, "agent.search",
		trace.WithAttributes(tracer.StringAttr("session_id", msg.SessionID)))
	defer span.End()

	if !shouldSearch(msg) {
		resp := a.respond("", 0)
		resp.Metadata["skipped"] = "no search needed"
		return resp
	}

	company := extractCompany(ictx)
	if company == "" {
		resp := a.respond("", 0)
		resp.Metadata["skipped"] = "no company mentioned"
		return resp
	}
	span.SetAttributes(tracer.StringAttr("company", company))

	results, err := a.provider.Search(ctx, company, a.maxResults)
	if err != nil {
		a.logger.Warn("search failed", "session_id", msg.SessionID, "company", company, "error", err)
		tracer.RecordError(span, err)
		return a.degrade("", 0, err)
	}
	if len(results) == 0 {
		resp := a.respond(fmt.Sprintf("No information found for company %q.", company), 0.3)
		resp.Metadata["company"] = company
		return resp
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Information about %q:\n\n", company)
	for i, r := range results {
		fmt.Fprintf(&sb, "%d. %s\n%s\n\n", i+1, r.Title, r.Snippet)
	}

	resp := a.respond(strings.TrimSpace(sb.String()), 0.8)
	resp.Metadata["search_performed"] = true
	resp.Metadata["company"] = company
	return resp
}

// shouldSearch mirrors the routing cascade's trigger vocabulary: any
// explicit request, fact question, or mention of a company, role,
// technology, project, time reference, place, or a question mark.
func shouldSearch(msg domain.AgentMessage) bool {
	lower := strings.ToLower(msg.Content)
	for _, terms := range [][]string{
		searchTriggerKeywords, factQuestionPhrases, knownCompanyNames,
		leadershipMentions, technologyMentions, projectPhrases,
		timePhrases, entityPhrases,
	} {
		if containsAnyTerm(lower, terms) {
			return true
		}
	}
	return strings.Contains(msg.Content, "?")
}

// extractCompany resolves a company name from the last two conversation
// turns. The current message is not scanned: candidates ask "who is the
// CEO?" after naming the company in an earlier answer.
func extractCompany(ictx *domain.InterviewContext) string {
	if ictx == nil {
		return ""
	}
	for _, turn := range ictx.RecentTurns(2) {
		for _, re := range companyPatterns {
			if m := re.FindStringSubmatch(turn.Content); m != nil {
				return m[1]
			}
		}
	}
	return ""
}

func containsAnyTerm(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
