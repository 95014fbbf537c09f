package feedback

import "strings"

// Response type labels produced by the classifier.
const (
	TypeTechnical  = "technical"
	TypeBehavioral = "behavioral"
	TypeLeadership = "leadership"
	TypeProject    = "project"
	TypeGeneral    = "general"
)

var (
	technicalIndicators = append(append([]string{}, technicalKeywords...),
		"code", "programming", "development", "implementation", "architecture")

	behavioralIndicators = []string{
		"experience", "worked on", "handled", "managed", "led", "supervised",
		"team", "collaboration", "stakeholder", "challenge", "problem", "situation",
		"action", "result", "outcome", "impact", "achievement", "improvement",
		"project", "role", "responsibility", "initiative", "strategy", "approach",
		"mentored", "coached", "guided", "facilitated", "coordinated", "orchestrated",
	}

	leadershipIndicators = append(append([]string{}, leadershipKeywords...),
		"leadership", "management", "supervision", "coordination", "facilitation",
		"strategic", "organizational", "transformational", "change management")

	projectIndicators = []string{
		"project", "initiative", "campaign", "program", "system", "platform",
		"application", "tool", "framework", "solution", "product", "service",
		"implementation", "deployment", "launch", "rollout", "migration",
		"timeline", "budget", "scope", "requirement", "specification",
	}

	generalIndicators = []string{
		"think", "believe", "feel", "would", "could", "should", "might",
		"probably", "possibly", "maybe", "perhaps", "generally", "typically",
		"usually", "often", "sometimes", "rarely", "never", "always",
	}
)

// Classifier labels answers by content type and gates which answers are
// worth scoring at all.
type Classifier struct{}

// NewClassifier returns a ready-to-use Classifier.
func NewClassifier() *Classifier { return &Classifier{} }

// Classify returns the dominant response type. interviewType (may be
// empty) boosts related types; a weak maximum falls back to "general".
func (c *Classifier) Classify(response, interviewType string) string {
	if response == "" {
		return TypeGeneral
	}
	lower := strings.ToLower(response)

	wordCount := len(strings.Fields(response))
	norm := func(count int) float64 {
		if wordCount == 0 {
			return float64(count)
		}
		return float64(count) / (float64(wordCount) * 0.1)
	}

	scores := map[string]float64{
		TypeTechnical:  norm(countMatches(lower, technicalIndicators)),
		TypeBehavioral: norm(countMatches(lower, behavioralIndicators)),
		TypeLeadership: norm(countMatches(lower, leadershipIndicators)),
		TypeProject:    norm(countMatches(lower, projectIndicators)),
		TypeGeneral:    norm(countMatches(lower, generalIndicators)),
	}

	primary := maxScore(scores)

	switch interviewType {
	case "technical":
		if primary == TypeTechnical {
			scores[TypeTechnical] *= 1.5
		}
	case "behavioral":
		if primary == TypeBehavioral || primary == TypeLeadership {
			scores[TypeBehavioral] *= 1.3
			scores[TypeLeadership] *= 1.2
		}
	case "case_study":
		if primary == TypeProject || primary == TypeTechnical {
			scores[TypeProject] *= 1.3
			scores[TypeTechnical] *= 1.2
		}
	}

	primary = maxScore(scores)
	if scores[primary] < 0.1 {
		return TypeGeneral
	}
	return primary
}

// maxScore returns the highest scoring type; ties break alphabetically
// so classification stays deterministic.
func maxScore(scores map[string]float64) string {
	best := ""
	for name, score := range scores {
		if best == "" || score > scores[best] || (score == scores[best] && name < best) {
			best = name
		}
	}
	return best
}

// Subtype refines the main type with a more specific label.
func (c *Classifier) Subtype(response, responseType string) string {
	if response == "" {
		return TypeGeneral
	}
	lower := strings.ToLower(response)

	contains := func(terms ...string) bool {
		return countMatches(lower, terms) > 0
	}

	switch responseType {
	case TypeTechnical:
		switch {
		case contains("sql", "database", "query"):
			return "sql"
		case contains("pandas", "numpy", "dataframe"):
			return "data_analysis"
		case contains("algorithm", "complexity", "big o"):
			return "algorithms"
		case contains("machine learning", "ml", "model"):
			return "machine_learning"
		case contains("api", "rest", "endpoint"):
			return "api_development"
		default:
			return "general_technical"
		}
	case TypeBehavioral:
		switch {
		case contains("situation", "task", "action", "result"):
			return "star_method"
		case contains("project", "initiative", "campaign"):
			return "project_experience"
		case contains("challenge", "problem", "difficulty"):
			return "challenge_handling"
		case contains("team", "collaboration", "stakeholder"):
			return "team_work"
		default:
			return "general_behavioral"
		}
	case TypeLeadership:
		switch {
		case contains("led", "managed", "supervised"):
			return "people_management"
		case contains("strategy", "vision", "planning"):
			return "strategic_thinking"
		case contains("mentored", "coached", "guided"):
			return "mentoring"
		case contains("influence", "stakeholder", "presentation"):
			return "influence_communication"
		default:
			return "general_leadership"
		}
	case TypeProject:
		switch {
		case contains("implementation", "deployment", "launch"):
			return "project_execution"
		case contains("timeline", "budget", "scope"):
			return "project_management"
		case contains("requirement", "specification", "design"):
			return "project_planning"
		default:
			return "general_project"
		}
	}
	return TypeGeneral
}

var introIndicators = []string{
	"hi", "hello", "hey", "good morning", "good afternoon", "good evening",
	"nice to meet you", "pleasure to meet you", "thank you for having me",
}

var ackIndicators = []string{
	"yes", "no", "okay", "sure", "absolutely", "definitely", "of course",
	"i understand", "got it", "makes sense", "thank you",
}

// ShouldEvaluate reports whether an answer is substantive enough to
// score. Empty, short, purely interrogative, introductory, and
// acknowledgment-only answers are skipped.
func (c *Classifier) ShouldEvaluate(response string) bool {
	if response == "" {
		return false
	}
	if len(strings.Fields(response)) < 10 {
		return false
	}
	if strings.HasSuffix(strings.TrimSpace(response), "?") {
		return false
	}
	lower := strings.ToLower(response)
	if countMatches(lower, introIndicators) > 0 {
		return false
	}
	if countMatches(lower, ackIndicators) > 0 {
		return false
	}
	return true
}

// EvaluationPriority ranks response types for evaluation ordering;
// lower is more urgent.
func (c *Classifier) EvaluationPriority(responseType string) int {
	switch responseType {
	case TypeTechnical:
		return 1
	case TypeBehavioral, TypeLeadership:
		return 2
	case TypeProject:
		return 3
	default:
		return 4
	}
}
