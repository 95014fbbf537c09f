// Package feedback provides heuristic analysis of candidate answers:
// classification, scoring across interview dimensions, and coaching
// text generation. All scoring is deterministic keyword analysis so it
// works without an LLM round trip.
package feedback

import (
	"math"
	"regexp"
	"strings"
)

// AssessmentMetrics holds the scored dimensions of one candidate answer.
// All float scores lie in [0,1].
type AssessmentMetrics struct {
	TechnicalDepth          float64  `json:"technical_depth"`
	TechnicalAccuracy       float64  `json:"technical_accuracy"`
	CommunicationClarity    float64  `json:"communication_clarity"`
	Specificity             float64  `json:"specificity"`
	Structure               float64  `json:"structure"`
	ProblemSolving          float64  `json:"problem_solving"`
	CommunicationStyle      float64  `json:"communication_style"`
	STARMethodUsage         float64  `json:"star_method_usage"`
	ImpactQuantification    float64  `json:"impact_quantification"`
	LeadershipDemonstration float64  `json:"leadership_demonstration"`
	WordCount               int      `json:"word_count"`
	Keywords                []string `json:"keywords,omitempty"`
	Sentiment               string   `json:"sentiment"`
	Completeness            float64  `json:"completeness"`
}

var (
	numberRe   = regexp.MustCompile(`\d+`)
	metricRe   = regexp.MustCompile(`(?i)\d+%|\d+ percent|\d+ times|\d+x|\$\d+|\d+ dollars`)
	sentenceRe = regexp.MustCompile(`[.!?]+`)

	accuracyPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)big o\([^)]*\)`),
		regexp.MustCompile(`(?i)complexity of [^.]*`),
		regexp.MustCompile(`(?i)algorithm [^.]*`),
		regexp.MustCompile(`(?i)data structure[^.]*`),
		regexp.MustCompile(`(?i)optimization[^.]*`),
		regexp.MustCompile(`(?i)scaling[^.]*`),
	}
)

var (
	technicalKeywords = []string{
		"python", "sql", "pandas", "numpy", "scikit-learn", "tensorflow", "pytorch",
		"machine learning", "deep learning", "neural network", "algorithm", "data structure",
		"optimization", "scaling", "performance", "efficiency", "complexity", "big o",
		"database", "api", "rest", "graphql", "docker", "kubernetes", "aws", "azure",
		"git", "version control", "testing", "unit test", "integration test",
		"statistics", "probability", "regression", "classification", "clustering",
		"nlp", "computer vision", "time series", "forecasting", "etl", "data pipeline",
	}

	starKeywords = []string{
		"situation", "task", "action", "result", "challenge", "problem", "solution",
		"implemented", "developed", "created", "built", "designed", "managed", "led",
		"improved", "increased", "decreased", "reduced", "optimized", "solved",
	}

	leadershipKeywords = []string{
		"led", "managed", "supervised", "mentored", "coached", "guided", "directed",
		"team", "collaboration", "stakeholder", "presentation", "strategy", "vision",
		"decision", "influence", "motivate", "inspire", "delegate", "empower",
	}
)

// countMatches reports how many terms appear as substrings of the
// lowercased text.
func countMatches(lower string, terms []string) int {
	n := 0
	for _, t := range terms {
		if strings.Contains(lower, t) {
			n++
		}
	}
	return n
}

func capRatio(count int, cap float64) float64 {
	return math.Min(1.0, float64(count)/cap)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Assessor scores interview answers along the dimensions of
// AssessmentMetrics.
type Assessor struct{}

// NewAssessor returns a ready-to-use Assessor.
func NewAssessor() *Assessor { return &Assessor{} }

// TechnicalDepth scores technical vocabulary and explanatory language.
func (a *Assessor) TechnicalDepth(response string) float64 {
	if response == "" {
		return 0
	}
	lower := strings.ToLower(response)

	explanationIndicators := []string{
		"because", "due to", "as a result", "therefore", "consequently",
		"algorithm", "approach", "methodology", "technique", "process",
		"implementation", "architecture", "design pattern", "framework",
	}

	keywordScore := capRatio(countMatches(lower, technicalKeywords), 5)
	explanationScore := capRatio(countMatches(lower, explanationIndicators), 3)

	return round2(keywordScore*0.6 + explanationScore*0.4)
}

// CommunicationClarity scores structural markers, clarifying language,
// and sentence length (around 15 words per sentence scores best).
func (a *Assessor) CommunicationClarity(response string) float64 {
	if response == "" {
		return 0
	}
	lower := strings.ToLower(response)

	structureIndicators := []string{
		"first", "second", "third", "initially", "then", "finally",
		"step 1", "step 2", "step 3", "phase 1", "phase 2",
		"beginning", "middle", "end", "start", "conclude",
	}
	clarityIndicators := []string{
		"specifically", "in detail", "to clarify", "in other words",
		"for example", "such as", "including", "namely", "that is",
	}

	structureScore := capRatio(countMatches(lower, structureIndicators), 2)
	clarityScore := capRatio(countMatches(lower, clarityIndicators), 2)
	complexityScore := math.Max(0, 1.0-(avgSentenceLength(response)-15)/10.0)

	return round2(structureScore*0.4 + clarityScore*0.4 + complexityScore*0.2)
}

func avgSentenceLength(response string) float64 {
	sentences := sentenceRe.Split(response, -1)
	total := 0
	for _, s := range sentences {
		if strings.TrimSpace(s) != "" {
			total += len(strings.Fields(s))
		}
	}
	n := len(sentences)
	if n == 0 {
		n = 1
	}
	return float64(total) / float64(n)
}

// Specificity scores concrete numbers, examples, and details.
func (a *Assessor) Specificity(response string) float64 {
	if response == "" {
		return 0
	}
	lower := strings.ToLower(response)

	exampleIndicators := []string{
		"for example", "such as", "specifically", "in particular",
		"including", "namely", "that is", "i.e.", "e.g.",
	}
	detailIndicators := []string{
		"company", "project", "team", "role", "technology", "tool",
		"timeline", "budget", "scope", "stakeholder", "requirement",
	}

	numberScore := capRatio(len(numberRe.FindAllString(response, -1)), 3)
	exampleScore := capRatio(countMatches(lower, exampleIndicators), 2)
	detailScore := capRatio(countMatches(lower, detailIndicators), 3)

	return round2(numberScore*0.4 + exampleScore*0.3 + detailScore*0.3)
}

// Structure scores logical flow, topic sentences, and paragraphing.
func (a *Assessor) Structure(response string) float64 {
	if response == "" {
		return 0
	}
	lower := strings.ToLower(response)

	flowIndicators := []string{
		"first", "second", "third", "next", "then", "finally",
		"initially", "subsequently", "consequently", "therefore",
		"as a result", "because of this", "leading to",
	}
	topicWords := []string{"was", "is", "had", "did", "created", "developed"}

	topicSentences := 0
	for _, sentence := range sentenceRe.Split(response, -1) {
		if len(strings.Fields(sentence)) > 5 && countMatches(strings.ToLower(sentence), topicWords) > 0 {
			topicSentences++
		}
	}

	flowScore := capRatio(countMatches(lower, flowIndicators), 3)
	topicScore := capRatio(topicSentences, 2)
	paragraphScore := capRatio(len(strings.Split(response, "\n\n")), 2)

	return round2(flowScore*0.4 + topicScore*0.3 + paragraphScore*0.3)
}

// TechnicalAccuracy scores precise technical terminology and recognized
// explanation patterns.
func (a *Assessor) TechnicalAccuracy(response string) float64 {
	if response == "" {
		return 0
	}
	lower := strings.ToLower(response)

	preciseTerms := []string{
		"algorithm", "complexity", "optimization", "scaling", "performance",
		"efficiency", "throughput", "latency", "bandwidth", "memory",
		"cpu", "gpu", "parallel", "distributed", "microservices",
		"api", "endpoint", "request", "response", "authentication",
	}

	patternMatches := 0
	for _, re := range accuracyPatterns {
		if re.MatchString(response) {
			patternMatches++
		}
	}

	preciseScore := capRatio(countMatches(lower, preciseTerms), 4)
	patternScore := capRatio(patternMatches, 2)

	return round2(preciseScore*0.6 + patternScore*0.4)
}

// ProblemSolving scores systematic approach, analysis, and solution
// language.
func (a *Assessor) ProblemSolving(response string) float64 {
	if response == "" {
		return 0
	}
	lower := strings.ToLower(response)

	systematicIndicators := []string{
		"step by step", "systematic", "methodical", "approach",
		"process", "methodology", "framework", "strategy",
	}
	analysisIndicators := []string{
		"analyzed", "identified", "understood", "assessed", "evaluated",
		"considered", "examined", "investigated", "researched",
	}
	solutionIndicators := []string{
		"solution", "approach", "method", "technique", "strategy",
		"implemented", "developed", "created", "designed", "built",
	}

	systematicScore := capRatio(countMatches(lower, systematicIndicators), 2)
	analysisScore := capRatio(countMatches(lower, analysisIndicators), 3)
	solutionScore := capRatio(countMatches(lower, solutionIndicators), 3)

	return round2(systematicScore*0.4 + analysisScore*0.3 + solutionScore*0.3)
}

// CommunicationStyle scores professional tone with a penalty for
// unprofessional word choices.
func (a *Assessor) CommunicationStyle(response string) float64 {
	if response == "" {
		return 0
	}
	lower := strings.ToLower(response)

	professionalIndicators := []string{
		"professional", "collaborative", "respectful", "constructive",
		"positive", "confident", "humble", "open-minded",
	}
	inappropriateWords := []string{"bad", "terrible", "awful", "hate", "stupid", "dumb"}
	balancedIndicators := []string{
		"however", "on the other hand", "alternatively", "meanwhile",
		"although", "despite", "nevertheless", "conversely",
	}

	professionalScore := capRatio(countMatches(lower, professionalIndicators), 2)
	penalty := math.Min(1.0, float64(countMatches(lower, inappropriateWords))*0.2)
	balancedScore := capRatio(countMatches(lower, balancedIndicators), 2)

	return round2(math.Max(0, professionalScore*0.5+balancedScore*0.5-penalty))
}

// STARMethod scores presence of Situation, Task, Action, and Result
// components, averaged across the four.
func (a *Assessor) STARMethod(response string) float64 {
	if response == "" {
		return 0
	}
	lower := strings.ToLower(response)

	components := [][]string{
		{"situation", "context", "background", "environment"},
		{"task", "challenge", "problem", "goal", "objective"},
		{"action", "approach", "method", "strategy", "implemented"},
		{"result", "outcome", "impact", "achievement", "improvement"},
	}

	total := 0.0
	for _, keywords := range components {
		total += capRatio(countMatches(lower, keywords), 2)
	}
	return round2(total / float64(len(components)))
}

// ImpactQuantification scores concrete metrics, impact verbs, and
// before/after comparisons.
func (a *Assessor) ImpactQuantification(response string) float64 {
	if response == "" {
		return 0
	}
	lower := strings.ToLower(response)

	impactIndicators := []string{
		"increased", "decreased", "improved", "reduced", "enhanced",
		"boosted", "accelerated", "optimized", "streamlined", "efficient",
	}
	comparisonIndicators := []string{
		"before", "after", "previously", "now", "from", "to",
		"changed", "transformed", "evolved", "progressed",
	}

	metricScore := capRatio(len(metricRe.FindAllString(response, -1)), 2)
	impactScore := capRatio(countMatches(lower, impactIndicators), 3)
	comparisonScore := capRatio(countMatches(lower, comparisonIndicators), 2)

	return round2(metricScore*0.5 + impactScore*0.3 + comparisonScore*0.2)
}

// LeadershipDemonstration scores leadership actions, team language, and
// strategic thinking.
func (a *Assessor) LeadershipDemonstration(response string) float64 {
	if response == "" {
		return 0
	}
	lower := strings.ToLower(response)

	leadershipActions := []string{
		"led", "managed", "supervised", "mentored", "coached",
		"guided", "directed", "orchestrated", "coordinated", "facilitated",
	}
	teamIndicators := []string{
		"team", "collaboration", "partnership", "stakeholder",
		"cross-functional", "interdisciplinary", "coordination",
	}
	strategicIndicators := []string{
		"strategy", "vision", "planning", "roadmap", "initiative",
		"transformation", "change management", "organizational",
	}

	actionScore := capRatio(countMatches(lower, leadershipActions), 3)
	teamScore := capRatio(countMatches(lower, teamIndicators), 2)
	strategicScore := capRatio(countMatches(lower, strategicIndicators), 2)

	return round2(actionScore*0.5 + teamScore*0.3 + strategicScore*0.2)
}

// ExtractKeywords returns up to 10 recognized keywords found in the
// response, in keyword-list order.
func (a *Assessor) ExtractKeywords(response string) []string {
	if response == "" {
		return nil
	}
	lower := strings.ToLower(response)

	var found []string
	for _, list := range [][]string{technicalKeywords, starKeywords, leadershipKeywords} {
		for _, kw := range list {
			if strings.Contains(lower, kw) {
				found = append(found, kw)
				if len(found) == 10 {
					return found
				}
			}
		}
	}
	return found
}

// Sentiment returns "positive", "negative", or "neutral" based on word
// counts.
func (a *Assessor) Sentiment(response string) string {
	if response == "" {
		return "neutral"
	}
	lower := strings.ToLower(response)

	positive := countMatches(lower, []string{"success", "achievement", "improved", "positive", "excellent", "great"})
	negative := countMatches(lower, []string{"failure", "problem", "issue", "difficult", "challenge", "struggle"})

	switch {
	case positive > negative:
		return "positive"
	case negative > positive:
		return "negative"
	default:
		return "neutral"
	}
}

// Completeness scores length against a 50-word expectation.
func (a *Assessor) Completeness(response string) float64 {
	if response == "" {
		return 0
	}
	return round2(capRatio(len(strings.Fields(response)), 50))
}

// Assess runs every assessment over the response and returns the full
// metric set.
func (a *Assessor) Assess(response string) AssessmentMetrics {
	return AssessmentMetrics{
		TechnicalDepth:          a.TechnicalDepth(response),
		TechnicalAccuracy:       a.TechnicalAccuracy(response),
		CommunicationClarity:    a.CommunicationClarity(response),
		Specificity:             a.Specificity(response),
		Structure:               a.Structure(response),
		ProblemSolving:          a.ProblemSolving(response),
		CommunicationStyle:      a.CommunicationStyle(response),
		STARMethodUsage:         a.STARMethod(response),
		ImpactQuantification:    a.ImpactQuantification(response),
		LeadershipDemonstration: a.LeadershipDemonstration(response),
		WordCount:               len(strings.Fields(response)),
		Keywords:                a.ExtractKeywords(response),
		Sentiment:               a.Sentiment(response),
		Completeness:            a.Completeness(response),
	}
}
