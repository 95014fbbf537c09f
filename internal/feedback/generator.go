package feedback

import (
	"fmt"
	"strings"
)

var strengthTemplates = map[string][]string{
	TypeTechnical: {
		"Strong technical knowledge demonstrated",
		"Excellent technical depth and precision",
	},
	TypeBehavioral: {
		"Great use of specific examples",
		"Strong behavioral response with clear structure",
	},
	TypeLeadership: {
		"Strong leadership qualities demonstrated",
		"Excellent strategic thinking shown",
	},
	TypeProject: {
		"Comprehensive project understanding",
		"Strong project management skills",
	},
	TypeGeneral: {
		"Clear and well-structured response",
		"Good communication skills demonstrated",
	},
}

var improvementTemplates = map[string][]string{
	TypeTechnical: {
		"Consider adding more technical details",
		"Could benefit from more specific technical examples",
	},
	TypeBehavioral: {
		"Consider using more specific examples",
		"Could benefit from more detailed STAR structure",
	},
	TypeLeadership: {
		"Consider demonstrating more leadership impact",
		"Could benefit from more strategic thinking examples",
	},
	TypeProject: {
		"Consider adding more project management details",
		"Could benefit from more specific project metrics",
	},
	TypeGeneral: {
		"Consider adding more specific details",
		"Could benefit from more concrete examples",
	},
}

// Generator renders assessment metrics into coaching text for the
// candidate.
type Generator struct{}

// NewGenerator returns a ready-to-use Generator.
func NewGenerator() *Generator { return &Generator{} }

// Strengths returns up to three strengths for the answer.
func (g *Generator) Strengths(m AssessmentMetrics, responseType string) []string {
	var out []string
	out = append(out, strengthTemplates[responseType]...)

	switch {
	case m.TechnicalDepth > 0.7:
		out = append(out, "Strong technical depth demonstrated")
	case m.TechnicalDepth > 0.5:
		out = append(out, "Good technical understanding")
	}
	switch {
	case m.CommunicationClarity > 0.8:
		out = append(out, "Excellent communication clarity")
	case m.CommunicationClarity > 0.6:
		out = append(out, "Clear and well-structured communication")
	}
	switch {
	case m.Specificity > 0.7:
		out = append(out, "Specific examples and details provided")
	case m.Specificity > 0.5:
		out = append(out, "Good level of detail")
	}
	switch {
	case m.Structure > 0.7:
		out = append(out, "Well-organized response structure")
	case m.Structure > 0.5:
		out = append(out, "Good logical flow")
	}

	switch responseType {
	case TypeTechnical:
		if m.TechnicalAccuracy > 0.8 {
			out = append(out, "High technical accuracy")
		}
		if m.ProblemSolving > 0.7 {
			out = append(out, "Strong problem-solving approach")
		}
	case TypeBehavioral:
		if m.STARMethodUsage > 0.7 {
			out = append(out, "Excellent STAR method usage")
		}
		if m.ImpactQuantification > 0.6 {
			out = append(out, "Good quantification of impact")
		}
	case TypeLeadership:
		if m.LeadershipDemonstration > 0.7 {
			out = append(out, "Strong leadership demonstration")
		}
		if m.ImpactQuantification > 0.6 {
			out = append(out, "Good leadership impact shown")
		}
	}

	return truncate(out, 3)
}

// Improvements returns up to three improvement areas for the answer.
func (g *Generator) Improvements(m AssessmentMetrics, responseType string) []string {
	var out []string
	out = append(out, improvementTemplates[responseType]...)

	switch {
	case m.TechnicalDepth < 0.5:
		out = append(out, "Add more technical depth and detail")
	case m.TechnicalDepth < 0.7:
		out = append(out, "Consider deepening technical explanation")
	}
	switch {
	case m.CommunicationClarity < 0.6:
		out = append(out, "Improve clarity and structure")
	case m.CommunicationClarity < 0.8:
		out = append(out, "Enhance communication flow")
	}
	switch {
	case m.Specificity < 0.5:
		out = append(out, "Provide more specific examples")
	case m.Specificity < 0.7:
		out = append(out, "Add more concrete details")
	}
	switch {
	case m.Structure < 0.6:
		out = append(out, "Improve response organization")
	case m.Structure < 0.8:
		out = append(out, "Enhance logical flow")
	}

	switch responseType {
	case TypeTechnical:
		if m.TechnicalAccuracy < 0.6 {
			out = append(out, "Verify technical accuracy")
		}
		if m.ProblemSolving < 0.5 {
			out = append(out, "Show more systematic problem-solving approach")
		}
	case TypeBehavioral:
		if m.STARMethodUsage < 0.5 {
			out = append(out, "Use STAR method more effectively")
		}
		if m.ImpactQuantification < 0.5 {
			out = append(out, "Quantify impact and results more")
		}
	case TypeLeadership:
		if m.LeadershipDemonstration < 0.5 {
			out = append(out, "Demonstrate more leadership impact")
		}
		if m.ImpactQuantification < 0.5 {
			out = append(out, "Show more leadership outcomes")
		}
	}

	return truncate(out, 3)
}

// Suggestions returns up to two actionable next steps.
func (g *Generator) Suggestions(m AssessmentMetrics, responseType string) []string {
	var out []string

	if m.WordCount < 50 {
		out = append(out, "Expand your response with more detail")
	}
	if len(m.Keywords) < 3 {
		out = append(out, "Use more relevant technical terminology")
	}

	switch responseType {
	case TypeTechnical:
		if m.TechnicalAccuracy < 0.7 {
			out = append(out, "Double-check technical concepts for accuracy")
		}
		if m.ProblemSolving < 0.6 {
			out = append(out, "Show your step-by-step problem-solving process")
		}
	case TypeBehavioral:
		if m.STARMethodUsage < 0.6 {
			out = append(out, "Structure your response using STAR method")
		}
		if m.ImpactQuantification < 0.5 {
			out = append(out, "Include specific metrics and outcomes")
		}
	case TypeLeadership:
		if m.LeadershipDemonstration < 0.6 {
			out = append(out, "Focus on your leadership actions and decisions")
		}
		if m.ImpactQuantification < 0.5 {
			out = append(out, "Quantify your leadership impact")
		}
	}

	return truncate(out, 2)
}

// TechnicalInsights returns up to two insights for technical answers
// only.
func (g *Generator) TechnicalInsights(m AssessmentMetrics, responseType string) []string {
	if responseType != TypeTechnical {
		return nil
	}
	var out []string
	if m.TechnicalDepth > 0.7 {
		out = append(out, "Strong technical foundation demonstrated")
	}
	if m.TechnicalAccuracy > 0.8 {
		out = append(out, "High technical precision shown")
	}
	if m.ProblemSolving > 0.7 {
		out = append(out, "Excellent systematic approach to technical problems")
	}
	if m.Structure > 0.7 {
		out = append(out, "Well-organized technical explanation")
	}
	return truncate(out, 2)
}

// CommunicationTips returns up to two delivery tips for any answer.
func (g *Generator) CommunicationTips(m AssessmentMetrics) []string {
	var out []string
	if m.CommunicationClarity < 0.7 {
		out = append(out, "Use clearer, more concise language")
	}
	if m.Structure < 0.6 {
		out = append(out, "Organize your thoughts before speaking")
	}
	if m.CommunicationStyle < 0.7 {
		out = append(out, "Maintain professional tone throughout")
	}
	if m.Specificity < 0.6 {
		out = append(out, "Include more specific examples and details")
	}
	return truncate(out, 2)
}

// Display renders a one-line feedback summary for transcript display.
func (g *Generator) Display(m AssessmentMetrics, responseType string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Score: %.1f/1.0", m.TechnicalDepth)

	switch responseType {
	case TypeTechnical:
		fmt.Fprintf(&b, " | Tech: %.1f | Problem: %.1f", m.TechnicalAccuracy, m.ProblemSolving)
	case TypeBehavioral:
		fmt.Fprintf(&b, " | STAR: %.1f | Impact: %.1f", m.STARMethodUsage, m.ImpactQuantification)
	case TypeLeadership:
		fmt.Fprintf(&b, " | Leadership: %.1f | Impact: %.1f", m.LeadershipDemonstration, m.ImpactQuantification)
	}
	if responseType != TypeGeneral {
		fmt.Fprintf(&b, " | Type: %s", titleCase(responseType))
	}

	strengths := g.Strengths(m, responseType)
	strengthsText := "Good response structure"
	if len(strengths) > 0 {
		strengthsText = strings.Join(truncate(strengths, 2), ", ")
	}
	improvements := g.Improvements(m, responseType)
	improvementsText := "Continue building on this"
	if len(improvements) > 0 {
		improvementsText = strings.Join(truncate(improvements, 2), ", ")
	}
	fmt.Fprintf(&b, " | Strengths: %s | Focus: %s", strengthsText, improvementsText)

	if suggestions := g.Suggestions(m, responseType); len(suggestions) > 0 {
		fmt.Fprintf(&b, " | Next: %s", suggestions[0])
	}
	if insights := g.TechnicalInsights(m, responseType); len(insights) > 0 {
		fmt.Fprintf(&b, " | Insight: %s", insights[0])
	}
	if tips := g.CommunicationTips(m); len(tips) > 0 {
		fmt.Fprintf(&b, " | Tip: %s", tips[0])
	}

	return b.String()
}

// SessionSummary aggregates metrics across all evaluated answers of a
// session.
type SessionSummary struct {
	OverallScore             float64            `json:"overall_score"`
	TotalResponses           int                `json:"total_responses"`
	ResponseTypeDistribution map[string]int     `json:"response_type_distribution"`
	AverageMetrics           map[string]float64 `json:"average_metrics"`
	Strengths                []string           `json:"strengths"`
	Improvements             []string           `json:"improvements"`
}

// Summarize builds a session-level summary from per-answer metrics and
// their classified types. Returns nil when there is nothing to
// summarize.
func (g *Generator) Summarize(all []AssessmentMetrics, types []string) *SessionSummary {
	if len(all) == 0 {
		return nil
	}

	n := float64(len(all))
	var depth, clarity, specificity, structure float64
	for _, m := range all {
		depth += m.TechnicalDepth
		clarity += m.CommunicationClarity
		specificity += m.Specificity
		structure += m.Structure
	}
	depth /= n
	clarity /= n
	specificity /= n
	structure /= n

	dist := make(map[string]int, len(types))
	for _, t := range types {
		dist[t]++
	}

	summary := &SessionSummary{
		OverallScore:             round2((depth + clarity + specificity + structure) / 4),
		TotalResponses:           len(all),
		ResponseTypeDistribution: dist,
		AverageMetrics: map[string]float64{
			"technical_depth":       round2(depth),
			"communication_clarity": round2(clarity),
			"specificity":           round2(specificity),
			"structure":             round2(structure),
		},
	}

	switch {
	case depth > 0.7:
		summary.Strengths = append(summary.Strengths, "Strong technical skills demonstrated")
	case depth < 0.5:
		summary.Improvements = append(summary.Improvements, "Work on technical depth and detail")
	}
	switch {
	case clarity > 0.7:
		summary.Strengths = append(summary.Strengths, "Excellent communication skills")
	case clarity < 0.6:
		summary.Improvements = append(summary.Improvements, "Improve communication clarity")
	}
	switch {
	case specificity > 0.6:
		summary.Strengths = append(summary.Strengths, "Good use of specific examples")
	case specificity < 0.5:
		summary.Improvements = append(summary.Improvements, "Include more specific details")
	}
	switch {
	case structure > 0.6:
		summary.Strengths = append(summary.Strengths, "Well-structured responses")
	case structure < 0.5:
		summary.Improvements = append(summary.Improvements, "Improve response organization")
	}

	return summary
}

func truncate(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
