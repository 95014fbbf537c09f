package domain

// Capability describes something an agent can do. The registry indexes
// agents by capability so callers can discover them without knowing names.
type Capability string

const (
	CapInterviewQuestions    Capability = "interview_questions"
	CapConversationFlow      Capability = "conversation_flow"
	CapTechnicalAssessment   Capability = "technical_assessment"
	CapBehavioralAssessment  Capability = "behavioral_assessment"
	CapCaseStudyFacilitation Capability = "case_study_facilitation"
	CapFeedbackAnalysis      Capability = "feedback_analysis"
	CapPerformanceScoring    Capability = "performance_scoring"
	CapSummaryGeneration     Capability = "summary_generation"
	CapWebSearch             Capability = "web_search"
	CapResearch              Capability = "research"
	CapInformationGathering  Capability = "information_gathering"
)

func (c Capability) String() string { return string(c) }
