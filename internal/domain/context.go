package domain

import (
	"sync"
	"time"
)

// InterviewPhase is the coarse progression state of an interview session.
type InterviewPhase string

const (
	PhaseStarting           InterviewPhase = "starting"
	PhaseIntroduction       InterviewPhase = "introduction"
	PhaseTechnicalQuestions InterviewPhase = "technical_questions"
	PhaseBehavioralQuestion InterviewPhase = "behavioral_questions"
	PhaseCaseStudy          InterviewPhase = "case_study"
	PhaseCandidateQuestions InterviewPhase = "candidate_questions"
	PhaseWrapUp             InterviewPhase = "wrap_up"
	PhaseCompleted          InterviewPhase = "completed"
)

// CandidateInfo holds the candidate documents and instructions for a session.
// Set once at session creation and read-only thereafter.
type CandidateInfo struct {
	ResumeText         string `json:"resume_text,omitempty"`
	JobDescription     string `json:"job_description,omitempty"`
	CustomInstructions string `json:"custom_instructions,omitempty"`
	CompanyName        string `json:"company_name,omitempty"`
	RoleTitle          string `json:"role_title,omitempty"`
}

// ConversationTurn is one entry in the append-only conversation history.
type ConversationTurn struct {
	Timestamp time.Time      `json:"timestamp"`
	Speaker   string         `json:"speaker"` // "user", "interviewer", or agent name
	Content   string         `json:"content"`
	Type      string         `json:"type"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// searchContextCap bounds the search-result cache; older entries are
// dropped so the cache never feeds more than the most recent results
// into prompts.
const searchContextCap = 3

// InterviewContext is the shared mutable state of one interview session.
// All mutation goes through the accessor methods below; direct field access
// from outside this package is not possible, which keeps the append-only
// history and per-agent state ownership invariants enforceable.
//
// Supporting agents run concurrently within a turn and share the same
// context, so every accessor over mutable state takes the lock. The
// per-session config fields are immutable after construction and read
// without it.
type InterviewContext struct {
	sessionID       string
	llmConfig       LLMSettings
	interviewConfig InterviewSettings
	candidate       CandidateInfo

	mu            sync.RWMutex
	phase         InterviewPhase
	history       []ConversationTurn
	agentStates   map[string]map[string]any
	sessionMeta   map[string]any
	searchContext []string
	startTime     time.Time
}

// LLMSettings is the per-session immutable LLM configuration value object.
type LLMSettings struct {
	Provider    string  `yaml:"provider" json:"provider"`
	Model       string  `yaml:"model" json:"model"`
	Temperature float64 `yaml:"temperature" json:"temperature"`
	MaxTokens   int     `yaml:"max_tokens" json:"max_tokens"`
}

// InterviewSettings is the per-session immutable interview configuration.
type InterviewSettings struct {
	InterviewType  string `yaml:"interview_type" json:"interview_type"` // technical, behavioral, case_study
	Tone           string `yaml:"tone" json:"tone"`
	Difficulty     string `yaml:"difficulty" json:"difficulty"`
	TechnicalTrack string `yaml:"technical_track" json:"technical_track,omitempty"`
}

// NewInterviewContext creates a session context in the STARTING phase.
func NewInterviewContext(sessionID string, llm LLMSettings, interview InterviewSettings, candidate CandidateInfo) *InterviewContext {
	return &InterviewContext{
		sessionID:       sessionID,
		llmConfig:       llm,
		interviewConfig: interview,
		candidate:       candidate,
		phase:           PhaseStarting,
		agentStates:     make(map[string]map[string]any),
		sessionMeta:     make(map[string]any),
		startTime:       time.Now(),
	}
}

// SessionID returns the immutable session identifier.
func (c *InterviewContext) SessionID() string { return c.sessionID }

// LLMConfig returns the session's LLM settings.
func (c *InterviewContext) LLMConfig() LLMSettings { return c.llmConfig }

// InterviewConfig returns the session's interview settings.
func (c *InterviewContext) InterviewConfig() InterviewSettings { return c.interviewConfig }

// Candidate returns the candidate info set at session creation.
func (c *InterviewContext) Candidate() CandidateInfo { return c.candidate }

// Phase returns the current interview phase.
func (c *InterviewContext) Phase() InterviewPhase {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.phase
}

// AdvancePhase moves the session to the given phase. Jumping straight from
// STARTING to COMPLETED is rejected; every other transition is allowed so
// early termination can still pass through WRAP_UP.
func (c *InterviewContext) AdvancePhase(next InterviewPhase) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase == PhaseStarting && next == PhaseCompleted {
		return NewDomainError("InterviewContext.AdvancePhase", ErrPhaseTransition,
			"cannot jump from starting to completed")
	}
	c.phase = next
	return nil
}

// AddTurn appends a conversation turn. Turns are never removed or mutated
// after insertion.
func (c *InterviewContext) AddTurn(turn ConversationTurn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = append(c.history, turn)
}

// RecentTurns returns the last n turns in chronological order. The returned
// slice is a copy.
func (c *InterviewContext) RecentTurns(n int) []ConversationTurn {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if n <= 0 || len(c.history) == 0 {
		return nil
	}
	if n > len(c.history) {
		n = len(c.history)
	}
	out := make([]ConversationTurn, n)
	copy(out, c.history[len(c.history)-n:])
	return out
}

// HistoryLen returns the number of recorded turns.
func (c *InterviewContext) HistoryLen() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.history)
}

// UserTurnCount returns how many turns were spoken by the user.
func (c *InterviewContext) UserTurnCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, t := range c.history {
		if t.Speaker == SenderUser {
			n++
		}
	}
	return n
}

// AddSearchContext stores a search result for later turns. Only the most
// recent entries are retained.
func (c *InterviewContext) AddSearchContext(content string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.searchContext = append(c.searchContext, content)
	if len(c.searchContext) > searchContextCap {
		c.searchContext = c.searchContext[len(c.searchContext)-searchContextCap:]
	}
}

// SearchContext returns up to the last three stored search results in
// chronological order. The returned slice is a copy.
func (c *InterviewContext) SearchContext() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.searchContext))
	copy(out, c.searchContext)
	return out
}

// AgentState returns a copy of the named agent's state blob. Reading
// another agent's state is allowed for cross-agent context.
func (c *InterviewContext) AgentState(agentName string) map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	state, ok := c.agentStates[agentName]
	if !ok {
		return map[string]any{}
	}
	out := make(map[string]any, len(state))
	for k, v := range state {
		out[k] = v
	}
	return out
}

// SetAgentState replaces the named agent's state blob. Agents own only
// their own key; writing another agent's key is a caller bug.
func (c *InterviewContext) SetAgentState(agentName string, state map[string]any) {
	copied := make(map[string]any, len(state))
	for k, v := range state {
		copied[k] = v
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.agentStates[agentName] = copied
}

// UpdateAgentState shallow-merges updates into the named agent's state,
// creating an empty blob first if absent.
func (c *InterviewContext) UpdateAgentState(agentName string, updates map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	state, ok := c.agentStates[agentName]
	if !ok {
		state = make(map[string]any, len(updates))
		c.agentStates[agentName] = state
	}
	for k, v := range updates {
		state[k] = v
	}
}

// SessionMeta returns the value stored under key, if any. Session metadata
// is a last-writer-wins bag of cross-cutting hints.
func (c *InterviewContext) SessionMeta(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.sessionMeta[key]
	return v, ok
}

// SetSessionMeta stores a session metadata value.
func (c *InterviewContext) SetSessionMeta(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessionMeta[key] = value
}

// StartTime returns when the session context was created.
func (c *InterviewContext) StartTime() time.Time { return c.startTime }

// Duration returns the elapsed session time.
func (c *InterviewContext) Duration() time.Duration {
	return time.Since(c.startTime)
}
