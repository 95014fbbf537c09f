// Package agent contains the specialist agents that conduct the mock
// interview: question generation, live feedback analysis, web research,
// end-of-session summaries and the final evaluation report. Every agent
// embeds Base for the shared enable/disable switch and rolling
// performance metrics; the concrete types add CanHandle and Process.
package agent

import (
	"hash/fnv"
	"sync"
	"time"

	"mockview/internal/domain"
)

// defaultSuccessThreshold marks a response as successful for the
// metrics counters.
const defaultSuccessThreshold = 0.5

// Base carries the identity, capability list, enable switch and rolling
// metrics shared by all agents. Metrics updates are serialized so
// supporting agents running concurrently stay consistent.
type Base struct {
	name             string
	caps             []domain.Capability
	successThreshold float64

	mu         sync.Mutex
	enabled    bool
	usageCount int
	lastUsed   time.Time
	metrics    domain.PerformanceMetrics
}

// NewBase creates an enabled base with the given name and capabilities.
func NewBase(name string, caps ...domain.Capability) *Base {
	return &Base{
		name:             name,
		caps:             caps,
		successThreshold: defaultSuccessThreshold,
		enabled:          true,
	}
}

// Name returns the agent's registry name.
func (b *Base) Name() string { return b.name }

// Capabilities returns a copy of the declared capability list.
func (b *Base) Capabilities() []domain.Capability {
	out := make([]domain.Capability, len(b.caps))
	copy(out, b.caps)
	return out
}

// HasCapability reports whether the agent declares the capability.
func (b *Base) HasCapability(c domain.Capability) bool {
	for _, have := range b.caps {
		if have == c {
			return true
		}
	}
	return false
}

// Enabled reports whether the agent participates in routing.
func (b *Base) Enabled() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.enabled
}

// SetEnabled switches the agent in or out of routing.
func (b *Base) SetEnabled(enabled bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.enabled = enabled
}

// RecordMetrics folds one invocation's outcome into the rolling
// averages. A response above the success threshold counts as successful.
func (b *Base) RecordMetrics(resp domain.AgentResponse, elapsed time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.metrics.TotalRequests++
	if resp.Confidence > b.successThreshold {
		b.metrics.SuccessfulResponses++
	}

	n := float64(b.metrics.TotalRequests)
	b.metrics.AverageConfidence = (b.metrics.AverageConfidence*(n-1) + resp.Confidence) / n
	b.metrics.AverageResponseTime = time.Duration(
		(float64(b.metrics.AverageResponseTime)*(n-1) + float64(elapsed)) / n)

	b.lastUsed = time.Now()
	b.usageCount++
}

// ResetMetrics clears the rolling counters.
func (b *Base) ResetMetrics() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.metrics = domain.PerformanceMetrics{}
	b.usageCount = 0
}

// Status returns a point-in-time snapshot.
func (b *Base) Status() domain.AgentStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	return domain.AgentStatus{
		Name:         b.name,
		Capabilities: b.Capabilities(),
		Enabled:      b.enabled,
		UsageCount:   b.usageCount,
		LastUsed:     b.lastUsed,
		Metrics:      b.metrics,
	}
}

// respond builds a standard response attributed to this agent.
func (b *Base) respond(content string, confidence float64) domain.AgentResponse {
	return domain.NewAgentResponse(b.name, content, confidence)
}

// degrade converts an internal failure into a low-confidence response
// carrying the error in metadata.
func (b *Base) degrade(content string, confidence float64, err error) domain.AgentResponse {
	return domain.DegradedResponse(b.name, content, confidence, err)
}

// interviewerNames are the neutral personas the interviewing agents
// introduce themselves with. The pick is stable per session.
var interviewerNames = []string{"Jordan", "Alex", "Casey", "Taylor"}

func interviewerName(sessionID string) string {
	h := fnv.New32a()
	h.Write([]byte(sessionID))
	return interviewerNames[int(h.Sum32())%len(interviewerNames)]
}

// stateInt reads an int out of an agent-state blob, tolerating the
// float64 that a JSON round trip produces.
func stateInt(state map[string]any, key string) int {
	switch v := state[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}

func stateString(state map[string]any, key string) string {
	s, _ := state[key].(string)
	return s
}
