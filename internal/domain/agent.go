package domain

import (
	"context"
	"time"
)

// Agent is the contract every specialist implements.
//
// CanHandle must be pure and cheap (no network calls) — the registry may
// invoke it across many agents per message. Process may call providers and
// never returns an error: internal failures are converted into a
// low-confidence AgentResponse with an "error" metadata key so one agent's
// failure cannot abort the routing pipeline.
type Agent interface {
	Name() string

	// Capabilities returns a copy of the declared capability list.
	Capabilities() []Capability

	// CanHandle estimates fitness to handle the message, in [0,1].
	CanHandle(msg AgentMessage, ictx *InterviewContext) float64

	// Process handles the message and produces a response, degrading
	// instead of failing.
	Process(ctx context.Context, msg AgentMessage, ictx *InterviewContext) AgentResponse

	Enabled() bool
	SetEnabled(enabled bool)

	// Status returns a point-in-time snapshot for health checks.
	Status() AgentStatus

	// RecordMetrics folds one invocation's outcome into the agent's
	// rolling performance metrics. Called once per Process invocation
	// by whichever component invoked it.
	RecordMetrics(resp AgentResponse, elapsed time.Duration)
}

// PerformanceMetrics are rolling per-agent counters. Averages are
// maintained incrementally, not recomputed from scratch.
type PerformanceMetrics struct {
	TotalRequests       int           `json:"total_requests"`
	SuccessfulResponses int           `json:"successful_responses"`
	AverageConfidence   float64       `json:"average_confidence"`
	AverageResponseTime time.Duration `json:"average_response_time"`
}

// AgentStatus is a snapshot of an agent's state and metrics.
type AgentStatus struct {
	Name         string             `json:"name"`
	Capabilities []Capability       `json:"capabilities"`
	Enabled      bool               `json:"enabled"`
	UsageCount   int                `json:"usage_count"`
	LastUsed     time.Time          `json:"last_used"`
	Metrics      PerformanceMetrics `json:"metrics"`
}
