package domain

import "time"

// MessageType categorizes messages flowing through the orchestrator.
type MessageType string

const (
	MsgUserResponse        MessageType = "user_response"
	MsgInterviewerQuestion MessageType = "interviewer_question"
	MsgCodeSubmission      MessageType = "code_submission"
	MsgFeedbackRequest     MessageType = "feedback_request"
	MsgSearchRequest       MessageType = "search_request"
	MsgSummaryRequest      MessageType = "summary_request"
	MsgSystemEvent         MessageType = "system_event"
)

// Sender constants for AgentMessage.Sender. Agent-authored messages
// use the agent's name instead.
const (
	SenderUser   = "user"
	SenderSystem = "system"
)

// AgentMessage is an inbound message for agents to process.
// Immutable once constructed.
type AgentMessage struct {
	Content   string         `json:"content"`
	Type      MessageType    `json:"type"`
	Sender    string         `json:"sender"`
	SessionID string         `json:"session_id"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// NewUserMessage builds a USER_RESPONSE message from raw user input.
func NewUserMessage(content, sessionID string, ts time.Time) AgentMessage {
	return AgentMessage{
		Content:   content,
		Type:      MsgUserResponse,
		Sender:    SenderUser,
		SessionID: sessionID,
		Timestamp: ts,
		Metadata:  map[string]any{},
	}
}

// NewSystemEvent builds a SYSTEM_EVENT message, e.g. "start_interview".
func NewSystemEvent(content, sessionID string, ts time.Time) AgentMessage {
	return AgentMessage{
		Content:   content,
		Type:      MsgSystemEvent,
		Sender:    SenderSystem,
		SessionID: sessionID,
		Timestamp: ts,
		Metadata:  map[string]any{},
	}
}

// AgentResponse is the result of a single agent's Process call.
// Confidence must lie in [0,1]; constructors clamp out-of-range values.
type AgentResponse struct {
	Content             string         `json:"content"`
	Confidence          float64        `json:"confidence"`
	AgentName           string         `json:"agent_name"`
	RequiresFollowup    bool           `json:"requires_followup,omitempty"`
	Metadata            map[string]any `json:"metadata,omitempty"`
	NextSuggestedAgents []string       `json:"next_suggested_agents,omitempty"`
}

// NewAgentResponse builds a response with the confidence clamped to [0,1]
// and a non-nil metadata map.
func NewAgentResponse(agentName, content string, confidence float64) AgentResponse {
	return AgentResponse{
		Content:    content,
		Confidence: ClampConfidence(confidence),
		AgentName:  agentName,
		Metadata:   map[string]any{},
	}
}

// DegradedResponse converts an agent-internal failure into a low-confidence
// response carrying the error in metadata. Agent failures never surface as
// Go errors past the agent boundary.
func DegradedResponse(agentName, content string, confidence float64, err error) AgentResponse {
	resp := NewAgentResponse(agentName, content, confidence)
	if err != nil {
		resp.Metadata["error"] = err.Error()
	}
	return resp
}

// ClampConfidence forces v into [0,1].
func ClampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// RoutingDecision names the primary agent and zero or more supporting
// agents for one message. Supporting agents never include the primary
// and contain no duplicates.
type RoutingDecision struct {
	PrimaryAgent     string   `json:"primary_agent"`
	SupportingAgents []string `json:"supporting_agents"`
}

// HasSupporting reports whether name appears in the supporting list.
func (d RoutingDecision) HasSupporting(name string) bool {
	for _, a := range d.SupportingAgents {
		if a == name {
			return true
		}
	}
	return false
}

// CombinedResponse is the orchestrator's merged output for one turn.
// Metadata always carries the routing decision that produced it.
type CombinedResponse struct {
	Content            string             `json:"content"`
	PrimaryAgent       string             `json:"primary_agent"`
	ContributingAgents []string           `json:"contributing_agents"`
	TotalConfidence    float64            `json:"total_confidence"`
	Metadata           map[string]any     `json:"metadata,omitempty"`
	CostBreakdown      map[string]float64 `json:"cost_breakdown,omitempty"`
	FeedbackData       map[string]any     `json:"feedback_data,omitempty"`
}
