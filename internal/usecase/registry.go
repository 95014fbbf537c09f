package usecase

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"mockview/internal/domain"
)

// AgentRegistration holds a registered agent and its routing metadata.
type AgentRegistration struct {
	Agent        domain.Agent
	RegisteredAt time.Time
	Priority     int // higher priority agents are preferred
	Tags         map[string]struct{}
}

// ScoredAgent pairs an agent name with its adjusted handling score.
type ScoredAgent struct {
	Name  string
	Score float64
}

// RegistryStatus summarizes the registry for diagnostics.
type RegistryStatus struct {
	TotalAgents       int                           `json:"total_agents"`
	EnabledAgents     int                           `json:"enabled_agents"`
	TotalCapabilities int                           `json:"total_capabilities"`
	Agents            map[string]domain.AgentStatus `json:"agents"`
	Capabilities      map[string][]string           `json:"capabilities"`
}

// HealthReport lists agents by health check outcome.
type HealthReport struct {
	Healthy      []string `json:"healthy_agents"`
	Unhealthy    []string `json:"unhealthy_agents"`
	TotalChecked int      `json:"total_checked"`
}

// Registry indexes agents by name, capability, and tag, and scores them
// against incoming messages. Safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	agents     map[string]*AgentRegistration
	capability map[domain.Capability]map[string]struct{}
	tags       map[string]map[string]struct{}
	logger     *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		agents:     make(map[string]*AgentRegistration),
		capability: make(map[domain.Capability]map[string]struct{}),
		tags:       make(map[string]map[string]struct{}),
		logger:     logger,
	}
}

// Register adds an agent. Registering a name twice replaces the earlier
// registration; the old capability and tag index entries are dropped so
// no stale references remain.
func (r *Registry) Register(agent domain.Agent, priority int, tags ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := agent.Name()
	if _, exists := r.agents[name]; exists {
		r.removeLocked(name)
	}

	tagSet := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		tagSet[t] = struct{}{}
	}

	r.agents[name] = &AgentRegistration{
		Agent:        agent,
		RegisteredAt: time.Now(),
		Priority:     priority,
		Tags:         tagSet,
	}

	for _, cap := range agent.Capabilities() {
		if r.capability[cap] == nil {
			r.capability[cap] = make(map[string]struct{})
		}
		r.capability[cap][name] = struct{}{}
	}
	for t := range tagSet {
		if r.tags[t] == nil {
			r.tags[t] = make(map[string]struct{})
		}
		r.tags[t][name] = struct{}{}
	}

	r.logger.Info("registered agent", "agent", name, "priority", priority,
		"capabilities", len(agent.Capabilities()))
}

// Unregister removes an agent and its index entries. Unknown names are
// a no-op.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.agents[name]; !exists {
		return
	}
	r.removeLocked(name)
	r.logger.Info("unregistered agent", "agent", name)
}

// removeLocked deletes the agent from all indexes, pruning empty
// buckets. Caller holds the write lock.
func (r *Registry) removeLocked(name string) {
	reg := r.agents[name]

	for _, cap := range reg.Agent.Capabilities() {
		if bucket, ok := r.capability[cap]; ok {
			delete(bucket, name)
			if len(bucket) == 0 {
				delete(r.capability, cap)
			}
		}
	}
	for t := range reg.Tags {
		if bucket, ok := r.tags[t]; ok {
			delete(bucket, name)
			if len(bucket) == 0 {
				delete(r.tags, t)
			}
		}
	}
	delete(r.agents, name)
}

// Get returns the named agent, or ErrAgentNotFound.
func (r *Registry) Get(name string) (domain.Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reg, ok := r.agents[name]
	if !ok {
		return nil, domain.NewDomainError("Registry.Get", domain.ErrAgentNotFound, name)
	}
	return reg.Agent, nil
}

// All returns every enabled agent, sorted by name for determinism.
func (r *Registry) All() []domain.Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.agents))
	for name, reg := range r.agents {
		if reg.Agent.Enabled() {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	out := make([]domain.Agent, 0, len(names))
	for _, name := range names {
		out = append(out, r.agents[name].Agent)
	}
	return out
}

// ByCapability returns enabled agent names with the capability, sorted
// by priority descending, then name.
func (r *Registry) ByCapability(cap domain.Capability) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	type entry struct {
		name     string
		priority int
	}
	var entries []entry
	for name := range r.capability[cap] {
		reg, ok := r.agents[name]
		if ok && reg.Agent.Enabled() {
			entries = append(entries, entry{name, reg.Priority})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].priority != entries[j].priority {
			return entries[i].priority > entries[j].priority
		}
		return entries[i].name < entries[j].name
	})

	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.name
	}
	return out
}

// ByTag returns enabled agent names carrying the tag, sorted by name.
func (r *Registry) ByTag(tag string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []string
	for name := range r.tags[tag] {
		reg, ok := r.agents[name]
		if ok && reg.Agent.Enabled() {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// FindBest scores every enabled agent against the message and returns
// up to maxAgents results sorted by adjusted score descending. The raw
// CanHandle score is boosted by priority*0.1 and capped at 1.0; agents
// scoring zero are excluded. A panicking agent is skipped, never fatal.
func (r *Registry) FindBest(msg domain.AgentMessage, ictx *domain.InterviewContext, maxAgents int) []ScoredAgent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var scored []ScoredAgent
	for name, reg := range r.agents {
		if !reg.Agent.Enabled() {
			continue
		}
		score, ok := r.safeCanHandle(reg.Agent, msg, ictx)
		if !ok || score <= 0 {
			continue
		}
		adjusted := domain.ClampConfidence(score + float64(reg.Priority)*0.1)
		scored = append(scored, ScoredAgent{Name: name, Score: adjusted})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Name < scored[j].Name
	})

	if maxAgents > 0 && len(scored) > maxAgents {
		scored = scored[:maxAgents]
	}
	return scored
}

// safeCanHandle shields scoring from a panicking agent.
func (r *Registry) safeCanHandle(agent domain.Agent, msg domain.AgentMessage, ictx *domain.InterviewContext) (score float64, ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Warn("agent panicked during scoring", "agent", agent.Name(), "panic", rec)
			score, ok = 0, false
		}
	}()
	return agent.CanHandle(msg, ictx), true
}

// CapabilitiesSummary maps each capability to the enabled agents that
// provide it. Capabilities with no enabled agent are omitted.
func (r *Registry) CapabilitiesSummary() map[string][]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.capabilitiesSummaryLocked()
}

func (r *Registry) capabilitiesSummaryLocked() map[string][]string {
	summary := make(map[string][]string)
	for cap, names := range r.capability {
		var enabled []string
		for name := range names {
			reg, ok := r.agents[name]
			if ok && reg.Agent.Enabled() {
				enabled = append(enabled, name)
			}
		}
		if len(enabled) > 0 {
			sort.Strings(enabled)
			summary[string(cap)] = enabled
		}
	}
	return summary
}

// Status reports overall registry state including per-agent status.
func (r *Registry) Status() RegistryStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	status := RegistryStatus{
		TotalAgents:       len(r.agents),
		TotalCapabilities: len(r.capability),
		Agents:            make(map[string]domain.AgentStatus, len(r.agents)),
		Capabilities:      r.capabilitiesSummaryLocked(),
	}
	for name, reg := range r.agents {
		if reg.Agent.Enabled() {
			status.EnabledAgents++
		}
		status.Agents[name] = reg.Agent.Status()
	}
	return status
}

// HealthCheck probes every registered agent. An agent is healthy when
// it is enabled and reports status without panicking.
func (r *Registry) HealthCheck() HealthReport {
	r.mu.RLock()
	defer r.mu.RUnlock()

	report := HealthReport{}
	names := make([]string, 0, len(r.agents))
	for name := range r.agents {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		report.TotalChecked++
		reg := r.agents[name]
		if r.safeHealthy(reg.Agent) {
			report.Healthy = append(report.Healthy, name)
		} else {
			report.Unhealthy = append(report.Unhealthy, name)
		}
	}
	return report
}

func (r *Registry) safeHealthy(agent domain.Agent) (healthy bool) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Warn("agent health check panicked", "agent", agent.Name(), "panic", rec)
			healthy = false
		}
	}()
	status := agent.Status()
	return agent.Enabled() && status.Name != ""
}
