package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"mockview/internal/domain"
)

// Session is one live interview with its context and spend tracker.
type Session struct {
	ID         string
	Ctx        *domain.InterviewContext
	Costs      *CostTracker
	CreatedAt  time.Time
	LastActive time.Time
}

// SessionManagerDeps holds injected dependencies for the session
// manager.
type SessionManagerDeps struct {
	Archiver    domain.TranscriptArchiver // optional, nil = no archiving
	Logger      *slog.Logger
	MaxIdle     time.Duration
	MaxSessions int // 0 = unlimited
}

// SessionManager owns the live session table: creation with ULID ids,
// lookup, completion with transcript archiving, and reaping of idle
// sessions. Safe for concurrent use.
type SessionManager struct {
	deps SessionManagerDeps

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionManager creates an empty session manager.
func NewSessionManager(deps SessionManagerDeps) *SessionManager {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.MaxIdle <= 0 {
		deps.MaxIdle = 30 * time.Minute
	}
	return &SessionManager{
		deps:     deps,
		sessions: make(map[string]*Session),
	}
}

// Create starts a new interview session.
func (m *SessionManager) Create(llm domain.LLMSettings, interview domain.InterviewSettings, candidate domain.CandidateInfo) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.deps.MaxSessions > 0 && len(m.sessions) >= m.deps.MaxSessions {
		return nil, domain.NewDomainError("SessionManager.Create", domain.ErrRateLimit,
			"session limit reached")
	}

	id := ulid.Make().String()
	now := time.Now()
	session := &Session{
		ID:         id,
		Ctx:        domain.NewInterviewContext(id, llm, interview, candidate),
		Costs:      NewCostTracker(id),
		CreatedAt:  now,
		LastActive: now,
	}
	m.sessions[id] = session

	m.deps.Logger.Info("session created", "session_id", id,
		"interview_type", interview.InterviewType, "provider", llm.Provider)
	return session, nil
}

// Get returns the live session, or ErrSessionNotFound.
func (m *SessionManager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, ok := m.sessions[id]
	if !ok {
		return nil, domain.NewDomainError("SessionManager.Get", domain.ErrSessionNotFound, id)
	}
	return session, nil
}

// Touch marks the session active, resetting its idle clock.
func (m *SessionManager) Touch(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if session, ok := m.sessions[id]; ok {
		session.LastActive = time.Now()
	}
}

// Count returns the number of live sessions.
func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Complete ends a session: it moves the interview through wrap-up to
// completed, archives the transcript, and drops the session from the
// live table.
func (m *SessionManager) Complete(ctx context.Context, id, summary string) error {
	m.mu.Lock()
	session, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	if !ok {
		return domain.NewDomainError("SessionManager.Complete", domain.ErrSessionNotFound, id)
	}

	// Early termination still passes through wrap-up.
	if session.Ctx.Phase() != domain.PhaseWrapUp && session.Ctx.Phase() != domain.PhaseCompleted {
		if err := session.Ctx.AdvancePhase(domain.PhaseWrapUp); err != nil {
			return err
		}
	}
	if session.Ctx.Phase() != domain.PhaseCompleted {
		if err := session.Ctx.AdvancePhase(domain.PhaseCompleted); err != nil {
			return err
		}
	}

	if err := m.archive(ctx, session, summary); err != nil {
		return err
	}

	m.deps.Logger.Info("session completed", "session_id", id,
		"turns", session.Ctx.HistoryLen(), "cost_usd", session.Costs.TotalCost())
	return nil
}

func (m *SessionManager) archive(ctx context.Context, session *Session, summary string) error {
	if m.deps.Archiver == nil {
		return nil
	}
	record := domain.TranscriptRecord{
		SessionID:   session.ID,
		StartedAt:   session.Ctx.StartTime(),
		CompletedAt: time.Now(),
		Phase:       session.Ctx.Phase(),
		Turns:       session.Ctx.RecentTurns(session.Ctx.HistoryLen()),
		Summary:     summary,
		TotalCost:   session.Costs.TotalCost(),
	}
	if err := m.deps.Archiver.Archive(ctx, record); err != nil {
		return domain.WrapOp("SessionManager.archive", err)
	}
	return nil
}

// ReapStale completes sessions idle past the configured maximum and
// returns how many were reaped. Designed to run on a cron schedule.
func (m *SessionManager) ReapStale(ctx context.Context) int {
	cutoff := time.Now().Add(-m.deps.MaxIdle)

	m.mu.RLock()
	var stale []string
	for id, session := range m.sessions {
		if session.LastActive.Before(cutoff) {
			stale = append(stale, id)
		}
	}
	m.mu.RUnlock()

	reaped := 0
	for _, id := range stale {
		if err := m.Complete(ctx, id, "session expired due to inactivity"); err != nil {
			m.deps.Logger.Warn("failed to reap session", "session_id", id, "error", err)
			continue
		}
		m.deps.Logger.Info("reaped idle session", "session_id", id)
		reaped++
	}
	return reaped
}
