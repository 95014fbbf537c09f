package usecase

import (
	"errors"
	"testing"
	"time"

	"mockview/internal/domain"
)

func TestRegistryGetUnknownAgent(t *testing.T) {
	r := NewRegistry(testLogger())

	_, err := r.Get("nope")
	if !errors.Is(err, domain.ErrAgentNotFound) {
		t.Errorf("err = %v, want ErrAgentNotFound", err)
	}
}

func TestRegistryReRegisterDropsStaleIndexEntries(t *testing.T) {
	r := NewRegistry(testLogger())

	r.Register(newFakeAgent("interview", 0.9, domain.CapInterviewQuestions), 0)
	r.Register(newFakeAgent("interview", 0.9, domain.CapConversationFlow), 0)

	if got := r.ByCapability(domain.CapInterviewQuestions); len(got) != 0 {
		t.Errorf("stale capability entry survived re-registration: %v", got)
	}
	if got := r.ByCapability(domain.CapConversationFlow); len(got) != 1 {
		t.Errorf("new capability missing: %v", got)
	}
}

func TestRegistryByCapabilityPriorityOrder(t *testing.T) {
	r := NewRegistry(testLogger())

	r.Register(newFakeAgent("feedback", 0.5, domain.CapFeedbackAnalysis), 1)
	r.Register(newFakeAgent("evaluation", 0.5, domain.CapFeedbackAnalysis), 5)

	got := r.ByCapability(domain.CapFeedbackAnalysis)
	if len(got) != 2 || got[0] != "evaluation" || got[1] != "feedback" {
		t.Errorf("order = %v, want [evaluation feedback]", got)
	}
}

func TestRegistryByCapabilityExcludesDisabled(t *testing.T) {
	r := NewRegistry(testLogger())

	a := newFakeAgent("feedback", 0.5, domain.CapFeedbackAnalysis)
	r.Register(a, 0)
	a.SetEnabled(false)

	if got := r.ByCapability(domain.CapFeedbackAnalysis); len(got) != 0 {
		t.Errorf("disabled agent listed: %v", got)
	}
}

func TestRegistryFindBestPriorityBoost(t *testing.T) {
	r := NewRegistry(testLogger())

	r.Register(newFakeAgent("interview", 0.6), 0)
	r.Register(newFakeAgent("search", 0.5), 3)

	msg := domain.NewUserMessage("hello", "s", time.Now())
	best := r.FindBest(msg, nil, 3)
	if len(best) != 2 {
		t.Fatalf("len = %d, want 2", len(best))
	}
	// search: 0.5 + 3*0.1 = 0.8 beats interview's 0.6
	if best[0].Name != "search" || best[0].Score != 0.8 {
		t.Errorf("best[0] = %+v", best[0])
	}
}

func TestRegistryFindBestCapsAndFilters(t *testing.T) {
	r := NewRegistry(testLogger())

	r.Register(newFakeAgent("a", 0.9), 5) // 0.9 + 0.5 caps at 1.0
	r.Register(newFakeAgent("b", 0.0), 0) // zero score excluded
	disabled := newFakeAgent("c", 0.9)
	disabled.SetEnabled(false)
	r.Register(disabled, 0)

	msg := domain.NewUserMessage("hello", "s", time.Now())
	best := r.FindBest(msg, nil, 5)
	if len(best) != 1 {
		t.Fatalf("best = %v, want only agent a", best)
	}
	if best[0].Score != 1.0 {
		t.Errorf("score = %v, want capped 1.0", best[0].Score)
	}
}

func TestRegistryFindBestSurvivesPanickyAgent(t *testing.T) {
	r := NewRegistry(testLogger())

	r.Register(newPanickyAgent("broken"), 0)
	r.Register(newFakeAgent("interview", 0.6), 0)

	msg := domain.NewUserMessage("hello", "s", time.Now())
	best := r.FindBest(msg, nil, 3)
	if len(best) != 1 || best[0].Name != "interview" {
		t.Errorf("best = %v, want panicking agent skipped", best)
	}
}

func TestRegistryFindBestTruncates(t *testing.T) {
	r := NewRegistry(testLogger())

	r.Register(newFakeAgent("a", 0.9), 0)
	r.Register(newFakeAgent("b", 0.8), 0)
	r.Register(newFakeAgent("c", 0.7), 0)

	msg := domain.NewUserMessage("hello", "s", time.Now())
	if best := r.FindBest(msg, nil, 2); len(best) != 2 {
		t.Errorf("len = %d, want 2", len(best))
	}
}

func TestRegistryUnregister(t *testing.T) {
	r := NewRegistry(testLogger())

	r.Register(newFakeAgent("search", 0.5, domain.CapWebSearch), 0)
	r.Unregister("search")

	if _, err := r.Get("search"); !errors.Is(err, domain.ErrAgentNotFound) {
		t.Errorf("err = %v, want ErrAgentNotFound", err)
	}
	if got := r.ByCapability(domain.CapWebSearch); len(got) != 0 {
		t.Errorf("capability index not cleaned: %v", got)
	}
	// Unknown name is a no-op.
	r.Unregister("search")
}

func TestRegistryHealthCheck(t *testing.T) {
	r := NewRegistry(testLogger())

	r.Register(newFakeAgent("interview", 0.9), 0)
	r.Register(newPanickyAgent("broken"), 0)
	disabled := newFakeAgent("search", 0.5)
	disabled.SetEnabled(false)
	r.Register(disabled, 0)

	report := r.HealthCheck()
	if report.TotalChecked != 3 {
		t.Errorf("checked = %d", report.TotalChecked)
	}
	if len(report.Healthy) != 1 || report.Healthy[0] != "interview" {
		t.Errorf("healthy = %v", report.Healthy)
	}
	if len(report.Unhealthy) != 2 {
		t.Errorf("unhealthy = %v", report.Unhealthy)
	}
}

func TestRegistryStatus(t *testing.T) {
	r := NewRegistry(testLogger())

	r.Register(newFakeAgent("interview", 0.9, domain.CapInterviewQuestions), 0)
	disabled := newFakeAgent("search", 0.5, domain.CapWebSearch)
	disabled.SetEnabled(false)
	r.Register(disabled, 0)

	status := r.Status()
	if status.TotalAgents != 2 || status.EnabledAgents != 1 {
		t.Errorf("status = %+v", status)
	}
	if _, ok := status.Capabilities[string(domain.CapWebSearch)]; ok {
		t.Error("disabled agent's capability should be omitted from summary")
	}
}
