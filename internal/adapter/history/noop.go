package history

import (
	"context"
	"fmt"

	"mockview/internal/domain"
	"mockview/internal/infra/config"
)

// NoopArchiver discards transcripts. Used when persistence is disabled.
type NoopArchiver struct{}

// NewNoopArchiver creates an archiver that drops everything.
func NewNoopArchiver() *NoopArchiver { return &NoopArchiver{} }

func (*NoopArchiver) Archive(context.Context, domain.TranscriptRecord) error { return nil }

func (*NoopArchiver) Get(_ context.Context, sessionID string) (*domain.TranscriptRecord, error) {
	return nil, domain.NewDomainError("NoopArchiver.Get", domain.ErrSessionNotFound, sessionID)
}

func (*NoopArchiver) List(context.Context, int) ([]domain.TranscriptRecord, error) {
	return nil, nil
}

func (*NoopArchiver) Close() error { return nil }

var _ domain.TranscriptArchiver = (*NoopArchiver)(nil)

// New builds the configured transcript archiver.
func New(cfg config.HistoryConfig) (domain.TranscriptArchiver, error) {
	switch cfg.Driver {
	case "sqlite":
		return NewSQLiteArchiver(cfg.Path)
	case "none", "":
		return NewNoopArchiver(), nil
	default:
		return nil, fmt.Errorf("history: unknown driver %q", cfg.Driver)
	}
}
