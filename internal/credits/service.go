package credits

import (
	"context"

	"github.com/lex-technology/workwise-backend/internal/shared/telemetry"
)

type store interface {
	Get(ctx context.Context, userID string) (Profile, error)
	Ensure(ctx context.Context, userID, email string) (Profile, error)
	Consume(ctx context.Context, userID string) (Profile, error)
	LogRequest(ctx context.Context, entry LogEntry) error
}

// Service manages credit profiles via an underlying store.
type Service struct {
	store store
}

// NewService constructs a Service with in-memory store.
func NewService() *Service {
	return &Service{store: newMemoryStore()}
}

// NewPostgresService constructs a Service backed by Postgres.
func NewPostgresService(pgStore store) *Service {
	return &Service{store: pgStore}
}

// Snapshot returns the user's credit state, seeding defaults for new users
// and refilling the allowance when the period lapsed.
func (s *Service) Snapshot(ctx context.Context, userID string) (Profile, error) {
	return s.store.Get(ctx, userID)
}

// EnsureProfile seeds or refreshes the profile at sign-in.
func (s *Service) EnsureProfile(ctx context.Context, userID, email string) (Profile, error) {
	return s.store.Ensure(ctx, userID, email)
}

// Consume spends one credit. Paid plans are never decremented. Exhausted
// free plans fail with ErrInsufficientCredits before any provider call.
func (s *Service) Consume(ctx context.Context, userID string) (Profile, error) {
	return s.store.Consume(ctx, userID)
}

// IsPaidUser reports the billing tier for plan gates.
func (s *Service) IsPaidUser(ctx context.Context, userID string) (bool, error) {
	p, err := s.store.Get(ctx, userID)
	if err != nil {
		return false, err
	}
	return p.IsPaidUser, nil
}

// LogRequest records an AI call outcome. Logging never fails the caller.
func (s *Service) LogRequest(ctx context.Context, entry LogEntry) {
	if entry.UserID == "" {
		telemetry.Warn("credits.log_request_skipped", map[string]any{"reason": "missing user id"})
		return
	}
	if err := s.store.LogRequest(ctx, entry); err != nil {
		telemetry.Warn("credits.log_request_failed", map[string]any{
			"service": entry.ServiceName,
			"error":   err.Error(),
		})
	}
}
