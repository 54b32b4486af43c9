package credits

import (
	"context"
	"sync"
	"time"
)

type memoryStore struct {
	mu   sync.RWMutex
	data map[string]Profile
	logs []LogEntry
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: make(map[string]Profile)}
}

func (s *memoryStore) Get(ctx context.Context, userID string) (Profile, error) {
	return s.Ensure(ctx, userID, "")
}

func (s *memoryStore) Ensure(ctx context.Context, userID, email string) (Profile, error) {
	if err := ctx.Err(); err != nil {
		return Profile{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.ensureLocked(userID, email)
	s.data[userID] = p
	return p, nil
}

func (s *memoryStore) Consume(ctx context.Context, userID string) (Profile, error) {
	if err := ctx.Err(); err != nil {
		return Profile{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.ensureLocked(userID, "")
	if !p.IsPaidUser {
		if p.RemainingCredits <= 0 {
			s.data[userID] = p
			return Profile{}, ErrInsufficientCredits
		}
		p.RemainingCredits--
	}
	s.data[userID] = p
	return p, nil
}

func (s *memoryStore) LogRequest(ctx context.Context, entry LogEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, entry)
	return nil
}

func (s *memoryStore) ensureLocked(userID, email string) Profile {
	p, ok := s.data[userID]
	if !ok {
		p = defaultProfile(userID, email)
		return p
	}
	now := time.Now().UTC()
	if now.After(p.PeriodResetsAt) || now.Equal(p.PeriodResetsAt) {
		p.RemainingCredits = p.MonthlyCredits
		p.PeriodResetsAt = now.Add(creditPeriod)
	}
	if email != "" {
		p.Email = email
	}
	return p
}

// Logs returns a copy of the recorded entries.
func (s *memoryStore) Logs() []LogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]LogEntry, len(s.logs))
	copy(out, s.logs)
	return out
}
