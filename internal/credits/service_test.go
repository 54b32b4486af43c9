package credits

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lex-technology/workwise-backend/internal/shared/apperr"
)

func TestSnapshotSeedsDefaults(t *testing.T) {
	svc := NewService()

	p, err := svc.Snapshot(context.Background(), "google:117")
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if p.MonthlyCredits != defaultMonthlyCredits || p.RemainingCredits != defaultMonthlyCredits {
		t.Fatalf("credits = %d/%d, want %d/%d", p.RemainingCredits, p.MonthlyCredits, defaultMonthlyCredits, defaultMonthlyCredits)
	}
	if p.Plan() != "free" {
		t.Fatalf("plan = %q, want free", p.Plan())
	}
	if !p.PeriodResetsAt.After(time.Now().UTC().Add(29 * 24 * time.Hour)) {
		t.Fatalf("resetsAt = %v, want about a month out", p.PeriodResetsAt)
	}
}

func TestConsumeDecrementsUntilExhausted(t *testing.T) {
	svc := NewService()

	for i := 0; i < defaultMonthlyCredits; i++ {
		p, err := svc.Consume(context.Background(), "u1")
		if err != nil {
			t.Fatalf("consume %d: %v", i, err)
		}
		if p.RemainingCredits != defaultMonthlyCredits-1-i {
			t.Fatalf("remaining after %d = %d", i+1, p.RemainingCredits)
		}
	}

	_, err := svc.Consume(context.Background(), "u1")
	if !errors.Is(err, ErrInsufficientCredits) || !errors.Is(err, apperr.ErrInsufficientCredits) {
		t.Fatalf("err = %v, want insufficient credits", err)
	}

	p, err := svc.Snapshot(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if p.RemainingCredits != 0 {
		t.Fatalf("remaining = %d, want 0", p.RemainingCredits)
	}
}

func TestConsumePaidUserNotDecremented(t *testing.T) {
	ms := newMemoryStore()
	ms.data["u1"] = Profile{
		UserID:           "u1",
		MonthlyCredits:   defaultMonthlyCredits,
		RemainingCredits: 1,
		IsPaidUser:       true,
		PeriodResetsAt:   time.Now().UTC().Add(creditPeriod),
	}
	svc := &Service{store: ms}

	for i := 0; i < 3; i++ {
		p, err := svc.Consume(context.Background(), "u1")
		if err != nil {
			t.Fatalf("consume %d: %v", i, err)
		}
		if p.RemainingCredits != 1 {
			t.Fatalf("remaining = %d, want untouched 1", p.RemainingCredits)
		}
	}

	paid, err := svc.IsPaidUser(context.Background(), "u1")
	if err != nil || !paid {
		t.Fatalf("IsPaidUser = %v, %v", paid, err)
	}
}

func TestSnapshotRefillsLapsedPeriod(t *testing.T) {
	ms := newMemoryStore()
	ms.data["u1"] = Profile{
		UserID:           "u1",
		MonthlyCredits:   defaultMonthlyCredits,
		RemainingCredits: 0,
		PeriodResetsAt:   time.Now().UTC().Add(-time.Hour),
	}
	svc := &Service{store: ms}

	p, err := svc.Snapshot(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if p.RemainingCredits != defaultMonthlyCredits {
		t.Fatalf("remaining = %d, want refilled %d", p.RemainingCredits, defaultMonthlyCredits)
	}
	if !p.PeriodResetsAt.After(time.Now().UTC()) {
		t.Fatalf("resetsAt = %v, want future", p.PeriodResetsAt)
	}
}

func TestEnsureProfileRefreshesEmail(t *testing.T) {
	svc := NewService()

	p, err := svc.EnsureProfile(context.Background(), "u1", "first@example.com")
	if err != nil {
		t.Fatalf("EnsureProfile: %v", err)
	}
	if p.Email != "first@example.com" {
		t.Fatalf("email = %q", p.Email)
	}

	p, err = svc.EnsureProfile(context.Background(), "u1", "second@example.com")
	if err != nil {
		t.Fatalf("EnsureProfile again: %v", err)
	}
	if p.Email != "second@example.com" {
		t.Fatalf("email = %q, want refreshed", p.Email)
	}
	if p.RemainingCredits != defaultMonthlyCredits {
		t.Fatalf("remaining = %d, want allowance untouched", p.RemainingCredits)
	}
}

func TestLogRequestRecordsEntry(t *testing.T) {
	ms := newMemoryStore()
	svc := &Service{store: ms}

	svc.LogRequest(context.Background(), LogEntry{
		UserID:      "u1",
		ServiceName: "cover_letter_generation",
		Status:      "success",
		Metadata:    map[string]any{"tone": "professional"},
		CreditsUsed: true,
	})

	logs := ms.Logs()
	if len(logs) != 1 {
		t.Fatalf("logs = %d, want 1", len(logs))
	}
	if logs[0].ServiceName != "cover_letter_generation" || !logs[0].CreditsUsed {
		t.Fatalf("entry = %+v", logs[0])
	}
}

type failingStore struct{}

func (failingStore) Get(context.Context, string) (Profile, error) {
	return Profile{}, errors.New("store down")
}

func (failingStore) Ensure(context.Context, string, string) (Profile, error) {
	return Profile{}, errors.New("store down")
}

func (failingStore) Consume(context.Context, string) (Profile, error) {
	return Profile{}, errors.New("store down")
}

func (failingStore) LogRequest(context.Context, LogEntry) error {
	return errors.New("store down")
}

func TestLogRequestSwallowsStoreFailure(t *testing.T) {
	svc := &Service{store: failingStore{}}

	// Must not fail or panic; the AI call outcome matters more than its log.
	svc.LogRequest(context.Background(), LogEntry{UserID: "u1", ServiceName: "jd_analysis", Status: "error"})
}

func TestLogRequestSkipsAnonymous(t *testing.T) {
	ms := newMemoryStore()
	svc := &Service{store: ms}

	svc.LogRequest(context.Background(), LogEntry{ServiceName: "jd_analysis", Status: "success"})
	if len(ms.Logs()) != 0 {
		t.Fatalf("logs = %d, want 0", len(ms.Logs()))
	}
}
