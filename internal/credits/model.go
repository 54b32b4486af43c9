package credits

import "time"

// Profile is a user's AI credit state for the current period.
type Profile struct {
	UserID           string
	Email            string
	MonthlyCredits   int
	RemainingCredits int
	IsPaidUser       bool
	PeriodResetsAt   time.Time
}

// Plan names the billing tier.
func (p Profile) Plan() string {
	if p.IsPaidUser {
		return "paid"
	}
	return "free"
}

// LogEntry is one AI request outcome for the audit log.
type LogEntry struct {
	UserID      string
	ServiceName string
	Status      string
	Metadata    map[string]any
	CreditsUsed bool
}
