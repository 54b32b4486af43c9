package credits

import "time"

// creditPeriod is how long one allowance lasts before it refills.
const creditPeriod = 30 * 24 * time.Hour

const defaultMonthlyCredits = 10

func defaultProfile(userID, email string) Profile {
	return Profile{
		UserID:           userID,
		Email:            email,
		MonthlyCredits:   defaultMonthlyCredits,
		RemainingCredits: defaultMonthlyCredits,
		PeriodResetsAt:   time.Now().UTC().Add(creditPeriod),
	}
}
