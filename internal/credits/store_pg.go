package credits

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

type pgStore struct {
	DB *sql.DB
}

// NewPGStore constructs a Postgres-backed credit store.
func NewPGStore(db *sql.DB) *pgStore {
	return &pgStore{DB: db}
}

func (s *pgStore) Get(ctx context.Context, userID string) (Profile, error) {
	return s.ensure(ctx, userID, "")
}

func (s *pgStore) Ensure(ctx context.Context, userID, email string) (Profile, error) {
	return s.ensure(ctx, userID, email)
}

func (s *pgStore) Consume(ctx context.Context, userID string) (Profile, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return Profile{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	p, err := s.lockAndEnsure(ctx, tx, userID, "")
	if err != nil {
		return Profile{}, err
	}

	if !p.IsPaidUser {
		if p.RemainingCredits <= 0 {
			err = ErrInsufficientCredits
			return Profile{}, err
		}
		p.RemainingCredits--
		if _, err = tx.ExecContext(ctx, `
UPDATE user_profiles SET remaining_ai_credits = $1, updated_at = now() WHERE user_id = $2`,
			p.RemainingCredits, userID); err != nil {
			return Profile{}, err
		}
	}
	if err = tx.Commit(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

func (s *pgStore) LogRequest(ctx context.Context, entry LogEntry) error {
	var metadata []byte
	if len(entry.Metadata) > 0 {
		payload, err := json.Marshal(entry.Metadata)
		if err != nil {
			return err
		}
		metadata = payload
	}
	_, err := s.DB.ExecContext(ctx, `
INSERT INTO ai_requests_log (user_id, service_name, status, metadata, credits_used)
VALUES ($1, $2, $3, $4, $5)`,
		entry.UserID, entry.ServiceName, entry.Status, metadata, entry.CreditsUsed)
	return err
}

func (s *pgStore) ensure(ctx context.Context, userID, email string) (Profile, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return Profile{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()
	p, err := s.lockAndEnsure(ctx, tx, userID, email)
	if err != nil {
		return Profile{}, err
	}
	if err = tx.Commit(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// lockAndEnsure reads the profile under a row lock, inserting defaults for
// new users and refilling the allowance when the period lapsed.
func (s *pgStore) lockAndEnsure(ctx context.Context, tx *sql.Tx, userID, email string) (Profile, error) {
	p := Profile{UserID: userID}
	var storedEmail sql.NullString
	row := tx.QueryRowContext(ctx, `
SELECT email, monthly_ai_credits, remaining_ai_credits, is_paid_user, period_resets_at
FROM user_profiles
WHERE user_id = $1
FOR UPDATE`, userID)
	err := row.Scan(&storedEmail, &p.MonthlyCredits, &p.RemainingCredits, &p.IsPaidUser, &p.PeriodResetsAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			p = defaultProfile(userID, email)
			var insertEmail sql.NullString
			if email != "" {
				insertEmail = sql.NullString{String: email, Valid: true}
			}
			if _, err = tx.ExecContext(ctx, `
INSERT INTO user_profiles (user_id, email, monthly_ai_credits, remaining_ai_credits, is_paid_user, period_resets_at)
VALUES ($1, $2, $3, $4, $5, $6)`,
				userID, insertEmail, p.MonthlyCredits, p.RemainingCredits, p.IsPaidUser, p.PeriodResetsAt); err != nil {
				return Profile{}, err
			}
			return p, nil
		}
		return Profile{}, err
	}
	p.Email = storedEmail.String

	now := time.Now().UTC()
	if now.After(p.PeriodResetsAt) || now.Equal(p.PeriodResetsAt) {
		p.RemainingCredits = p.MonthlyCredits
		p.PeriodResetsAt = now.Add(creditPeriod)
		if _, err := tx.ExecContext(ctx, `
UPDATE user_profiles SET remaining_ai_credits = $1, period_resets_at = $2, updated_at = now() WHERE user_id = $3`,
			p.RemainingCredits, p.PeriodResetsAt, userID); err != nil {
			return Profile{}, err
		}
	}

	if email != "" && email != p.Email {
		p.Email = email
		if _, err := tx.ExecContext(ctx, `
UPDATE user_profiles SET email = $1, updated_at = now() WHERE user_id = $2`,
			email, userID); err != nil {
			return Profile{}, err
		}
	}
	return p, nil
}
