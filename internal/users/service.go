package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/lex-technology/workwise-backend/internal/shared/apperr"
)

// Service contains business logic for user identities.
type Service struct {
	Repo Repo
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

// UpsertFromAuth persists the identity delivered by the login flow so
// ownership of applications and credits stays stable across logins.
func (s *Service) UpsertFromAuth(ctx context.Context, user User) error {
	if strings.TrimSpace(user.ID) == "" || strings.TrimSpace(user.Email) == "" {
		return fmt.Errorf("user id and email are required: %w", apperr.ErrInvalidInput)
	}
	return s.Repo.Upsert(ctx, user)
}

func (s *Service) GetByID(ctx context.Context, userID string) (User, error) {
	if strings.TrimSpace(userID) == "" {
		return User{}, fmt.Errorf("user id is required: %w", apperr.ErrInvalidInput)
	}
	return s.Repo.GetByID(ctx, userID)
}
