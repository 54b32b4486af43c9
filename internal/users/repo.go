package users

import (
	"context"
	"fmt"

	"github.com/lex-technology/workwise-backend/internal/shared/apperr"
)

// ErrNotFound indicates no user row matches the lookup.
var ErrNotFound = fmt.Errorf("user: %w", apperr.ErrNotFound)

// Repo persists user identities.
type Repo interface {
	Upsert(ctx context.Context, user User) error
	GetByID(ctx context.Context, userID string) (User, error)
}
