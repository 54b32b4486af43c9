package applications

import (
	"fmt"

	"github.com/lex-technology/workwise-backend/internal/shared/apperr"
)

var (
	// ErrNotFound indicates the application (or experience) does not exist.
	ErrNotFound = fmt.Errorf("application: %w", apperr.ErrNotFound)

	// ErrForbidden indicates the caller does not own the application.
	ErrForbidden = fmt.Errorf("application: %w", apperr.ErrForbidden)

	// ErrInvalidInput indicates missing or malformed request fields.
	ErrInvalidInput = fmt.Errorf("application: %w", apperr.ErrInvalidInput)
)
