package parsedresumes

import (
	"errors"
	"fmt"

	"github.com/lex-technology/workwise-backend/internal/shared/apperr"
)

var (
	// ErrNotFound indicates no parsed resume matches the lookup. Wraps the
	// shared sentinel so respond.FromError maps it to 404.
	ErrNotFound = fmt.Errorf("parsed resume: %w", apperr.ErrNotFound)

	// ErrDuplicateHash indicates a row with the same content hash already
	// exists. Callers resolve it by re-reading the stored row; it never
	// reaches the HTTP layer.
	ErrDuplicateHash = errors.New("duplicate content hash")
)
