package credits

import (
	"fmt"

	"github.com/lex-technology/workwise-backend/internal/shared/apperr"
)

// ErrInsufficientCredits is returned when a gated operation finds no
// remaining credits in the current period.
var ErrInsufficientCredits = fmt.Errorf("credits: %w", apperr.ErrInsufficientCredits)
