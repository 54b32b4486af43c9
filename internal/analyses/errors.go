package analyses

import (
	"fmt"

	"github.com/lex-technology/workwise-backend/internal/shared/apperr"
)

var (
	// ErrMalformedResponse indicates the provider reply parsed as JSON but
	// is missing the payload key the orchestrator persists.
	ErrMalformedResponse = fmt.Errorf("analysis: %w", apperr.ErrMalformedProviderResponse)

	// ErrJobDescriptionRequired indicates the application has no stored job
	// description to analyze against.
	ErrJobDescriptionRequired = fmt.Errorf("analysis: job description required: %w", apperr.ErrInvalidInput)
)
