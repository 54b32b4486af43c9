package parsedresumes

import "context"

// Repo defines persistence operations for parsed resumes.
type Repo interface {
	// Create inserts a row and returns its assigned ID. Returns
	// ErrDuplicateHash when a row with the same content hash exists.
	Create(ctx context.Context, pr ParsedResume) (int64, error)
	// GetByHash looks a row up by content hash. The lookup is global:
	// identical documents dedupe across users.
	GetByHash(ctx context.Context, contentHash string) (ParsedResume, error)
	GetByID(ctx context.Context, id int64) (ParsedResume, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]ParsedResume, error)
}
