package parsedresumes

import (
	"context"
	"errors"
	"time"

	"github.com/lex-technology/workwise-backend/internal/shared/telemetry"
)

// Service contains business logic for the parse cache.
type Service struct {
	Repo Repo
	Apps ApplicationsRepo
}

// LookupByHash returns the cached parse for a content hash when one exists.
func (s *Service) LookupByHash(ctx context.Context, contentHash string) (ParsedResume, bool, error) {
	pr, err := s.Repo.GetByHash(ctx, contentHash)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ParsedResume{}, false, nil
		}
		return ParsedResume{}, false, err
	}
	return pr, true, nil
}

// Store caches a parse result under its content hash. When a concurrent
// upload of the same document already created the row, the stored row is
// returned instead; the reused flag reports which happened.
func (s *Service) Store(ctx context.Context, pr ParsedResume) (ParsedResume, bool, error) {
	if pr.CreatedAt.IsZero() {
		pr.CreatedAt = time.Now().UTC()
	}
	id, err := s.Repo.Create(ctx, pr)
	if err == nil {
		pr.ID = id
		return pr, false, nil
	}
	if !errors.Is(err, ErrDuplicateHash) {
		return ParsedResume{}, false, err
	}
	existing, lookupErr := s.Repo.GetByHash(ctx, pr.ContentHash)
	if lookupErr != nil {
		return ParsedResume{}, false, lookupErr
	}
	return existing, true, nil
}

// GetByID returns a stored parse by primary key.
func (s *Service) GetByID(ctx context.Context, id int64) (ParsedResume, error) {
	return s.Repo.GetByID(ctx, id)
}

// ListForUser returns a user's parsed resumes plus, per resume, the most
// recent application built from it. A failed recent-use lookup degrades
// to a listing without that info rather than failing the request.
func (s *Service) ListForUser(ctx context.Context, userID string, limit, offset int) ([]ParsedResume, map[int64]LastUse, error) {
	items, err := s.Repo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, nil, err
	}
	if s.Apps == nil || len(items) == 0 {
		return items, nil, nil
	}

	ids := make([]int64, 0, len(items))
	for _, pr := range items {
		ids = append(ids, pr.ID)
	}
	lastUsed, err := s.Apps.LatestByParsedResume(ctx, ids)
	if err != nil {
		telemetry.Warn("parsedresumes.last_used_lookup_failed", map[string]any{
			"user_id": userID,
			"error":   err.Error(),
		})
		return items, nil, nil
	}
	return items, lastUsed, nil
}
