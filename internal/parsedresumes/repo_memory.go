package parsedresumes

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu     sync.RWMutex
	nextID int64
	byHash map[string]ParsedResume
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byHash: make(map[string]ParsedResume),
	}
}

// Create stores a parsed resume under its content hash. Mirrors the
// Postgres unique constraint: the first row for a hash wins.
func (r *MemoryRepo) Create(ctx context.Context, pr ParsedResume) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byHash[pr.ContentHash]; ok {
		return 0, ErrDuplicateHash
	}
	r.nextID++
	pr.ID = r.nextID
	r.byHash[pr.ContentHash] = pr
	return pr.ID, nil
}

// GetByHash returns the parsed resume for a content hash.
func (r *MemoryRepo) GetByHash(ctx context.Context, contentHash string) (ParsedResume, error) {
	if err := ctx.Err(); err != nil {
		return ParsedResume{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	pr, ok := r.byHash[contentHash]
	if !ok {
		return ParsedResume{}, ErrNotFound
	}
	return pr, nil
}

// GetByID returns a parsed resume by ID.
func (r *MemoryRepo) GetByID(ctx context.Context, id int64) (ParsedResume, error) {
	if err := ctx.Err(); err != nil {
		return ParsedResume{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, pr := range r.byHash {
		if pr.ID == id {
			return pr, nil
		}
	}
	return ParsedResume{}, ErrNotFound
}

// ListByUser returns parsed resumes uploaded by a user, newest first.
func (r *MemoryRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]ParsedResume, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	r.mu.RLock()
	var out []ParsedResume
	for _, pr := range r.byHash {
		if pr.UserID == userID {
			out = append(out, pr)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if offset >= len(out) {
		return []ParsedResume{}, nil
	}
	end := len(out)
	if offset+limit < end {
		end = offset + limit
	}
	return out[offset:end], nil
}

var _ Repo = (*MemoryRepo)(nil)
