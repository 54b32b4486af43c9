package parsedresumes

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a parsed resume. The unique constraint on content_hash
// makes the first insert win when two uploads of the same document race;
// the loser sees ErrDuplicateHash and should re-read by hash.
func (r *PGRepo) Create(ctx context.Context, pr ParsedResume) (int64, error) {
	const query = `
INSERT INTO parsed_resumes (
    user_id,
    content_hash,
    original_filename,
    raw_text,
    parsed_content,
    metadata,
    created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id`

	var originalName sql.NullString
	if pr.OriginalFilename != "" {
		originalName = sql.NullString{String: pr.OriginalFilename, Valid: true}
	}
	var metadata []byte
	if len(pr.Metadata) > 0 {
		metadata = pr.Metadata
	}

	var id int64
	err := r.DB.QueryRowContext(
		ctx,
		query,
		pr.UserID,
		pr.ContentHash,
		originalName,
		pr.RawText,
		[]byte(pr.ParsedContent),
		metadata,
		pr.CreatedAt,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, ErrDuplicateHash
		}
		return 0, err
	}
	return id, nil
}

// GetByHash returns the parsed resume for a content hash.
func (r *PGRepo) GetByHash(ctx context.Context, contentHash string) (ParsedResume, error) {
	const query = `
SELECT id, user_id, content_hash, original_filename, raw_text, parsed_content, metadata, created_at
FROM parsed_resumes
WHERE content_hash = $1
LIMIT 1`
	var pr ParsedResume
	var originalName sql.NullString
	var parsedContent string
	var metadata sql.NullString
	err := r.DB.QueryRowContext(ctx, query, contentHash).Scan(
		&pr.ID,
		&pr.UserID,
		&pr.ContentHash,
		&originalName,
		&pr.RawText,
		&parsedContent,
		&metadata,
		&pr.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ParsedResume{}, ErrNotFound
		}
		return ParsedResume{}, err
	}
	if originalName.Valid {
		pr.OriginalFilename = originalName.String
	}
	pr.ParsedContent = json.RawMessage(parsedContent)
	if metadata.Valid && metadata.String != "" {
		pr.Metadata = json.RawMessage(metadata.String)
	}
	return pr, nil
}

// GetByID returns a parsed resume by primary key. No owner filter: rows
// are shared reference data and ownership checks happen on applications.
func (r *PGRepo) GetByID(ctx context.Context, id int64) (ParsedResume, error) {
	const query = `
SELECT id, user_id, content_hash, original_filename, raw_text, parsed_content, metadata, created_at
FROM parsed_resumes
WHERE id = $1
LIMIT 1`
	var pr ParsedResume
	var originalName sql.NullString
	var parsedContent string
	var metadata sql.NullString
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&pr.ID,
		&pr.UserID,
		&pr.ContentHash,
		&originalName,
		&pr.RawText,
		&parsedContent,
		&metadata,
		&pr.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ParsedResume{}, ErrNotFound
		}
		return ParsedResume{}, err
	}
	if originalName.Valid {
		pr.OriginalFilename = originalName.String
	}
	pr.ParsedContent = json.RawMessage(parsedContent)
	if metadata.Valid && metadata.String != "" {
		pr.Metadata = json.RawMessage(metadata.String)
	}
	return pr, nil
}

// ListByUser lists parsed resumes uploaded by a user, newest first.
func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]ParsedResume, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
SELECT id, user_id, content_hash, original_filename, raw_text, parsed_content, metadata, created_at
FROM parsed_resumes
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`

	rows, err := r.DB.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ParsedResume
	for rows.Next() {
		var pr ParsedResume
		var originalName sql.NullString
		var parsedContent string
		var metadata sql.NullString
		if err := rows.Scan(
			&pr.ID,
			&pr.UserID,
			&pr.ContentHash,
			&originalName,
			&pr.RawText,
			&parsedContent,
			&metadata,
			&pr.CreatedAt,
		); err != nil {
			return nil, err
		}
		if originalName.Valid {
			pr.OriginalFilename = originalName.String
		}
		pr.ParsedContent = json.RawMessage(parsedContent)
		if metadata.Valid && metadata.String != "" {
			pr.Metadata = json.RawMessage(metadata.String)
		}
		out = append(out, pr)
	}
	return out, rows.Err()
}

var _ Repo = (*PGRepo)(nil)
