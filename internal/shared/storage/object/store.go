package object

import (
	"context"
	"io"
)

// ObjectStore archives uploaded resume files and serves them back. Save
// returns the storage key the caller should persist alongside the resume.
type ObjectStore interface {
	Save(ctx context.Context, userId string, fileName string, r io.Reader) (storageKey string, sizeBytes int64, mimeType string, err error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
}
