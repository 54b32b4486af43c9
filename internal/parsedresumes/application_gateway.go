package parsedresumes

import (
	"context"
	"time"
)

// LastUse records the most recent application created from a parsed resume.
type LastUse struct {
	Company string
	Role    string
	Date    time.Time
}

// ApplicationsRepo reports recent application activity without importing
// the applications package.
type ApplicationsRepo interface {
	LatestByParsedResume(ctx context.Context, parsedResumeIDs []int64) (map[int64]LastUse, error)
}
