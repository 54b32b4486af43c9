package parsedresumes

import (
	"encoding/json"
	"time"
)

// ParsedResume is a cached parse result keyed by the hash of the uploaded
// file's extracted text. Applications reference rows here without owning
// them; rows are never evicted.
type ParsedResume struct {
	ID               int64
	UserID           string
	ContentHash      string
	OriginalFilename string
	RawText          string
	ParsedContent    json.RawMessage
	Metadata         json.RawMessage
	CreatedAt        time.Time
}
