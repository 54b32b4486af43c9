package analyses

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lex-technology/workwise-backend/internal/llm"
)

// decodeObjectPayload cleans and parses a provider reply, requiring at least
// one of the given top-level keys. The cleaned object is returned for
// persistence alongside its decoded fields.
func decodeObjectPayload(raw string, keys ...string) (json.RawMessage, map[string]json.RawMessage, error) {
	cleaned := llm.CleanJSONResponse(raw)
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &fields); err != nil {
		return nil, nil, fmt.Errorf("%w: not a JSON object", ErrMalformedResponse)
	}
	for _, key := range keys {
		if _, ok := fields[key]; ok {
			return json.RawMessage(cleaned), fields, nil
		}
	}
	return nil, nil, fmt.Errorf("%w: missing %s", ErrMalformedResponse, strings.Join(keys, "|"))
}

// decodeListPayload extracts a top-level key that must hold an array and
// returns the array itself.
func decodeListPayload(raw, key string) (json.RawMessage, error) {
	_, fields, err := decodeObjectPayload(raw, key)
	if err != nil {
		return nil, err
	}
	var list []json.RawMessage
	if err := json.Unmarshal(fields[key], &list); err != nil {
		return nil, fmt.Errorf("%w: %s is not a list", ErrMalformedResponse, key)
	}
	return fields[key], nil
}

// enhancedSummaryContent pulls enhanced_version.content out of a summary
// payload. An empty rewrite is treated as malformed since it would wipe the
// stored summary.
func enhancedSummaryContent(fields map[string]json.RawMessage) (string, error) {
	var enhanced struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal(fields["enhanced_version"], &enhanced); err != nil {
		return "", fmt.Errorf("%w: enhanced_version is not an object", ErrMalformedResponse)
	}
	if strings.TrimSpace(enhanced.Content) == "" {
		return "", fmt.Errorf("%w: enhanced_version.content is empty", ErrMalformedResponse)
	}
	return enhanced.Content, nil
}
