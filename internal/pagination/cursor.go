// Package pagination implements the opaque cursor tokens used by the
// activity feeds. A token carries the pagination state of a sequence:
// the last-activity timestamp bound and the page size established when
// the sequence started.
package pagination

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"
)

type Cursor struct {
	LastActivityCursor time.Time `json:"last_activity_cursor"`
	PageSize           int       `json:"page_size"`
}

// Encode serializes the cursor into an opaque token. The only guarantee is
// that Decode returns what a prior Encode produced; tokens are not stable
// across schema versions.
func Encode(c Cursor) (string, error) {
	payload, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal cursor: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(payload), nil
}

// Decode parses a client-supplied token. Callers treat an error as "no
// cursor" rather than failing the request.
func Decode(token string) (Cursor, error) {
	payload, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, fmt.Errorf("failed to decode cursor token: %w", err)
	}
	var c Cursor
	if err := json.Unmarshal(payload, &c); err != nil {
		return Cursor{}, fmt.Errorf("failed to unmarshal cursor payload: %w", err)
	}
	return c, nil
}
