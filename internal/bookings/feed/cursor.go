package feed

import (
	"encoding/base64"
	"encoding/json"
	"time"

	"cleanops_backend/platform/apperr"

	"github.com/google/uuid"
)

// Cursor pins a keyset position in the feed's (created_at, id) ordering. It
// travels base64-encoded so clients treat it as opaque.
type Cursor struct {
	CreatedAt time.Time `json:"t"`
	ID        uuid.UUID `json:"id"`
}

// EncodeCursor serializes a cursor for the wire.
func EncodeCursor(c Cursor) string {
	raw, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodeCursor parses a wire cursor. An empty string means "from the top".
func DecodeCursor(s string) (*Cursor, error) {
	if s == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, apperr.BadRequest("invalid cursor")
	}
	var c Cursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, apperr.BadRequest("invalid cursor")
	}
	if c.CreatedAt.IsZero() || c.ID == uuid.Nil {
		return nil, apperr.BadRequest("invalid cursor")
	}
	return &c, nil
}
