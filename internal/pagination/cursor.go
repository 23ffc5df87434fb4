// Package pagination implements opaque keyset cursors for newest-first listings.
package pagination

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"
)

var ErrInvalidCursor = errors.New("invalid cursor format")

// Cursor marks the last row of a page; the next page starts strictly after it
// in (timestamp DESC, id DESC) order.
type Cursor struct {
	LastID    string
	Timestamp time.Time
}

type cursorPayload struct {
	ID string    `json:"i"`
	TS time.Time `json:"t"`
}

// PageResult is the JSON shape of one page of T.
type PageResult[T any] struct {
	Items   []T    `json:"items"`
	Cursor  string `json:"cursor,omitempty"`
	HasMore bool   `json:"has_more"`
}

// EncodeCursor returns "" for an empty ID so callers can pass the last row
// of an empty page.
func EncodeCursor(lastID string, timestamp time.Time) string {
	if lastID == "" {
		return ""
	}
	raw, _ := json.Marshal(cursorPayload{ID: lastID, TS: timestamp.UTC()})
	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodeCursor returns nil for the empty cursor, meaning the first page.
func DecodeCursor(cursor string) (*Cursor, error) {
	if cursor == "" {
		return nil, nil
	}

	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return nil, ErrInvalidCursor
	}

	var p cursorPayload
	if err := json.Unmarshal(raw, &p); err != nil || p.ID == "" || p.TS.IsZero() {
		return nil, ErrInvalidCursor
	}

	return &Cursor{LastID: p.ID, Timestamp: p.TS}, nil
}
