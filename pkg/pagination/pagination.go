// Package pagination implements newest-first keyset paging over tables
// with created_at and id columns. Cursors are opaque to clients.
package pagination

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DefaultLimit = 25
	MaxLimit     = 100
)

var errMalformedCursor = errors.New("malformed cursor")

// Params is a page request: how many rows and where the last page ended.
type Params struct {
	Limit  int
	Cursor string
}

// Cursor marks the last row of a page.
type Cursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

type wireCursor struct {
	At int64     `json:"t"`
	ID uuid.UUID `json:"i"`
}

// NormalizeLimit maps a missing limit to DefaultLimit and caps it at MaxLimit.
func NormalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

// LimitWithBuffer asks for one extra row so Trim can tell whether a next
// page exists.
func LimitWithBuffer(limit int) int {
	return NormalizeLimit(limit) + 1
}

func EncodeCursor(c Cursor) string {
	raw, _ := json.Marshal(wireCursor{At: c.CreatedAt.UTC().UnixNano(), ID: c.ID})
	return base64.RawURLEncoding.EncodeToString(raw)
}

// ParseCursor returns nil for a blank cursor, meaning the first page.
func ParseCursor(value string) (*Cursor, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformedCursor, err)
	}
	var wire wireCursor
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformedCursor, err)
	}
	if wire.ID == uuid.Nil || wire.At <= 0 {
		return nil, errMalformedCursor
	}
	return &Cursor{CreatedAt: time.Unix(0, wire.At).UTC(), ID: wire.ID}, nil
}

// Apply scopes query to the page after params.Cursor, newest first, and
// fetches one row past the page size.
func Apply(query *gorm.DB, params Params) (*gorm.DB, error) {
	cursor, err := ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where("created_at < ? OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}
	return query.Order("created_at DESC, id DESC").Limit(LimitWithBuffer(params.Limit)), nil
}

// Trim cuts rows fetched through Apply down to the page and returns the next
// cursor, or "" when this was the last page.
func Trim[T any](rows []T, limit int, cursorOf func(T) Cursor) ([]T, string) {
	size := NormalizeLimit(limit)
	if len(rows) <= size {
		return rows, ""
	}
	return rows[:size], EncodeCursor(cursorOf(rows[size-1]))
}
