package pagination

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
)

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 20
	// MaxLimit caps how many rows a single page can carry.
	MaxLimit = 100
)

// Params holds cursor pagination inputs from controllers or services.
type Params struct {
	Limit  int
	Cursor string
}

// Cursor points just past the last row of the previous page. Rows are
// ordered by ID descending, so the next page holds IDs below Cursor.ID.
type Cursor struct {
	ID int64
}

// NormalizeLimit enforces the configured default and maximum limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// EncodeCursor builds an opaque cursor string.
func EncodeCursor(cursor Cursor) string {
	payload := "id|" + strconv.FormatInt(cursor.ID, 10)
	return base64.RawURLEncoding.EncodeToString([]byte(payload))
}

// ParseCursor decodes the cursor string. An empty value means the first page.
func ParseCursor(value string) (*Cursor, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}

	decoded, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}
	parts := strings.SplitN(string(decoded), "|", 2)
	if len(parts) != 2 || parts[0] != "id" {
		return nil, fmt.Errorf("invalid cursor format")
	}
	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("invalid cursor id")
	}
	return &Cursor{ID: id}, nil
}

// Page slices rows (already sorted by ID descending) into the page after
// cursor and returns the cursor for the following page, empty on the last.
func Page[T any](rows []T, id func(T) int64, params Params) ([]T, string, error) {
	cursor, err := ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}
	limit := NormalizeLimit(params.Limit)

	start := 0
	if cursor != nil {
		start = len(rows)
		for i, row := range rows {
			if id(row) < cursor.ID {
				start = i
				break
			}
		}
	}
	rest := rows[start:]
	if len(rest) <= limit {
		return rest, "", nil
	}
	page := rest[:limit]
	return page, EncodeCursor(Cursor{ID: id(page[len(page)-1])}), nil
}
