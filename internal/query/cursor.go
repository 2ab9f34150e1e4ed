package query

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"herdapi/internal/db"
	"herdapi/internal/resource"

	"github.com/Masterminds/squirrel"
)

// CursorRequest is keyset pagination over an append-only feed. The cursor
// is opaque to callers: a position on the (created_at, id) key.
type CursorRequest struct {
	Cursor string
	Limit  int
}

type CursorResult struct {
	Items      []map[string]any `json:"items"`
	NextCursor string           `json:"next_cursor,omitempty"`
	HasMore    bool             `json:"has_more"`
}

type cursorKey struct {
	At time.Time
	ID int64
}

// EncodeCursor packs a position into an opaque token.
func EncodeCursor(at time.Time, id int64) string {
	raw := fmt.Sprintf("%s|%d", at.UTC().Format(time.RFC3339Nano), id)
	return base64.URLEncoding.EncodeToString([]byte(raw))
}

func decodeCursor(s string) (cursorKey, error) {
	raw, err := base64.URLEncoding.DecodeString(s)
	if err != nil {
		return cursorKey{}, validationErr("cursor", "malformed cursor")
	}
	parts := strings.SplitN(string(raw), "|", 2)
	if len(parts) != 2 {
		return cursorKey{}, validationErr("cursor", "malformed cursor")
	}
	at, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return cursorKey{}, validationErr("cursor", "malformed cursor")
	}
	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return cursorKey{}, validationErr("cursor", "malformed cursor")
	}
	return cursorKey{At: at, ID: id}, nil
}

// BuildCursorQuery composes a keyset SELECT: newest first, strictly ordered
// by (created_at, id) so pages stay stable while rows keep arriving.
// One extra row is fetched to decide has_more.
func BuildCursorQuery(desc *resource.Descriptor, req *CursorRequest) (squirrel.SelectBuilder, error) {
	if req.Limit < 1 {
		return squirrel.SelectBuilder{}, validationErr("limit", "must be a positive integer")
	}

	cols := make([]string, 0, len(desc.Fields))
	for i := range desc.Fields {
		cols = append(cols, "main."+desc.Fields[i].Col())
	}

	sb := squirrel.SelectBuilder{}.PlaceholderFormat(squirrel.Dollar).
		Columns(cols...).
		From(fmt.Sprintf("%s AS main", desc.Table)).
		OrderBy("main.created_at DESC", fmt.Sprintf("main.%s DESC", desc.IDCol())).
		Limit(uint64(req.Limit) + 1)

	if req.Cursor != "" {
		key, err := decodeCursor(req.Cursor)
		if err != nil {
			return squirrel.SelectBuilder{}, err
		}
		sb = sb.Where(squirrel.Expr(
			fmt.Sprintf("(main.created_at, main.%s) < (?, ?)", desc.IDCol()),
			key.At, key.ID,
		))
	}

	return sb, nil
}

// ListCursor executes the keyset query and emits next_cursor/has_more.
func ListCursor(ctx context.Context, q db.Querier, desc *resource.Descriptor, req *CursorRequest) (*CursorResult, error) {
	sb, err := BuildCursorQuery(desc, req)
	if err != nil {
		return nil, err
	}
	sqlStr, args, err := sb.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := q.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("cursor %s: %w", desc.Name, err)
	}
	defer rows.Close()

	cols := make([]Column, 0, len(desc.Fields))
	for i := range desc.Fields {
		f := &desc.Fields[i]
		cols = append(cols, Column{Alias: f.Col(), Field: f.Name})
	}
	items, err := scanRows(rows, cols)
	if err != nil {
		return nil, err
	}

	res := &CursorResult{Items: items}
	if len(items) > req.Limit {
		res.Items = items[:req.Limit]
		res.HasMore = true
		next, err := nextCursorFrom(res.Items[len(res.Items)-1], desc.IDCol())
		if err != nil {
			return nil, fmt.Errorf("cursor %s: %w", desc.Name, err)
		}
		res.NextCursor = next
	}
	return res, nil
}

// nextCursorFrom derives the token for the page after last. A page that
// claims has_more must carry a usable cursor, so a last row without the
// keyset columns is an error, not a silent dead end.
func nextCursorFrom(last map[string]any, idCol string) (string, error) {
	at, okAt := last["created_at"].(time.Time)
	id, okID := toInt64(last[idCol])
	if !okAt || !okID {
		return "", fmt.Errorf("last row carries no (created_at, %s) key", idCol)
	}
	return EncodeCursor(at, id), nil
}

func toInt64(v any) (int64, bool) {
	switch t := v.(type) {
	case int64:
		return t, true
	case int32:
		return int64(t), true
	case int:
		return int64(t), true
	}
	return 0, false
}
