package handler

import (
	"context"
	"net/http"
	"strconv"

	"herdapi/internal/db"
	"herdapi/internal/logger"
	"herdapi/internal/query"
	"herdapi/internal/resource"

	"github.com/Masterminds/squirrel"
)

const activityResource = "activity_log"

// TimelineHandler serves GET /api/timeline: the append-only activity feed
// with keyset pagination, stable under concurrent inserts.
func TimelineHandler(w http.ResponseWriter, r *http.Request) {
	desc, ok := resource.Lookup(activityResource)
	if !ok {
		writeError(w, http.StatusNotFound, "activity feed is not configured")
		return
	}

	req := &query.CursorRequest{
		Cursor: r.URL.Query().Get("cursor"),
		Limit:  50,
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		req.Limit = n
	}

	result, err := query.ListCursor(r.Context(), db.Pool, desc, req)
	if err != nil {
		mapError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// recordActivity appends one feed row. Feed trouble never fails the write
// that triggered it.
func recordActivity(ctx context.Context, res string, id int64, action string) {
	desc, ok := resource.Lookup(activityResource)
	if !ok {
		return
	}
	ib := squirrel.InsertBuilder{}.PlaceholderFormat(squirrel.Dollar).
		Into(desc.Table).
		Columns("resource", "row_id", "action").
		Values(res, id, action)
	sqlStr, args, err := ib.ToSql()
	if err != nil {
		return
	}
	if _, err := db.Pool.Exec(ctx, sqlStr, args...); err != nil {
		logger.Warn("activity_insert_failed", logger.Fields{
			"resource": res,
			"id":       id,
			"error":    err.Error(),
		})
	}
}
