package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"herdapi/internal/db"
	"herdapi/internal/logger"
	"herdapi/internal/query"
	"herdapi/internal/resource"

	"github.com/Masterminds/squirrel"
)

// readPayload decodes the JSON body and checks every key against the
// descriptor. Unknown columns are rejected, the id column may not be set.
func readPayload(r *http.Request, desc *resource.Descriptor) (map[string]any, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, &query.ValidationError{Reason: "failed to read body: " + err.Error()}
	}
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &query.ValidationError{Reason: "invalid JSON body: " + err.Error()}
	}
	if len(payload) == 0 {
		return nil, &query.ValidationError{Reason: "empty payload"}
	}
	for key := range payload {
		if key == desc.IDCol() {
			return nil, &query.ValidationError{Field: key, Reason: "id column cannot be written"}
		}
		if desc.Field(key) == nil {
			return nil, &query.ValidationError{Field: key, Reason: "unknown field"}
		}
	}
	return payload, nil
}

// CreateHandler serves POST /api/{resource}.
func CreateHandler(w http.ResponseWriter, r *http.Request) {
	desc, ok := lookupResource(w, r)
	if !ok {
		return
	}
	payload, err := readPayload(r, desc)
	if err != nil {
		mapError(w, err)
		return
	}

	ib := squirrel.InsertBuilder{}.PlaceholderFormat(squirrel.Dollar).
		Into(desc.Table).
		SetMap(toColumns(desc, payload)).
		Suffix("RETURNING " + desc.IDCol())

	sqlStr, args, err := ib.ToSql()
	if err != nil {
		mapError(w, err)
		return
	}
	var id int64
	if err := db.Pool.QueryRow(r.Context(), sqlStr, args...).Scan(&id); err != nil {
		mapError(w, fmt.Errorf("insert %s: %w", desc.Name, err))
		return
	}

	afterWrite(r, desc, id, payload, "create")

	item, err := query.Get(r.Context(), db.Pool, desc, id)
	if err != nil {
		mapError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

// UpdateHandler serves PUT /api/{resource}/{id}.
func UpdateHandler(w http.ResponseWriter, r *http.Request) {
	desc, ok := lookupResource(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	payload, err := readPayload(r, desc)
	if err != nil {
		mapError(w, err)
		return
	}

	// the row as it stands, for invalidating parents it pointed at before
	before, err := query.Get(r.Context(), db.Pool, desc, id)
	if err != nil {
		mapError(w, err)
		return
	}
	if before == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("%s/%d not found", desc.Name, id))
		return
	}

	ub := squirrel.UpdateBuilder{}.PlaceholderFormat(squirrel.Dollar).
		Table(desc.Table).
		SetMap(toColumns(desc, payload)).
		Where(squirrel.Eq{desc.IDCol(): id})

	sqlStr, args, err := ub.ToSql()
	if err != nil {
		mapError(w, err)
		return
	}
	if _, err := db.Pool.Exec(r.Context(), sqlStr, args...); err != nil {
		mapError(w, fmt.Errorf("update %s: %w", desc.Name, err))
		return
	}

	guard.InvalidateForWrite(r.Context(), desc.Name, id, before)
	afterWrite(r, desc, id, payload, "update")

	item, err := query.Get(r.Context(), db.Pool, desc, id)
	if err != nil {
		mapError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func toColumns(desc *resource.Descriptor, payload map[string]any) map[string]any {
	out := make(map[string]any, len(payload))
	for key, value := range payload {
		out[desc.Field(key).Col()] = value
	}
	return out
}

// afterWrite runs the shared write bookkeeping: guard invalidation for the
// written row and its parents, list cache retirement, activity logging.
func afterWrite(r *http.Request, desc *resource.Descriptor, id int64, row map[string]any, action string) {
	guard.InvalidateForWrite(r.Context(), desc.Name, id, row)
	bumpGeneration(desc.Name)
	recordActivity(r.Context(), desc.Name, id, action)
	logger.Info("write", logger.Fields{
		"resource": desc.Name,
		"id":       id,
		"action":   action,
	})
}
