package handler

import (
	"fmt"
	"net/http"

	"herdapi/internal/db"
	"herdapi/internal/integrity"
	"herdapi/internal/query"

	"github.com/Masterminds/squirrel"
)

// DeleteHandler serves DELETE /api/{resource}/{id}. The integrity guard
// runs first; a blocked verdict refuses the delete with the blocking
// children named. No cascading delete is ever performed here.
func DeleteHandler(w http.ResponseWriter, r *http.Request) {
	desc, ok := lookupResource(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	row, err := query.Get(r.Context(), db.Pool, desc, id)
	if err != nil {
		mapError(w, err)
		return
	}
	if row == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("%s/%d not found", desc.Name, id))
		return
	}

	report, err := guard.Check(r.Context(), desc.Name, id)
	if err != nil {
		mapError(w, err)
		return
	}
	if report.Blocked {
		mapError(w, &integrity.BlockedError{Resource: desc.Name, ID: id, Report: report})
		return
	}

	dbuilder := squirrel.DeleteBuilder{}.PlaceholderFormat(squirrel.Dollar).
		From(desc.Table).
		Where(squirrel.Eq{desc.IDCol(): id})
	sqlStr, args, err := dbuilder.ToSql()
	if err != nil {
		mapError(w, err)
		return
	}
	// FK constraints in the store remain the final authority; a dependent
	// row inserted between the check and this statement still fails here
	if _, err := db.Pool.Exec(r.Context(), sqlStr, args...); err != nil {
		mapError(w, fmt.Errorf("delete %s: %w", desc.Name, err))
		return
	}

	afterWrite(r, desc, id, row, "delete")
	writeJSON(w, http.StatusOK, map[string]any{"deleted": id})
}

// DependentsHandler serves GET /api/{resource}/{id}/dependents: the full
// diagnostic report listing every blocking edge, for "why can't I delete
// this" surfaces.
func DependentsHandler(w http.ResponseWriter, r *http.Request) {
	desc, ok := lookupResource(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	report, err := guard.Check(r.Context(), desc.Name, id)
	if err != nil {
		mapError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
