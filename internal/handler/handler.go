package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"herdapi/internal/cache"
	"herdapi/internal/integrity"
	"herdapi/internal/logger"
	"herdapi/internal/query"
	"herdapi/internal/resource"
)

// Package-level wiring, set once from router.InitRoutes before serving.
var (
	guard        *integrity.Guard
	store        cache.Store
	listCacheTTL time.Duration
)

func Init(g *integrity.Guard, s cache.Store, listTTL time.Duration) {
	guard = g
	store = s
	listCacheTTL = listTTL
}

func lookupResource(w http.ResponseWriter, r *http.Request) (*resource.Descriptor, bool) {
	name := r.PathValue("resource")
	desc, ok := resource.Lookup(name)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown resource: "+name)
		return nil, false
	}
	return desc, true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		writeError(w, http.StatusBadRequest, "id must be a positive integer")
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("write_response_failed", logger.Fields{"error": err.Error()})
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}

// mapError translates engine errors onto the HTTP surface: validation
// problems are the caller's fault, blocked deletes carry the report,
// anything else is a store failure.
func mapError(w http.ResponseWriter, err error) {
	var verr *query.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": verr.Error(),
			"field": verr.Field,
		})
		return
	}
	var berr *integrity.BlockedError
	if errors.As(err, &berr) {
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":          berr.Error(),
			"blocked":        true,
			"blocking_edges": berr.Report.BlockingEdges,
		})
		return
	}
	logger.Error("store_error", logger.Fields{"error": err.Error()})
	writeError(w, http.StatusInternalServerError, "query failed")
}
