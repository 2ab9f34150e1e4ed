package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"herdapi/internal/db"
	"herdapi/internal/logger"
	"herdapi/internal/query"
)

// ListHandler serves GET /api/{resource}: the generic filtered, searched,
// sorted, paginated listing, with an ETag over the response content and a
// short-TTL body cache for repeat reads.
func ListHandler(w http.ResponseWriter, r *http.Request) {
	desc, ok := lookupResource(w, r)
	if !ok {
		return
	}

	req, err := query.ParseRequest(r.URL.Query(), desc)
	if err != nil {
		mapError(w, err)
		return
	}

	logger.Info("request", logger.Fields{
		"endpoint": "/api/" + desc.Name,
		"query":    r.URL.RawQuery,
	})

	if req.Export == query.ExportCSV {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", desc.Name+".csv"))
		if err := query.ExportCSVTo(r.Context(), db.Pool, desc, req, w); err != nil {
			logger.Error("export_failed", logger.Fields{
				"resource": desc.Name,
				"error":    err.Error(),
			})
		}
		return
	}

	key := listCacheKey(desc.Name, r.URL.RawQuery)
	body, err := store.GetOrCompute(r.Context(), key, listCacheTTL, func(ctx context.Context) ([]byte, error) {
		result, err := query.List(ctx, db.Pool, desc, req)
		if err != nil {
			return nil, err
		}
		return json.Marshal(result)
	})
	if err != nil {
		mapError(w, err)
		return
	}

	etag := etagFor(body)
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(body); err != nil {
		logger.Error("write_response_failed", logger.Fields{"error": err.Error()})
	}
}

// GetHandler serves GET /api/{resource}/{id}.
func GetHandler(w http.ResponseWriter, r *http.Request) {
	desc, ok := lookupResource(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	item, err := query.Get(r.Context(), db.Pool, desc, id)
	if err != nil {
		mapError(w, err)
		return
	}
	if item == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("%s/%d not found", desc.Name, id))
		return
	}
	writeJSON(w, http.StatusOK, item)
}
