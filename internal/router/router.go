package router

import (
	"net/http"

	"herdapi/internal/cache"
	"herdapi/internal/config"
	"herdapi/internal/db"
	"herdapi/internal/handler"
	"herdapi/internal/integrity"
	"herdapi/internal/logger"
	"herdapi/internal/resource"

	"github.com/google/uuid"
)

// InitRoutes wires the guard, the cache store and the generic resource
// endpoints onto a mux.
func InitRoutes(cfg *config.Config) (*http.ServeMux, error) {
	var store cache.Store
	if cfg.Redis.Enabled {
		store = cache.NewRedis(db.RDB, "herdapi:")
	} else {
		store = cache.NewMemory()
	}

	guard := integrity.NewGuard(db.Pool, resource.Deps, store, cfg.Guard.CacheTTL)
	handler.Init(guard, store, cfg.ListCacheTTL)

	mux := http.NewServeMux()
	wrap := func(h http.HandlerFunc) http.HandlerFunc {
		return withCORS(cfg.CORS.AllowOrigin, cfg.CORS.AllowCredentials, withLogging(h))
	}

	mux.HandleFunc("GET /api/timeline", wrap(handler.TimelineHandler))
	mux.HandleFunc("GET /api/{resource}", wrap(handler.ListHandler))
	mux.HandleFunc("POST /api/{resource}", wrap(handler.CreateHandler))
	mux.HandleFunc("GET /api/{resource}/{id}", wrap(handler.GetHandler))
	mux.HandleFunc("PUT /api/{resource}/{id}", wrap(handler.UpdateHandler))
	mux.HandleFunc("DELETE /api/{resource}/{id}", wrap(handler.DeleteHandler))
	mux.HandleFunc("GET /api/{resource}/{id}/dependents", wrap(handler.DependentsHandler))

	return mux, nil
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func withLogging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		w.Header().Set("X-Request-Id", requestID)

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next(sw, r)

		fields := logger.Fields{
			"request_id": requestID,
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     sw.status,
		}
		switch {
		case sw.status >= 500:
			logger.Error("response", fields)
		case sw.status >= 400:
			logger.Warn("response", fields)
		default:
			logger.Info("response", fields)
		}
	}
}
