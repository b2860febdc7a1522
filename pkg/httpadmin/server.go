package httpadmin

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/citationengine/engine/pkg/store"
)

// Dependencies are the components whose reachability /readyz reports on.
type Dependencies struct {
	Progress  *store.ProgressStore
	ProgressClient *store.Client
	CacheDB   *sql.DB // may be nil: the verification cache is optional infrastructure
}

// NewServer builds the admin server's http.Handler: /healthz, /readyz, and
// /metrics, wrapped in request-ID, security-header, and CORS middleware.
func NewServer(deps Dependencies, log logr.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware(log))
	r.Use(SecurityHeaders())
	r.Use(CORSFromEnvironment())

	r.Get("/healthz", healthzHandler(deps))
	r.Get("/readyz", readyzHandler(deps))
	r.Handle("/metrics", promhttp.Handler())

	return r
}

type componentHealth struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type healthResponse struct {
	Status     string                      `json:"status"`
	Components map[string]componentHealth `json:"components"`
}

// healthzHandler reports liveness unconditionally: if the process can
// answer HTTP, it is alive. Component reachability is readyz's job.
func healthzHandler(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
	}
}

// readyzHandler checks the progress store and, if configured, the
// verification cache database, returning 503 if either is unreachable
// (spec §6's external collaborators: the progress store and job queue).
func readyzHandler(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		components := map[string]componentHealth{}
		ready := true

		if deps.ProgressClient != nil {
			if err := deps.ProgressClient.EnsureConnection(ctx); err != nil {
				components["progress_store"] = componentHealth{Status: "unreachable", Error: err.Error()}
				ready = false
			} else {
				components["progress_store"] = componentHealth{Status: "ok"}
			}
		}

		if deps.CacheDB != nil {
			if err := deps.CacheDB.PingContext(ctx); err != nil {
				components["verification_cache"] = componentHealth{Status: "unreachable", Error: err.Error()}
				ready = false
			} else {
				components["verification_cache"] = componentHealth{Status: "ok"}
			}
		}

		status := "ready"
		code := http.StatusOK
		if !ready {
			status = "not_ready"
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, healthResponse{Status: status, Components: components})
	}
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
