// ABOUTME: HTTP server exposing the pipeline engine over a REST API with chi routing.
// ABOUTME: Maps the engine's error taxonomy onto HTTP status codes; all responses are JSON.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jkalend/custom-cicd/engine"
)

// Server exposes the engine's operations over HTTP.
type Server struct {
	engine *engine.Engine
	router chi.Router
}

// NewServer builds a Server around the given engine and sets up routing.
func NewServer(eng *engine.Engine) *Server {
	s := &Server{engine: eng}
	s.router = s.buildRouter()
	return s
}

// ServeHTTP delegates to the chi router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Route("/pipelines", func(r chi.Router) {
			r.Get("/", s.handleListPipelines)
			r.Post("/", s.handleCreatePipeline)
			r.Post("/run", s.handleCreateAndRun)
			r.Route("/{pipelineID}", func(r chi.Router) {
				r.Get("/", s.handleGetPipeline)
				r.Delete("/", s.handleDeletePipeline)
				r.Post("/run", s.handleRunPipeline)
				r.Post("/cancel", s.handleCancelPipeline)
			})
		})
		r.Route("/runs", func(r chi.Router) {
			r.Get("/", s.handleListRuns)
			r.Route("/{runID}", func(r chi.Router) {
				r.Get("/", s.handleGetRun)
				r.Delete("/", s.handleDeleteRun)
				r.Post("/cancel", s.handleCancelRun)
			})
		})
	})

	return r
}

// writeJSON encodes v as JSON with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps an engine error onto its HTTP status and a JSON error body.
func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, errorStatus(err), map[string]string{"error": err.Error()})
}

// errorStatus translates the engine's error taxonomy into HTTP status codes.
// Validation errors are 400, unknown identities 404, state conflicts 409,
// everything else a 500.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, engine.ErrInvalidDefinition):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrPipelineBusy),
		errors.Is(err, engine.ErrRunBusy),
		errors.Is(err, engine.ErrNotCancellable):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
