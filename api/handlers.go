// ABOUTME: HTTP handlers for pipeline and run operations plus the health probe.
// ABOUTME: Thin JSON decode/encode around engine calls; no business logic lives here.
package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/jkalend/custom-cicd/engine"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.HealthCheck())
}

func (s *Server) handleListPipelines(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.ListPipelines())
}

func (s *Server) handleCreatePipeline(w http.ResponseWriter, r *http.Request) {
	var cfg engine.PipelineConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	p, err := s.engine.CreatePipeline(cfg)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"pipeline_id": p.ID,
		"status":      "created",
	})
}

func (s *Server) handleCreateAndRun(w http.ResponseWriter, r *http.Request) {
	var cfg engine.PipelineConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	p, run, err := s.engine.CreateAndRun(cfg, false)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{
		"pipeline_id": p.ID,
		"run_id":      run.ID,
		"status":      "running",
	})
}

func (s *Server) handleGetPipeline(w http.ResponseWriter, r *http.Request) {
	status, err := s.engine.GetPipeline(chi.URLParam(r, "pipelineID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleDeletePipeline(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.DeletePipeline(chi.URLParam(r, "pipelineID")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleRunPipeline(w http.ResponseWriter, r *http.Request) {
	background := true
	if v := r.URL.Query().Get("background"); v != "" {
		background = strings.EqualFold(v, "true")
	}

	run, err := s.engine.RunPipeline(chi.URLParam(r, "pipelineID"), !background)
	if err != nil {
		writeError(w, err)
		return
	}

	if background {
		writeJSON(w, http.StatusAccepted, map[string]string{
			"run_id": run.ID,
			"status": "running",
		})
		return
	}
	// Foreground: the run is terminal by the time we respond.
	writeJSON(w, http.StatusOK, map[string]string{
		"run_id": run.ID,
		"status": string(run.Status),
	})
}

func (s *Server) handleCancelPipeline(w http.ResponseWriter, r *http.Request) {
	n, err := s.engine.CancelPipeline(chi.URLParam(r, "pipelineID"))
	if err != nil {
		writeError(w, err)
		return
	}
	if n == 0 {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "no active runs to cancel"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "cancelled",
		"cancelled_runs": n,
	})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.ListRuns(r.URL.Query().Get("pipeline_id")))
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.engine.GetRun(chi.URLParam(r, "runID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.DeleteRun(chi.URLParam(r, "runID")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleCancelRun(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.CancelRun(chi.URLParam(r, "runID")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}
