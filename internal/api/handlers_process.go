package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dgallion1/pdfoutline/internal/joblog"
	"github.com/dgallion1/pdfoutline/internal/pipeline"
	"github.com/dgallion1/pdfoutline/internal/storage"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	name := storage.SafeName(chi.URLParam(r, "fname"))
	if !s.store.Exists(storage.Uploads, name) {
		jsonError(w, "file not found", http.StatusNotFound)
		return
	}

	job := pipeline.NewJob(name, s.store.LogPath(name))
	if err := s.orchestrator.Submit(job); err != nil {
		switch {
		case errors.Is(err, pipeline.ErrAlreadyRunning):
			jsonError(w, err.Error(), http.StatusConflict)
		default:
			jsonError(w, err.Error(), http.StatusServiceUnavailable)
		}
		return
	}
	s.log.Info("job queued", "job_id", job.ID, "filename", name)

	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":  job.ID,
		"status":  job.Snapshot().Status,
		"log_url": fmt.Sprintf("/conversion/raw/%s/log", name),
	})
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

func (s *Server) handleLog(w http.ResponseWriter, r *http.Request) {
	name := storage.SafeName(chi.URLParam(r, "fname"))
	log, err := joblog.Read(s.store.LogPath(name))
	if errors.Is(err, joblog.ErrNoLog) {
		jsonError(w, "log not created yet", http.StatusNotFound)
		return
	}
	if err != nil {
		jsonError(w, "failed to read log: "+err.Error(), http.StatusInternalServerError)
		return
	}

	resp := map[string]any{
		"filename": name,
		"lines":    log.Lines,
		"done":     log.Done,
	}
	if job := s.orchestrator.Active(name); job != nil {
		resp["job"] = job.Snapshot()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleClearLog(w http.ResponseWriter, r *http.Request) {
	name := storage.SafeName(chi.URLParam(r, "fname"))
	if active := s.orchestrator.Active(name); active != nil {
		jsonError(w, fmt.Sprintf("%s is being processed (job %s)", name, active.ID), http.StatusConflict)
		return
	}
	if err := joblog.Clear(s.store.LogPath(name)); err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"cleared": name})
}
