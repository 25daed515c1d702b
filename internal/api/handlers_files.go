package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"

	"github.com/dgallion1/pdfoutline/internal/converter"
	"github.com/dgallion1/pdfoutline/internal/joblog"
	"github.com/dgallion1/pdfoutline/internal/storage"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
			return
		}
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	if header.Size > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	filename := storage.SafeName(header.Filename)
	if !storage.HasExt(filename, "pdf", "zip") {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}
	if storage.HasExt(filename, "pdf") {
		if !converter.IsPDF(file) {
			jsonError(w, "file is not a PDF document", http.StatusBadRequest)
			return
		}
		if _, err := file.Seek(0, io.SeekStart); err != nil {
			jsonError(w, "failed to read file", http.StatusInternalServerError)
			return
		}
	}

	if active := s.orchestrator.Active(filename); active != nil {
		jsonError(w, fmt.Sprintf("%s is being processed (job %s)", filename, active.ID), http.StatusConflict)
		return
	}

	name, err := s.store.Save(storage.Uploads, filename, file)
	if err != nil {
		s.log.Error("save upload failed", "filename", filename, "error", err)
		jsonError(w, "failed to store file", http.StatusInternalServerError)
		return
	}
	resp := map[string]any{
		"name":        name,
		"size":        header.Size,
		"process_url": fmt.Sprintf("/conversion/raw/%s/process", name),
	}
	if storage.HasExt(name, "pdf") {
		if pages, err := converter.PageCount(s.store.Path(storage.Uploads, name)); err == nil {
			resp["pages"] = pages
		} else {
			s.log.Warn("page count unavailable", "filename", name, "error", err)
		}
	}
	s.log.Info("file uploaded", "filename", name, "size", header.Size)

	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleList(area storage.Area) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		files, err := s.store.List(area)
		if err != nil {
			jsonError(w, "failed to list files: "+err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"files": files})
	}
}

func (s *Server) handleDownload(area storage.Area) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := storage.SafeName(chi.URLParam(r, "fname"))
		f, err := s.store.Open(area, name)
		if errors.Is(err, storage.ErrNotFound) {
			jsonError(w, "file not found", http.StatusNotFound)
			return
		}
		if err != nil {
			jsonError(w, "failed to open file", http.StatusInternalServerError)
			return
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil || !info.Mode().IsRegular() {
			jsonError(w, "file not found", http.StatusNotFound)
			return
		}
		http.ServeContent(w, r, name, info.ModTime(), f)
	}
}

// handleDeleteUpload removes an upload together with its processing log.
func (s *Server) handleDeleteUpload(w http.ResponseWriter, r *http.Request) {
	name := storage.SafeName(chi.URLParam(r, "fname"))
	if active := s.orchestrator.Active(name); active != nil {
		jsonError(w, fmt.Sprintf("%s is being processed (job %s)", name, active.ID), http.StatusConflict)
		return
	}
	if !s.deleteFile(w, storage.Uploads, name) {
		return
	}
	if err := joblog.Clear(s.store.LogPath(name)); err != nil {
		s.log.Warn("clear log failed", "filename", name, "error", err)
	}
	writeJSON(w, http.StatusOK, map[string]string{"deleted": name})
}

func (s *Server) handleDeleteProcessed(w http.ResponseWriter, r *http.Request) {
	name := storage.SafeName(chi.URLParam(r, "fname"))
	unlock := s.orchestrator.Locks().Lock(s.store.Path(storage.Processed, name))
	ok := s.deleteFile(w, storage.Processed, name)
	unlock()
	if ok {
		writeJSON(w, http.StatusOK, map[string]string{"deleted": name})
	}
}

func (s *Server) deleteFile(w http.ResponseWriter, area storage.Area, name string) bool {
	err := s.store.Delete(area, name)
	if errors.Is(err, storage.ErrNotFound) {
		jsonError(w, "file not found", http.StatusNotFound)
		return false
	}
	if err != nil {
		s.log.Error("delete failed", "area", area, "filename", name, "error", err)
		jsonError(w, "failed to delete file", http.StatusInternalServerError)
		return false
	}
	s.log.Info("file deleted", "area", area, "filename", name)
	return true
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
