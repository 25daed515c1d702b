package api

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/dgallion1/pdfoutline/internal/storage"
	"github.com/dgallion1/pdfoutline/internal/toc"
	"github.com/go-chi/chi/v5"
)

// handleOutline returns the heading tree of a processed file.
func (s *Server) handleOutline(w http.ResponseWriter, r *http.Request) {
	name, data, ok := s.readProcessed(w, r)
	if !ok {
		return
	}
	tree, err := toc.FromHTML(bytes.NewReader(data), name)
	if err != nil {
		jsonError(w, "failed to parse HTML: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"title":    tree.Title,
		"headings": tree.Count(),
		"sections": tree.Children,
	})
}

// handleMarkdown exports a processed file as Markdown.
func (s *Server) handleMarkdown(w http.ResponseWriter, r *http.Request) {
	_, data, ok := s.readProcessed(w, r)
	if !ok {
		return
	}
	md, err := toc.Markdown(data)
	if err != nil {
		jsonError(w, "markdown conversion failed: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	io.WriteString(w, md)
}

// readProcessed loads an HTML file from the processed area while holding its
// path lock.
func (s *Server) readProcessed(w http.ResponseWriter, r *http.Request) (string, []byte, bool) {
	name := storage.SafeName(chi.URLParam(r, "fname"))
	if !storage.HasExt(name, "html", "htm") {
		jsonError(w, "not an HTML file", http.StatusBadRequest)
		return "", nil, false
	}

	unlock := s.orchestrator.Locks().Lock(s.store.Path(storage.Processed, name))
	defer unlock()

	f, err := s.store.Open(storage.Processed, name)
	if errors.Is(err, storage.ErrNotFound) {
		jsonError(w, "file not found", http.StatusNotFound)
		return "", nil, false
	}
	if err != nil {
		jsonError(w, "failed to open file", http.StatusInternalServerError)
		return "", nil, false
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return "", nil, false
	}
	return name, data, true
}
