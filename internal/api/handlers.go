// Package api provides the HTTP collaborator surface of the server:
// ingestion, progress, cover filling, and cover serving.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/Nytuo/cosmiccomics-server/internal/covers"
	"github.com/Nytuo/cosmiccomics-server/internal/domain"
	"github.com/Nytuo/cosmiccomics-server/internal/ingest"
	"github.com/Nytuo/cosmiccomics-server/internal/library"
	"github.com/Nytuo/cosmiccomics-server/internal/progress"
)

// Handlers bundles the pipeline entry points the HTTP surface exposes.
type Handlers struct {
	logger      zerolog.Logger
	basePath    string
	coordinator *ingest.Coordinator
	reporter    *progress.Reporter
	filler      *covers.Filler
}

// NewHandlers creates the handler set.
func NewHandlers(logger zerolog.Logger, basePath string, coordinator *ingest.Coordinator, reporter *progress.Reporter, filler *covers.Filler) *Handlers {
	return &Handlers{
		logger:      logger,
		basePath:    basePath,
		coordinator: coordinator,
		reporter:    reporter,
		filler:      filler,
	}
}

// IngestRequest is the body of POST /api/books/{token}/ingest.
type IngestRequest struct {
	Path string `json:"path"`
}

// IngestBook handles POST /api/books/{token}/ingest. The ingestion runs
// to completion before the response is written; collaborators poll
// GetStatus for progress in the meantime.
func (h *Handlers) IngestBook(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Path == "" {
		h.writeError(w, http.StatusBadRequest, "path is required")
		return
	}

	workDir := library.WorkingDir(h.basePath, token)
	if err := h.coordinator.Ingest(r.Context(), req.Path, workDir, token); err != nil {
		h.logger.Error().Err(err).Str("container", req.Path).Msg("ingestion failed")
		h.writeError(w, statusFor(err), err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetStatus handles GET /getStatus/{token}/{type}. An unknown key
// yields an empty descriptor, matching what the web client expects.
func (h *Handlers) GetStatus(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	opTag := chi.URLParam(r, "type")

	status := h.reporter.Get(token)[opTag]
	h.writeJSON(w, http.StatusOK, status)
}

// FillBlankImages handles POST /fillBlankImage.
func (h *Handlers) FillBlankImages(w http.ResponseWriter, r *http.Request) {
	if err := h.filler.Fill(r.Context()); err != nil {
		h.logger.Error().Err(err).Msg("cover fill pass failed")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ServeCover handles GET /FirstImagesOfAll/{image}.
func (h *Handlers) ServeCover(w http.ResponseWriter, r *http.Request) {
	image := chi.URLParam(r, "image")
	if image == "" || strings.Contains(image, "/") || strings.Contains(image, "..") {
		h.writeError(w, http.StatusBadRequest, "invalid image name")
		return
	}
	http.ServeFile(w, r, filepath.Join(library.CoverDir(h.basePath), image))
}

// statusFor maps the pipeline error taxonomy to HTTP statuses. Only
// the unsupported-container kind gets its own status; everything else
// is a server-side failure.
func statusFor(err error) int {
	if errors.Is(err, domain.ErrUnsupportedContainer) {
		return http.StatusNotAcceptable
	}
	return http.StatusInternalServerError
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error().Err(err).Msg("write response failed")
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
