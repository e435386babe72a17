package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates the API router with all routes configured. The
// ingestion route carries the long write timeout; everything else is a
// quick read.
func NewRouter(h *Handlers, requestTimeout time.Duration) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy","service":"cosmiccomics"}`))
	})

	r.Group(func(quick chi.Router) {
		quick.Use(chimiddleware.Timeout(requestTimeout))
		quick.Get("/getStatus/{token}/{type}", h.GetStatus)
		quick.Get("/FirstImagesOfAll/{image}", h.ServeCover)
	})

	// Ingestion and batch fills run to completion inside the request.
	r.Post("/api/books/{token}/ingest", h.IngestBook)
	r.Post("/fillBlankImage", h.FillBlankImages)

	return r
}
