package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/quorumlabs/quorum/internal/api/handlers"
	mw "github.com/quorumlabs/quorum/internal/api/middleware"
	"github.com/quorumlabs/quorum/internal/buildconfig"
	"github.com/quorumlabs/quorum/internal/config"
	"github.com/quorumlabs/quorum/internal/service"
	"github.com/quorumlabs/quorum/internal/store"
)

// App holds the router and the research service.
type App struct {
	Router   *chi.Mux
	Research *service.ResearchService
}

func NewApp(db *pgxpool.Pool, logger *zap.Logger) (*App, error) {
	researchSvc, err := service.Bootstrap(db, logger)
	if err != nil {
		return nil, err
	}

	evidenceStore := store.NewEvidenceStore(db, config.EmbeddingDim())

	researchHandler := handlers.NewResearchHandler(researchSvc, logger)
	memoryHandler := handlers.NewMemoryHandler(evidenceStore, logger)

	r := chi.NewRouter()

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	r.Use(mw.RateLimit(config.RateLimitRPS(), config.RateLimitBurst()))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", mw.RequestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/health", healthHandler(db))

	r.Route("/v1", func(r chi.Router) {
		r.Post("/research", researchHandler.Run)
		r.Get("/memory/stats", memoryHandler.Stats)
	})

	return &App{Router: r, Research: researchSvc}, nil
}

func healthHandler(db *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := db.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": err.Error()})
			return
		}

		body := buildconfig.VersionInfo()
		body["status"] = "ok"
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(body)
	}
}
