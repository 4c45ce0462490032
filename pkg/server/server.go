// Package server exposes the query surface over HTTP.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ipeadata-rag/serieshub/pkg/config"
	"github.com/ipeadata-rag/serieshub/pkg/ipea"
	"github.com/ipeadata-rag/serieshub/pkg/rag"
)

// EngineAPI is the retrieval engine surface the handlers consume.
type EngineAPI interface {
	LocateSeries(ctx context.Context, question string, k int) []rag.SeriesCandidate
	Answer(ctx context.Context, req rag.AnswerRequest) (*rag.AnswerResult, error)
}

// SeriesLister enumerates series codes present in the vector index.
type SeriesLister interface {
	IndexedSeries(ctx context.Context) ([]string, error)
}

// Catalog is the metadata cache surface: name enrichment on the hot
// path, rebuild on the admin path.
type Catalog interface {
	Get(code string) (ipea.Metadata, bool)
	DisplayName(code string) string
	Rebuild(ctx context.Context) error
}

// MetadataSearcher searches the upstream catalog by keyword.
type MetadataSearcher interface {
	SearchMetadata(ctx context.Context, keyword string, top int) ([]ipea.Metadata, error)
}

type Server struct {
	cfg      *config.ServerConfig
	engine   EngineAPI
	lister   SeriesLister
	catalog  Catalog
	searcher MetadataSearcher
	httpSrv  *http.Server
}

func New(cfg *config.ServerConfig, engine EngineAPI, lister SeriesLister, catalog Catalog, searcher MetadataSearcher) *Server {
	s := &Server{
		cfg:      cfg,
		engine:   engine,
		lister:   lister,
		catalog:  catalog,
		searcher: searcher,
	}
	s.httpSrv = &http.Server{
		Addr:    cfg.Address,
		Handler: s.Routes(),
	}
	return s
}

// Routes builds the router. Exposed for tests.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(metricsMiddleware)
	r.Use(middleware.Timeout(120 * time.Second))

	if s.cfg.EnableCORS {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
	}

	r.Get("/health", s.handleHealth)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/series:locate", s.handleLocate)
		r.Post("/query", s.handleQuery)
		r.Get("/series", s.handleListSeries)
		r.Get("/series:search", s.handleSearchSeries)
		r.Post("/admin/metadata:rebuild", s.handleRebuildMetadata)
	})

	return r
}

// Start serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "address", s.cfg.Address)
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	slog.Info("http server shutting down")
	return s.httpSrv.Shutdown(shutdownCtx)
}

// requestLogger logs one line per request through slog.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		slog.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
		)
	})
}
