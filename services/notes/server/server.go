package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	config "github.com/echonotes/backend/config/notes"
	"github.com/echonotes/backend/services/notes/usecase"
)

type Server struct {
	cfg     *config.Config
	log     *slog.Logger
	handler *Handler
}

func New(cfg *config.Config, log *slog.Logger, uc usecase.Usecase) *Server {
	return &Server{
		cfg:     cfg,
		log:     log,
		handler: NewHandler(uc, cfg, log),
	}
}

// Router builds the HTTP surface; tests drive it directly.
func (s *Server) Router() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.URLFormat)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Route("/api/v1", func(apiRouter chi.Router) {
		apiRouter.Get("/health", s.handler.HealthCheck)
		apiRouter.Route("/notes", func(notesRouter chi.Router) {
			notesRouter.Post("/process", s.handler.ProcessAudio)
			notesRouter.Post("/", s.handler.SaveNote)
			notesRouter.Get("/", s.handler.ListNotes)
			notesRouter.Delete("/{id}", s.handler.DeleteNote)
		})
	})

	return router
}

func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute, // pipeline calls two AI providers per request
		IdleTimeout:  60 * time.Second,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.log.Info("notes service started", slog.String("address", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		s.log.Info("start shutdown", slog.String("signal", sig.String()))
	case <-ctx.Done():
		s.log.Info("closing server due to context cancellation")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.log.Error("graceful shutdown failed", slog.String("error", err.Error()))
		srv.Close()
		return fmt.Errorf("failed to gracefully shutdown server: %w", err)
	}

	s.log.Info("server stopped cleanly")
	return nil
}
