// Package server sets up the HTTP server, router, and all route definitions.
//
// This package is the composition root: every dependency is built from
// config.Config in New and handed down, so no other package constructs its
// own collaborators.
//
//	config → sqlite.Connector → UserStore / PostStore
//	       → PasswordService, TokenService
//	       → AuthService, PostService, UserService
//	       → handlers → chi routes
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sakif/linkup/internal/auth"
	"github.com/sakif/linkup/internal/config"
	"github.com/sakif/linkup/internal/handler"
	"github.com/sakif/linkup/internal/metrics"
	"github.com/sakif/linkup/internal/middleware"
	sqliteRepo "github.com/sakif/linkup/internal/repository/sqlite"
	"github.com/sakif/linkup/internal/service"
	"github.com/sakif/linkup/internal/upload"
)

// Server represents the HTTP server and all its dependencies.
//
// The Server owns the database connector. Start closes it after the HTTP
// server has drained; tests that never call Start use Close.
type Server struct {
	router    *chi.Mux
	config    *config.Config
	logger    *slog.Logger
	connector *sqliteRepo.Connector
	metrics   *metrics.Metrics
	storage   upload.Storage
}

// New builds every dependency and the route table.
//
// The database is opened and migrated here rather than on the first request,
// so a bad DB_PATH fails the process at startup.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	storage, err := newStorage(ctx, cfg.Upload)
	if err != nil {
		return nil, fmt.Errorf("creating upload storage: %w", err)
	}

	connector := sqliteRepo.NewConnector(cfg.Database.Path)
	db, err := connector.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router:    chi.NewRouter(),
		config:    cfg,
		logger:    logger,
		connector: connector,
		metrics:   metrics.NewMetrics(prometheus.NewRegistry()),
		storage:   storage,
	}

	s.setupRoutes(db, tokens)
	return s, nil
}

func newStorage(ctx context.Context, cfg config.UploadConfig) (upload.Storage, error) {
	if cfg.Backend == upload.BackendS3 {
		return upload.NewS3Storage(ctx, cfg.S3)
	}
	return upload.NewDiskStorage(cfg.Dir)
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	POST   /api/auth/register        → create account
//	POST   /api/auth/login           → issue token
//	GET    /api/auth/me              → current user            [auth]
//	GET    /api/posts                → feed                    [optional auth]
//	POST   /api/posts                → create post             [auth]
//	PUT    /api/posts/{id}           → edit post               [auth, owner]
//	DELETE /api/posts/{id}           → delete post             [auth, owner]
//	POST   /api/posts/{id}/like      → toggle like             [auth]
//	POST   /api/posts/{id}/comments  → add comment             [auth]
//	GET    /api/users/{id}           → profile                 [optional auth]
//	POST   /api/upload               → store an image          [auth]
//	GET    /api/health, /health, /api/health/ready, /metrics, /uploads/*
//
// MIDDLEWARE ORDER MATTERS:
// RequestID runs first so every later log line can carry the id. Logger and
// Metrics wrap Recoverer so a recovered panic is still logged and counted as
// a 500.
func (s *Server) setupRoutes(db *sqliteRepo.DB, tokens *auth.TokenService) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.Metrics(s.metrics))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(chimiddleware.Timeout(s.config.Server.RequestTimeout))

	users, posts := db.Users(), db.Posts()
	passwords := auth.NewPasswordServiceWithCost(s.config.Auth.BcryptCost)

	authService := service.NewAuthService(users, tokens, passwords, s.metrics, s.logger)
	postService := service.NewPostService(posts, s.metrics, s.logger)
	userService := service.NewUserService(users, posts, s.logger)

	authHandler := handler.NewAuthHandler(authService, s.logger)
	postHandler := handler.NewPostHandler(postService, s.logger)
	userHandler := handler.NewUserHandler(userService, s.logger)
	uploadHandler := handler.NewUploadHandler(s.storage, s.config.Upload.MaxBytes, s.metrics, s.logger)
	healthHandler := handler.NewHealthHandler(s.ready, s.logger)

	requireAuth := auth.RequireAuth(tokens)
	optionalAuth := auth.OptionalAuth(tokens)

	s.router.Get("/health", healthHandler.HandlePing)
	s.router.Handle("/metrics", s.metrics.Handler())

	if disk, ok := s.storage.(*upload.DiskStorage); ok {
		fileServer := http.StripPrefix(upload.URLPrefix, http.FileServer(http.Dir(disk.Dir())))
		s.router.Handle(upload.URLPrefix+"*", noDirListing(fileServer))
	}

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", healthHandler.HandleHealth)
		r.Get("/health/ready", healthHandler.HandleReady)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.HandleRegister)
			r.Post("/login", authHandler.HandleLogin)
			r.With(requireAuth).Get("/me", authHandler.HandleMe)
		})

		r.Route("/posts", func(r chi.Router) {
			r.With(optionalAuth).Get("/", postHandler.HandleFeed)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/", postHandler.HandleCreate)
				r.Put("/{id}", postHandler.HandleUpdate)
				r.Delete("/{id}", postHandler.HandleDelete)
				r.Post("/{id}/like", postHandler.HandleLike)
				r.Post("/{id}/comments", postHandler.HandleComment)
			})
		})

		r.With(optionalAuth).Get("/users/{id}", userHandler.HandleProfile)
		r.With(requireAuth).Post("/upload", uploadHandler.HandleUpload)
	})
}

// ready backs the readiness probe. Acquire is a cache hit after New, so
// this is a ping in practice.
func (s *Server) ready(ctx context.Context) error {
	db, err := s.connector.Acquire(ctx)
	if err != nil {
		return err
	}
	return db.Ping(ctx)
}

// noDirListing answers 404 for directory paths so the upload directory
// cannot be enumerated.
func noDirListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Handler exposes the router, e.g. for httptest.NewServer.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database.
func (s *Server) Close() error {
	return s.connector.Close()
}

// Start starts the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
//  1. Stop accepting new HTTP connections
//  2. Wait for in-flight requests to finish (SHUTDOWN_TIMEOUT)
//  3. Close the database (flushes WAL, releases the file lock)
func (s *Server) Start() error {
	defer s.Close()

	srv := &http.Server{
		Addr:              s.config.Server.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       s.config.Server.RequestTimeout,
		WriteTimeout:      s.config.Server.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.String("addr", srv.Addr),
			slog.String("database", s.config.Database.Path),
			slog.String("uploads", s.storage.Backend()),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
