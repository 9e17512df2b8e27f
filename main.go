package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"stitchery/internal/config"
	"stitchery/internal/database"
	"stitchery/internal/handlers"
	"stitchery/internal/httplog"
	authmw "stitchery/internal/middleware"
	"stitchery/internal/repository"
	"stitchery/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.AppEnv)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("open database", zap.Error(err))
	}
	defer db.Close()

	userRepo := repository.NewUserRepository(db)
	licenseRepo := repository.NewLicenseRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	tagRepo := repository.NewTagRepository(db)
	schemeRepo := repository.NewSchemeRepository(db)
	favRepo := repository.NewFavoriteRepository(db)
	likeRepo := repository.NewLikeRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	media := storage.NewMediaStore(cfg.MediaPath)

	authHandler := handlers.NewAuthHandler(userRepo, cfg.JWTSecret, logger)
	userHandler := handlers.NewUserHandler(userRepo, schemeRepo, logger)
	licenseHandler := handlers.NewLicenseHandler(licenseRepo, logger)
	categoryHandler := handlers.NewCategoryHandler(categoryRepo, logger)
	tagHandler := handlers.NewTagHandler(tagRepo, logger)
	schemeHandler := handlers.NewSchemeHandler(
		schemeRepo, licenseRepo, categoryRepo, favRepo, likeRepo,
		media, cfg.DefaultLicenseShortName, logger,
	)
	commentHandler := handlers.NewCommentHandler(commentRepo, schemeRepo, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	// Uploaded media (public)
	r.Handle("/media/*", http.StripPrefix("/media/", http.FileServer(http.Dir(cfg.MediaPath))))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)

		// Reference data: open reads, authenticated writes.
		r.Get("/licenses", licenseHandler.List)
		r.Get("/licenses/{id}", licenseHandler.Retrieve)
		r.Get("/categories", categoryHandler.List)
		r.Get("/categories/{id}", categoryHandler.Retrieve)
		r.Get("/tags", tagHandler.List)
		r.Get("/tags/{id}", tagHandler.Retrieve)
		r.Group(func(r chi.Router) {
			r.Use(authmw.RequireAuth(cfg.JWTSecret))

			r.Post("/licenses", licenseHandler.Create)
			r.Put("/licenses/{id}", licenseHandler.Update)
			r.Delete("/licenses/{id}", licenseHandler.Delete)
			r.Post("/categories", categoryHandler.Create)
			r.Put("/categories/{id}", categoryHandler.Update)
			r.Delete("/categories/{id}", categoryHandler.Delete)
			r.Post("/tags", tagHandler.Create)
			r.Put("/tags/{id}", tagHandler.Update)
			r.Delete("/tags/{id}", tagHandler.Delete)
		})

		// Catalog reads work anonymously but honor a token when present
		// so private access and per-viewer flags resolve.
		r.Group(func(r chi.Router) {
			r.Use(authmw.OptionalAuth(cfg.JWTSecret))

			r.Get("/schemes", schemeHandler.List)
			r.Get("/schemes/{id}", schemeHandler.Retrieve)
			r.Get("/schemes/{id}/download_file/{fileId}", schemeHandler.DownloadFile)
			r.Get("/schemes/{id}/comments", commentHandler.List)
			r.Get("/users/{username}", userHandler.Retrieve)
		})

		r.Group(func(r chi.Router) {
			r.Use(authmw.RequireAuth(cfg.JWTSecret))

			r.Post("/schemes", schemeHandler.Create)
			r.Put("/schemes/{id}", schemeHandler.Update)
			r.Patch("/schemes/{id}", schemeHandler.Update)
			r.Delete("/schemes/{id}", schemeHandler.Delete)
			r.Post("/schemes/{id}/favorite", schemeHandler.ToggleFavorite)
			r.Post("/schemes/{id}/like", schemeHandler.ToggleLike)
			r.Post("/schemes/{id}/comments", commentHandler.Create)
			r.Get("/schemes/my", schemeHandler.My)
			r.Get("/schemes/favorited", schemeHandler.Favorited)

			r.Get("/users/me", userHandler.Me)
			r.Patch("/users/me", userHandler.UpdateMe)
		})
	})

	addr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown", zap.Error(err))
		}
	}()

	logger.Info("server starting", zap.String("addr", addr), zap.String("media_path", cfg.MediaPath))
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func newLogger(appEnv string) (*zap.Logger, error) {
	if appEnv == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
