package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"kairos/internal/config"
	"kairos/internal/database"
	"kairos/internal/handler"
	"kairos/internal/imgproc"
	"kairos/internal/mw"
	"kairos/internal/pipeline"
	"kairos/internal/service"
	"kairos/internal/worker"
)

func main() {
	cfg := config.New()

	db, err := database.NewDB(cfg.DatabaseURI)
	if err != nil {
		slog.Error("failed to connect to DB", "error", err)
		os.Exit(1)
	}
	defer database.CloseDB(db)

	if err := database.InitSchema(db); err != nil {
		slog.Error("failed to init DB schema", "error", err)
		os.Exit(1)
	}

	// Services
	authSvc, err := service.NewAuthService(cfg.AccessPassword, cfg.JWTSecret)
	if err != nil {
		slog.Error("failed to init auth", "error", err)
		os.Exit(1)
	}
	historySvc := service.NewHistoryService(db)
	exportSvc := service.NewExportService()
	ocrClient := service.NewOCRClient(cfg.OCRAddress)

	// Ingestion pipeline
	analyzer := pipeline.NewAnalyzer(ocrClient, historySvc, imgproc.NewNormalizer(0))
	scheduler := pipeline.NewScheduler(analyzer)
	registry := handler.NewBatchRegistry()

	// Worker
	cleanupWorker := worker.NewCleanupWorker(historySvc)

	// Router
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Authorization", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Public routes
	r.Post("/api/session", handler.SessionHandler(authSvc))

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(mw.AuthMiddleware(cfg.JWTSecret))

		r.Post("/api/batch", handler.StartBatchHandler(scheduler, registry))
		r.Get("/api/batch/{id}", handler.BatchStatusHandler(registry))
		r.Post("/api/batch/{id}/cancel", handler.CancelBatchHandler(registry))
		r.Post("/api/batch/{id}/cancel/{index}", handler.CancelEntryHandler(registry))

		r.Get("/api/items/blank", handler.BlankItemHandler())
		r.Post("/api/items/reconcile", handler.ReconcileHandler())

		r.Get("/api/draft", handler.GetDraftHandler(historySvc))
		r.Put("/api/draft", handler.SaveDraftHandler(historySvc))
		r.Delete("/api/draft", handler.DeleteDraftHandler(historySvc))

		r.Post("/api/history", handler.ArchiveHandler(historySvc))
		r.Get("/api/history", handler.ListHistoryHandler(historySvc))
		r.Delete("/api/history", handler.ClearHistoryHandler(historySvc))
		r.Delete("/api/history/{id}", handler.DeleteHistoryHandler(historySvc))

		r.Post("/api/export/excel", handler.ExcelExportHandler(exportSvc))
	})

	srv := &http.Server{
		Addr:         cfg.RunAddress,
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	go cleanupWorker.Start(ctx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	slog.Info("starting server", "addr", cfg.RunAddress)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
		}
	}()

	<-quit
	slog.Info("shutting down...")

	cancel() // stop worker
	registry.CancelAll()

	ctxShut, cancelShut := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShut()

	if err := srv.Shutdown(ctxShut); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}

	slog.Info("server stopped")
}
