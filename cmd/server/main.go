package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"mercatorio/internal/artifact"
	"mercatorio/internal/certificate"
	"mercatorio/internal/creditor"
	"mercatorio/internal/document"
	"mercatorio/internal/platform/config"
	"mercatorio/internal/platform/httpserver"
	"mercatorio/internal/platform/logger"
	"mercatorio/internal/platform/metrics"
	"mercatorio/internal/registry"
	"mercatorio/internal/revalidation"
	"mercatorio/internal/store"
	transporthttp "mercatorio/internal/transport/http"
)

func main() {
	// .env is optional; real deployments configure through the environment.
	_ = godotenv.Load()

	log := logger.New()
	cfg := config.FromEnv()
	m := metrics.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, cleanup, err := openRepository(ctx, cfg)
	if err != nil {
		log.Error("failed to open repository", "error", err.Error())
		os.Exit(1)
	}
	defer cleanup()

	artifacts := artifact.NewStore(cfg.UploadDir)
	registryClient := registry.NewHTTPClient(cfg.RegistryBaseURL, m)

	var uploadOpts []document.Option
	uploadOpts = append(uploadOpts, document.WithMaxUploadBytes(cfg.MaxUploadBytes))
	if cfg.CleanupOrphans {
		uploadOpts = append(uploadOpts, document.WithOrphanCleanup())
	}
	var certOpts []certificate.Option
	certOpts = append(certOpts, certificate.WithMaxUploadBytes(cfg.MaxUploadBytes))
	if cfg.CleanupOrphans {
		certOpts = append(certOpts, certificate.WithOrphanCleanup())
	}

	creditorSvc := creditor.NewService(repo, log, m)
	documentSvc := document.NewService(repo, artifacts, log, m, uploadOpts...)
	certificateSvc := certificate.NewService(repo, artifacts, registryClient, log, m, certOpts...)

	router := transporthttp.NewRouter(transporthttp.Deps{
		Logger:       log,
		Metrics:      m,
		Creditors:    creditor.NewHandler(creditorSvc, log),
		Documents:    document.NewHandler(documentSvc, log),
		Certificates: certificate.NewHandler(certificateSvc, log),
		MockRegistry: registry.NewMockHandler(),
	})

	if cfg.RevalidationInterval > 0 {
		worker := revalidation.NewWorker(repo, certificateSvc, log, cfg.RevalidationInterval)
		go worker.Run(ctx)
	}

	srv := httpserver.New(cfg.Addr, router)
	go func() {
		log.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err.Error())
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err.Error())
	}
}

// openRepository selects the backing store: Postgres when DATABASE_URL is
// set, the in-memory store otherwise.
func openRepository(ctx context.Context, cfg config.Server) (store.Repository, func(), error) {
	if cfg.DatabaseURL == "" {
		return store.NewMemory(), func() {}, nil
	}

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := store.MigrateUp(db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return store.NewPostgres(db), func() { _ = db.Close() }, nil
}
