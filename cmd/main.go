// Package main provides the entry point for the UltraXAS media service.
// @title UltraXAS Media API
// @version 1.0
// @description A Go-based service that searches videos and resolves media downloads through a ranked chain of third-party strategies.
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url http://www.example.com/support
// @contact.email support@example.com

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/xason0/ultraxas-go/docs" // Import for swagger docs
	"github.com/xason0/ultraxas-go/internal/api/handlers"
	"github.com/xason0/ultraxas-go/internal/api/router"
	"github.com/xason0/ultraxas-go/internal/config"
	"github.com/xason0/ultraxas-go/internal/database"
	"github.com/xason0/ultraxas-go/internal/services/artifacts"
	"github.com/xason0/ultraxas-go/internal/services/orchestrator"
	"github.com/xason0/ultraxas-go/internal/services/relay"
	"github.com/xason0/ultraxas-go/internal/services/resolver"
	"github.com/xason0/ultraxas-go/internal/services/search"
	"github.com/xason0/ultraxas-go/internal/services/storage"
	"github.com/xason0/ultraxas-go/internal/utils"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := utils.GetLogger()
	logger.Info("Starting UltraXAS media service")

	// Optional cache ledger
	cache, err := database.NewCache(&cfg.MongoDB)
	if err != nil {
		logger.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	if cache.Enabled() {
		logger.Info("MongoDB cache ledger enabled")
	}

	// Optional S3 artifact offload
	s3Storage, err := storage.NewStorage(&cfg.S3)
	if err != nil {
		logger.Fatalf("Failed to initialize storage: %v", err)
	}
	if s3Storage != nil {
		logger.Infof("S3 artifact offload enabled (bucket: %s)", s3Storage.BucketName())
	}

	// Search service
	searchService := search.NewService(&cfg.Search)

	// Artifact store with background TTL sweep
	var remote artifacts.Remote
	if s3Storage != nil {
		remote = s3Storage
	}
	store, err := artifacts.NewStore(&cfg.Download, remote)
	if err != nil {
		logger.Fatalf("Failed to initialize artifact store: %v", err)
	}
	store.Start()

	// Resolver chain, ranked by observed reliability per media kind
	chain := orchestrator.NewChain(&cfg.Download, []resolver.Resolver{
		resolver.NewY2Save(&cfg.Upstream, searchService, store),
		resolver.NewSavetube(&cfg.Upstream),
		resolver.NewConverterAPI(&cfg.Upstream),
		resolver.NewY2Mate(&cfg.Upstream),
		resolver.NewGifted(&cfg.Upstream),
		resolver.NewYT5S(&cfg.Upstream),
		resolver.NewNative(),
	})

	mediaRelay := relay.New(&http.Client{})

	// Initialize handlers
	discoveryHandler := handlers.NewDiscoveryHandler(searchService, cache)
	downloadHandler := handlers.NewDownloadHandler(chain, mediaRelay, cache, s3Storage, store, cfg.Download.ArtifactTTL)
	healthHandler := handlers.NewHealthHandler(cache, s3Storage)

	// Initialize router
	r := router.NewRouter(cfg, discoveryHandler, downloadHandler, healthHandler)

	// Start server
	go func() {
		logger.Infof("Starting server on %s:%s", cfg.Server.Host, cfg.Server.Port)
		if err := r.Start(); err != nil {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store.Close()

	if err := cache.Close(ctx); err != nil {
		logger.Errorf("Failed to close cache connection: %v", err)
	}

	logger.Info("Server shutdown complete")
}
