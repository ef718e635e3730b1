package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/xason0/ultraxas-go/internal/api/handlers"
	"github.com/xason0/ultraxas-go/internal/api/middleware"
	"github.com/xason0/ultraxas-go/internal/config"
)

type Router struct {
	engine *gin.Engine
	config *config.Config
}

func NewRouter(cfg *config.Config, discoveryHandler *handlers.DiscoveryHandler, downloadHandler *handlers.DownloadHandler, healthHandler *handlers.HealthHandler) *Router {
	// Set Gin mode
	if cfg.Server.Host == "0.0.0.0" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// Add middleware
	engine.Use(gin.Recovery())
	engine.Use(middleware.CorrelationIDMiddleware())
	if cfg.CORS.Enabled {
		engine.Use(middleware.CORSMiddleware(&cfg.CORS))
	}

	// Health endpoints
	health := engine.Group("/")
	{
		health.GET("/health", healthHandler.Health)
		health.GET("/ready", healthHandler.Readiness)
		health.GET("/live", healthHandler.Liveness)
	}

	// Swagger documentation
	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API endpoints with rate limiting
	api := engine.Group("/api")
	api.Use(middleware.RateLimitMiddleware(&cfg.API))
	{
		// Discovery endpoints
		api.GET("/search", discoveryHandler.Search)                            // /api/search?q=
		api.GET("/trending", discoveryHandler.Trending)                        // /api/trending
		api.GET("/recommended", discoveryHandler.Recommended)                  // /api/recommended
		api.GET("/trending-music", discoveryHandler.TrendingMusic)             // /api/trending-music
		api.GET("/video-info/:videoId", discoveryHandler.VideoInfo)            // /api/video-info/{videoId}
		api.GET("/download-options/:videoId", discoveryHandler.DownloadOptions) // /api/download-options/{videoId}

		// Download endpoints
		api.POST("/download", downloadHandler.Download)        // /api/download
		api.POST("/video-link", downloadHandler.VideoLink)     // /api/video-link
		api.POST("/direct-video", downloadHandler.DirectVideo) // /api/direct-video
	}

	return &Router{
		engine: engine,
		config: cfg,
	}
}

func (r *Router) Start() error {
	addr := r.config.Server.Host + ":" + r.config.Server.Port
	return r.engine.Run(addr)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
