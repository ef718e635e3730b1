package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xason0/ultraxas-go/internal/database"
	"github.com/xason0/ultraxas-go/internal/models"
	"github.com/xason0/ultraxas-go/internal/services/resolver"
	"github.com/xason0/ultraxas-go/internal/services/search"
	"github.com/xason0/ultraxas-go/internal/utils"
)

// Searcher is the slice of the search service the discovery endpoints need.
type Searcher interface {
	Search(ctx context.Context, query string) ([]models.MediaItem, error)
	Trending(ctx context.Context) ([]models.MediaItem, error)
	Recommended(ctx context.Context) ([]models.MediaItem, error)
	TrendingMusic(ctx context.Context) ([]models.MediaItem, error)
	Lookup(ctx context.Context, videoID string) (*models.VideoDetails, error)
}

type DiscoveryHandler struct {
	search Searcher
	cache  *database.Cache
}

func NewDiscoveryHandler(search Searcher, cache *database.Cache) *DiscoveryHandler {
	return &DiscoveryHandler{
		search: search,
		cache:  cache,
	}
}

func (h *DiscoveryHandler) errorResponse(c *gin.Context, err *utils.AppError) {
	c.JSON(err.StatusCode, gin.H{
		"error":      err,
		"request_id": c.GetString("request_id"),
		"timestamp":  time.Now().Format(time.RFC3339),
	})
}

// Search godoc
// @Summary Search videos
// @Description Search videos by free-form query
// @Tags discovery
// @Produce json
// @Param q query string true "Search query"
// @Success 200 {array} models.MediaItem
// @Failure 400 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/search [get]
func (h *DiscoveryHandler) Search(c *gin.Context) {
	ctx := c.Request.Context()

	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		h.errorResponse(c, utils.NewValidationError("Missing search query", map[string]interface{}{
			"parameter": "q",
		}))
		return
	}

	items, err := h.search.Search(ctx, query)
	if err != nil {
		utils.LogError(ctx, "Search failed", err, utils.Fields{
			"query": query,
		})
		h.errorResponse(c, utils.NewSearchError(err))
		return
	}

	c.JSON(http.StatusOK, items)
}

// Trending godoc
// @Summary Trending videos
// @Description List trending videos from a rotating category
// @Tags discovery
// @Produce json
// @Success 200 {array} models.MediaItem
// @Failure 500 {object} map[string]interface{}
// @Router /api/trending [get]
func (h *DiscoveryHandler) Trending(c *gin.Context) {
	ctx := c.Request.Context()

	items, err := h.search.Trending(ctx)
	if err != nil {
		utils.LogError(ctx, "Trending listing failed", err)
		h.errorResponse(c, utils.NewSearchError(err))
		return
	}

	c.JSON(http.StatusOK, items)
}

// Recommended godoc
// @Summary Recommended videos
// @Description List a short recommended selection
// @Tags discovery
// @Produce json
// @Success 200 {array} models.MediaItem
// @Failure 500 {object} map[string]interface{}
// @Router /api/recommended [get]
func (h *DiscoveryHandler) Recommended(c *gin.Context) {
	ctx := c.Request.Context()

	items, err := h.search.Recommended(ctx)
	if err != nil {
		utils.LogError(ctx, "Recommended listing failed", err)
		h.errorResponse(c, utils.NewSearchError(err))
		return
	}

	c.JSON(http.StatusOK, items)
}

// TrendingMusic godoc
// @Summary Trending music
// @Description List trending music from a rotating category
// @Tags discovery
// @Produce json
// @Success 200 {array} models.MediaItem
// @Failure 500 {object} map[string]interface{}
// @Router /api/trending-music [get]
func (h *DiscoveryHandler) TrendingMusic(c *gin.Context) {
	ctx := c.Request.Context()

	items, err := h.search.TrendingMusic(ctx)
	if err != nil {
		utils.LogError(ctx, "Trending music listing failed", err)
		h.errorResponse(c, utils.NewSearchError(err))
		return
	}

	c.JSON(http.StatusOK, items)
}

// VideoInfo godoc
// @Summary Video metadata
// @Description Fetch metadata for one video by id or URL
// @Tags discovery
// @Produce json
// @Param videoId path string true "Video id or URL"
// @Success 200 {object} models.VideoDetails
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/video-info/{videoId} [get]
func (h *DiscoveryHandler) VideoInfo(c *gin.Context) {
	ctx := c.Request.Context()

	videoID, err := resolver.ExtractVideoID(c.Param("videoId"))
	if err != nil {
		h.errorResponse(c, utils.NewInvalidInputError(c.Param("videoId")))
		return
	}

	if cached := h.cache.GetVideoDetails(ctx, videoID); cached != nil {
		c.JSON(http.StatusOK, cached)
		return
	}

	details, err := h.search.Lookup(ctx, videoID)
	if err != nil {
		if errors.Is(err, search.ErrNotFound) {
			h.errorResponse(c, utils.NewVideoNotFoundError(videoID))
			return
		}
		utils.LogError(ctx, "Video lookup failed", err, utils.Fields{
			"video_id": videoID,
		})
		h.errorResponse(c, utils.NewSearchError(err))
		return
	}

	h.cache.PutVideoDetails(ctx, details)
	c.JSON(http.StatusOK, details)
}

// DownloadOptions godoc
// @Summary Available download formats
// @Description List the format and quality combinations offered for a video
// @Tags discovery
// @Produce json
// @Param videoId path string true "Video id or URL"
// @Success 200 {object} models.DownloadOptions
// @Failure 400 {object} map[string]interface{}
// @Router /api/download-options/{videoId} [get]
func (h *DiscoveryHandler) DownloadOptions(c *gin.Context) {
	if _, err := resolver.ExtractVideoID(c.Param("videoId")); err != nil {
		h.errorResponse(c, utils.NewInvalidInputError(c.Param("videoId")))
		return
	}

	// The offered combinations are fixed; actual availability is only known
	// once the resolver chain runs.
	options := models.DownloadOptions{
		Video: []models.FormatOption{
			{Quality: "1080p", Format: "mp4", Size: "varies"},
			{Quality: "720p", Format: "mp4", Size: "varies"},
			{Quality: "480p", Format: "mp4", Size: "varies"},
		},
		Audio: []models.FormatOption{
			{Quality: "128kbps", Format: "mp3", Size: "varies"},
		},
	}

	c.JSON(http.StatusOK, options)
}
