package handlers

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xason0/ultraxas-go/internal/database"
	"github.com/xason0/ultraxas-go/internal/models"
	"github.com/xason0/ultraxas-go/internal/services/relay"
	"github.com/xason0/ultraxas-go/internal/services/resolver"
	"github.com/xason0/ultraxas-go/internal/services/storage"
	"github.com/xason0/ultraxas-go/internal/utils"
)

// Resolving is the slice of the orchestrator the download endpoints need.
type Resolving interface {
	Resolve(ctx context.Context, req resolver.ResolutionRequest) (*resolver.ResolutionResult, error)
}

// Deliverer writes a resolved result to the HTTP response.
type Deliverer interface {
	Deliver(c *gin.Context, result *resolver.ResolutionResult, mode relay.Mode) error
}

// Cleaner removes a materialized artifact once the response no longer needs
// it. The TTL sweep covers anything left behind.
type Cleaner interface {
	RemoveByPath(path string)
}

type DownloadHandler struct {
	chain   Resolving
	relay   Deliverer
	cache   *database.Cache
	storage storage.StorageInterface
	cleaner Cleaner
	linkTTL time.Duration
}

func NewDownloadHandler(chain Resolving, deliverer Deliverer, cache *database.Cache, store storage.StorageInterface, cleaner Cleaner, linkTTL time.Duration) *DownloadHandler {
	return &DownloadHandler{
		chain:   chain,
		relay:   deliverer,
		cache:   cache,
		storage: store,
		cleaner: cleaner,
		linkTTL: linkTTL,
	}
}

// cleanup eagerly removes a materialized file after delivery.
func (h *DownloadHandler) cleanup(result *resolver.ResolutionResult) {
	if h.cleaner != nil && result.Materialized() {
		h.cleaner.RemoveByPath(result.FilePath)
	}
}

func (h *DownloadHandler) errorResponse(c *gin.Context, err *utils.AppError) {
	c.JSON(err.StatusCode, gin.H{
		"error":      err,
		"request_id": c.GetString("request_id"),
		"timestamp":  time.Now().Format(time.RFC3339),
	})
}

// Download godoc
// @Summary Download media
// @Description Resolve the requested format and quality through the strategy chain and relay the media bytes
// @Tags download
// @Accept json
// @Produce application/octet-stream
// @Param request body models.DownloadRequest true "Download request"
// @Success 200 {file} binary "Media bytes"
// @Failure 400 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/download [post]
func (h *DownloadHandler) Download(c *gin.Context) {
	ctx := c.Request.Context()

	var req models.DownloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, utils.NewValidationError("Invalid request body", map[string]interface{}{
			"error": err.Error(),
		}))
		return
	}

	result, appErr := h.resolve(ctx, req.VideoID, resolver.MediaKind(req.Format), req.Quality)
	if appErr != nil {
		h.errorResponse(c, appErr)
		return
	}

	err := h.relay.Deliver(c, result, relay.ModeStream)
	h.cleanup(result)
	if err != nil {
		utils.LogError(ctx, "Failed to relay media", err, utils.Fields{
			"video_id": req.VideoID,
		})
		h.errorResponse(c, utils.NewError(
			utils.ErrorCodeStreamingFailure,
			"Failed to deliver media",
			http.StatusInternalServerError,
		))
	}
}

// VideoLink godoc
// @Summary Resolve a download link
// @Description Resolve the requested video and answer with a fetchable URL instead of the bytes
// @Tags download
// @Accept json
// @Produce json
// @Param request body models.DirectVideoRequest true "Link request"
// @Success 200 {object} models.DownloadLinkResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/video-link [post]
func (h *DownloadHandler) VideoLink(c *gin.Context) {
	ctx := c.Request.Context()

	var req models.DirectVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, utils.NewValidationError("Invalid request body", map[string]interface{}{
			"error": err.Error(),
		}))
		return
	}
	if req.Quality == "" {
		req.Quality = "720p"
	}

	result, appErr := h.resolve(ctx, req.VideoID, resolver.MediaKindVideo, req.Quality)
	if appErr != nil {
		h.errorResponse(c, appErr)
		return
	}

	downloadURL := result.URL
	if result.Materialized() {
		presigned, err := h.offload(ctx, result)
		h.cleanup(result)
		if err != nil {
			utils.LogError(ctx, "Failed to offload materialized media", err, utils.Fields{
				"video_id": req.VideoID,
			})
			h.errorResponse(c, utils.NewError(
				utils.ErrorCodeLinkUnavailable,
				"Media required server-side conversion; use the download endpoint",
				http.StatusConflict,
			))
			return
		}
		downloadURL = presigned
	}

	c.JSON(http.StatusOK, models.DownloadLinkResponse{
		Success:     true,
		DownloadURL: downloadURL,
		Title:       result.Title,
		Quality:     result.Quality,
	})
}

// DirectVideo godoc
// @Summary Direct video delivery
// @Description Resolve the video and redirect to the upstream URL when possible, streaming otherwise
// @Tags download
// @Accept json
// @Produce application/octet-stream
// @Param request body models.DirectVideoRequest true "Direct video request"
// @Success 302 {string} string "Redirect to media URL"
// @Success 200 {file} binary "Media bytes"
// @Failure 400 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/direct-video [post]
func (h *DownloadHandler) DirectVideo(c *gin.Context) {
	ctx := c.Request.Context()

	var req models.DirectVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, utils.NewValidationError("Invalid request body", map[string]interface{}{
			"error": err.Error(),
		}))
		return
	}
	if req.Quality == "" {
		req.Quality = "720p"
	}

	result, appErr := h.resolve(ctx, req.VideoID, resolver.MediaKindVideo, req.Quality)
	if appErr != nil {
		h.errorResponse(c, appErr)
		return
	}

	err := h.relay.Deliver(c, result, relay.ModeRedirect)
	h.cleanup(result)
	if err != nil {
		utils.LogError(ctx, "Failed to relay media", err, utils.Fields{
			"video_id": req.VideoID,
		})
		h.errorResponse(c, utils.NewError(
			utils.ErrorCodeStreamingFailure,
			"Failed to deliver media",
			http.StatusInternalServerError,
		))
	}
}

// resolve validates the identifier, runs the chain and writes the ledger
// entry for a success.
func (h *DownloadHandler) resolve(ctx context.Context, rawID string, kind resolver.MediaKind, quality string) (*resolver.ResolutionResult, *utils.AppError) {
	videoID, err := resolver.ExtractVideoID(rawID)
	if err != nil {
		return nil, utils.NewInvalidInputError(rawID)
	}

	result, err := h.chain.Resolve(ctx, resolver.ResolutionRequest{
		VideoID: videoID,
		Kind:    kind,
		Quality: quality,
	})
	if err != nil {
		if appErr, ok := err.(*utils.AppError); ok {
			return nil, appErr
		}
		return nil, utils.NewResolversExhaustedError()
	}

	h.cache.RecordResolution(ctx, &models.ResolutionRecord{
		VideoID:    videoID,
		Resolver:   result.Resolver,
		Kind:       string(kind),
		Quality:    result.Quality,
		Direct:     !result.Materialized(),
		ResolvedAt: time.Now(),
	})

	return result, nil
}

// offload pushes a materialized file to remote storage and answers with a
// presigned URL valid for the artifact TTL.
func (h *DownloadHandler) offload(ctx context.Context, result *resolver.ResolutionResult) (string, error) {
	if h.storage == nil {
		return "", fmt.Errorf("no remote storage configured")
	}

	f, err := os.Open(result.FilePath)
	if err != nil {
		return "", fmt.Errorf("failed to open materialized file: %w", err)
	}
	defer f.Close()

	key := "artifacts/" + path.Base(result.FilePath)
	if err := h.storage.Upload(ctx, key, f, result.MimeType); err != nil {
		return "", err
	}

	return h.storage.GeneratePresignedURL(ctx, key, h.linkTTL)
}
