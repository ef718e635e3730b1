// Package database holds the optional MongoDB cache ledger. Every method is
// nil-safe and best-effort: when no URI is configured, or a write fails, the
// request path proceeds unaffected.
package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/xason0/ultraxas-go/internal/config"
	"github.com/xason0/ultraxas-go/internal/models"
	"github.com/xason0/ultraxas-go/internal/utils"
)

const (
	videoDetailsTTL = 30 * time.Minute
	resolutionTTL   = 24 * time.Hour
)

type Cache struct {
	client      *mongo.Client
	database    *mongo.Database
	videos      *mongo.Collection
	resolutions *mongo.Collection
}

// NewCache connects to MongoDB and prepares the cache collections. Returns
// (nil, nil) when no URI is configured.
func NewCache(cfg *config.MongoDBConfig) (*Cache, error) {
	if cfg.URI == "" {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	clientOptions := options.Client().ApplyURI(cfg.URI)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	db := client.Database(cfg.Database)

	cache := &Cache{
		client:      client,
		database:    db,
		videos:      db.Collection("videos"),
		resolutions: db.Collection("resolutions"),
	}

	if err := cache.createIndexes(ctx); err != nil {
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}

	return cache, nil
}

func (c *Cache) createIndexes(ctx context.Context) error {
	videosIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			// TTL index; Mongo removes the document once expires_at passes.
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	}

	if _, err := c.videos.Indexes().CreateMany(ctx, videosIndexes); err != nil {
		return fmt.Errorf("failed to create videos indexes: %w", err)
	}

	resolutionsIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "video_id", Value: 1}, {Key: "resolved_at", Value: -1}},
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	}

	if _, err := c.resolutions.Indexes().CreateMany(ctx, resolutionsIndexes); err != nil {
		return fmt.Errorf("failed to create resolutions indexes: %w", err)
	}

	return nil
}

// Enabled reports whether a cache backend is actually connected.
func (c *Cache) Enabled() bool {
	return c != nil
}

// GetVideoDetails returns cached metadata for the id, or nil on any miss or
// error.
func (c *Cache) GetVideoDetails(ctx context.Context, videoID string) *models.VideoDetails {
	if c == nil {
		return nil
	}

	var cached models.CachedVideoDetails
	err := c.videos.FindOne(ctx, bson.M{"id": videoID}).Decode(&cached)
	if err != nil {
		return nil
	}
	if time.Now().After(cached.ExpiresAt) {
		return nil
	}

	details := cached.VideoDetails
	return &details
}

// PutVideoDetails upserts metadata for the id. Failures are logged and
// swallowed.
func (c *Cache) PutVideoDetails(ctx context.Context, details *models.VideoDetails) {
	if c == nil || details == nil {
		return
	}

	now := time.Now()
	cached := models.CachedVideoDetails{
		VideoDetails: *details,
		CachedAt:     now,
		ExpiresAt:    now.Add(videoDetailsTTL),
	}

	_, err := c.videos.UpdateOne(ctx,
		bson.M{"id": details.ID},
		bson.M{"$set": cached},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		utils.LogWarn(ctx, "Failed to cache video details", utils.Fields{
			"video_id": details.ID,
			"error":    err.Error(),
		})
	}
}

// RecordResolution appends one ledger entry for a successful resolution.
func (c *Cache) RecordResolution(ctx context.Context, record *models.ResolutionRecord) {
	if c == nil || record == nil {
		return
	}

	record.ExpiresAt = record.ResolvedAt.Add(resolutionTTL)
	if _, err := c.resolutions.InsertOne(ctx, record); err != nil {
		utils.LogWarn(ctx, "Failed to record resolution", utils.Fields{
			"video_id": record.VideoID,
			"resolver": record.Resolver,
			"error":    err.Error(),
		})
	}
}

// Ping checks connectivity for the readiness probe.
func (c *Cache) Ping(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.client.Ping(ctx, readpref.Primary())
}

func (c *Cache) Close(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.client.Disconnect(ctx)
}
