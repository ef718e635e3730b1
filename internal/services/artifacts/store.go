// Package artifacts manages media files materialized to local temp storage
// while a download is relayed. Every artifact carries the same TTL and a
// background sweep removes whatever callers did not clean up themselves.
package artifacts

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/xason0/ultraxas-go/internal/config"
	"github.com/xason0/ultraxas-go/internal/utils"
)

// Remote offloads finished artifacts to durable object storage. Nil-safe:
// a Store without a remote keeps everything local.
type Remote interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) error
	GeneratePresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

type Artifact struct {
	ID        string
	Path      string
	Size      int64
	MimeType  string
	Filename  string
	CreatedAt time.Time
	ExpiresAt time.Time
}

type Store struct {
	dir        string
	ttl        time.Duration
	sweepEvery time.Duration
	maxSize    int64
	remote     Remote

	mu        sync.Mutex
	artifacts map[string]*Artifact

	stop chan struct{}
	once sync.Once
}

func NewStore(cfg *config.DownloadConfig, remote Remote) (*Store, error) {
	dir := cfg.TempDir
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "ultraxas-downloads")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create artifact directory: %w", err)
	}

	return &Store{
		dir:        dir,
		ttl:        cfg.ArtifactTTL,
		sweepEvery: cfg.SweepInterval,
		maxSize:    cfg.MaxFileSize,
		remote:     remote,
		artifacts:  make(map[string]*Artifact),
		stop:       make(chan struct{}),
	}, nil
}

func (s *Store) Dir() string {
	return s.dir
}

// Save drains body to disk and registers the resulting artifact. The title is
// sanitized into the filename; the extension comes from magic-number sniffing
// of the written file, falling back to the provided hint.
func (s *Store) Save(ctx context.Context, body io.Reader, title, extHint string) (*Artifact, error) {
	id := uuid.New().String()
	partPath := filepath.Join(s.dir, id+".part")

	f, err := os.Create(partPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create artifact file: %w", err)
	}

	size, err := io.Copy(f, io.LimitReader(body, s.maxSize+1))
	closeErr := f.Close()
	if err != nil {
		os.Remove(partPath)
		return nil, fmt.Errorf("failed to write artifact: %w", err)
	}
	if closeErr != nil {
		os.Remove(partPath)
		return nil, fmt.Errorf("failed to finalize artifact: %w", closeErr)
	}
	if size == 0 {
		os.Remove(partPath)
		return nil, fmt.Errorf("upstream returned an empty body")
	}
	if size > s.maxSize {
		os.Remove(partPath)
		return nil, fmt.Errorf("artifact exceeds maximum size of %d bytes", s.maxSize)
	}

	ext := strings.TrimPrefix(extHint, ".")
	mimeType := ""
	if detected, err := mimetype.DetectFile(partPath); err == nil {
		mimeType = detected.String()
		if detectedExt := strings.TrimPrefix(detected.Extension(), "."); detectedExt != "" {
			ext = detectedExt
		}
	}

	filename := utils.SanitizeFilename(fmt.Sprintf("%s_%s.%s", title, id[:8], ext))
	finalPath := filepath.Join(s.dir, filename)
	if err := os.Rename(partPath, finalPath); err != nil {
		os.Remove(partPath)
		return nil, fmt.Errorf("failed to move artifact into place: %w", err)
	}

	now := time.Now()
	artifact := &Artifact{
		ID:        id,
		Path:      finalPath,
		Size:      size,
		MimeType:  mimeType,
		Filename:  filename,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	s.mu.Lock()
	s.artifacts[id] = artifact
	s.mu.Unlock()

	utils.LogDebug(ctx, "Artifact materialized", utils.Fields{
		"artifact_id": id,
		"size":        size,
		"mime_type":   mimeType,
	})

	return artifact, nil
}

// Remove deletes one artifact immediately. Used by callers that finished
// relaying before the TTL fires.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	artifact, ok := s.artifacts[id]
	if ok {
		delete(s.artifacts, id)
	}
	s.mu.Unlock()

	if ok {
		os.Remove(artifact.Path)
	}
}

// RemoveByPath deletes the artifact behind a materialized file path, for
// callers that only hold the path.
func (s *Store) RemoveByPath(path string) {
	s.mu.Lock()
	var found *Artifact
	for id, artifact := range s.artifacts {
		if artifact.Path == path {
			found = artifact
			delete(s.artifacts, id)
			break
		}
	}
	s.mu.Unlock()

	if found != nil {
		os.Remove(found.Path)
	}
}

// Offload pushes an artifact to the remote store and returns a presigned URL
// valid for the artifact TTL. Errors when no remote is configured.
func (s *Store) Offload(ctx context.Context, artifact *Artifact, key string) (string, error) {
	if s.remote == nil {
		return "", fmt.Errorf("no remote artifact store configured")
	}

	f, err := os.Open(artifact.Path)
	if err != nil {
		return "", fmt.Errorf("failed to open artifact for offload: %w", err)
	}
	defer f.Close()

	if err := s.remote.Upload(ctx, key, f, artifact.MimeType); err != nil {
		return "", fmt.Errorf("failed to offload artifact: %w", err)
	}

	return s.remote.GeneratePresignedURL(ctx, key, s.ttl)
}

// Sweep removes every artifact whose TTL elapsed before now. Returns the
// number of artifacts removed.
func (s *Store) Sweep(now time.Time) int {
	s.mu.Lock()
	var expired []*Artifact
	for id, artifact := range s.artifacts {
		if now.After(artifact.ExpiresAt) {
			expired = append(expired, artifact)
			delete(s.artifacts, id)
		}
	}
	s.mu.Unlock()

	for _, artifact := range expired {
		if err := os.Remove(artifact.Path); err != nil && !os.IsNotExist(err) {
			utils.LogWarn(context.Background(), "Failed to remove expired artifact", utils.Fields{
				"artifact_id": artifact.ID,
				"path":        artifact.Path,
				"error":       err.Error(),
			})
		}
	}

	return len(expired)
}

// Start launches the background sweep loop.
func (s *Store) Start() {
	go s.sweepLoop()
}

func (s *Store) sweepLoop() {
	ticker := time.NewTicker(s.sweepEvery)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			if removed := s.Sweep(now); removed > 0 {
				utils.LogInfo(context.Background(), "Swept expired artifacts", utils.Fields{
					"removed": removed,
				})
			}
		case <-s.stop:
			return
		}
	}
}

// Close stops the sweep loop and removes everything still on disk.
func (s *Store) Close() {
	s.once.Do(func() {
		close(s.stop)
	})

	s.mu.Lock()
	remaining := make([]*Artifact, 0, len(s.artifacts))
	for _, artifact := range s.artifacts {
		remaining = append(remaining, artifact)
	}
	s.artifacts = make(map[string]*Artifact)
	s.mu.Unlock()

	for _, artifact := range remaining {
		os.Remove(artifact.Path)
	}
}
