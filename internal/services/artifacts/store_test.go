package artifacts

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xason0/ultraxas-go/internal/config"
)

// abortingReader yields some bytes, then fails like an upstream connection
// dropped mid-transfer or a canceled request context.
type abortingReader struct {
	data []byte
	done bool
}

func (r *abortingReader) Read(p []byte) (int, error) {
	if !r.done {
		r.done = true
		return copy(p, r.data), nil
	}
	return 0, errors.New("connection reset")
}

var _ io.Reader = (*abortingReader)(nil)

func testStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(&config.DownloadConfig{
		TempDir:       t.TempDir(),
		ArtifactTTL:   10 * time.Minute,
		SweepInterval: time.Minute,
		MaxFileSize:   1 << 20,
	}, nil)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	return store
}

// mp3Payload starts with an ID3 tag so content sniffing identifies it.
func mp3Payload() []byte {
	payload := []byte("ID3\x04\x00\x00\x00\x00\x00\x00")
	return append(payload, bytes.Repeat([]byte{0xAA}, 256)...)
}

func TestStoreSaveRoundtrip(t *testing.T) {
	store := testStore(t)

	artifact, err := store.Save(context.Background(), bytes.NewReader(mp3Payload()), "Test Song", "mp3")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if artifact.Size != int64(len(mp3Payload())) {
		t.Errorf("Expected size %d, got %d", len(mp3Payload()), artifact.Size)
	}
	if !strings.HasPrefix(artifact.Filename, "Test_Song_") {
		t.Errorf("Expected sanitized title prefix, got %q", artifact.Filename)
	}
	if !strings.HasSuffix(artifact.Filename, ".mp3") {
		t.Errorf("Expected sniffed mp3 extension, got %q", artifact.Filename)
	}

	data, err := os.ReadFile(artifact.Path)
	if err != nil {
		t.Fatalf("Failed to read artifact back: %v", err)
	}
	if !bytes.Equal(data, mp3Payload()) {
		t.Error("Artifact content does not match input")
	}

	parts, err := filepath.Glob(filepath.Join(store.Dir(), "*.part"))
	if err != nil {
		t.Fatalf("Glob failed: %v", err)
	}
	if len(parts) != 0 {
		t.Errorf("Temp .part files should not remain after save: %v", parts)
	}
}

func TestStoreSaveUniqueNames(t *testing.T) {
	store := testStore(t)

	first, err := store.Save(context.Background(), bytes.NewReader(mp3Payload()), "Same Title", "mp3")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	second, err := store.Save(context.Background(), bytes.NewReader(mp3Payload()), "Same Title", "mp3")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if first.Path == second.Path {
		t.Error("Same title must not collide on disk")
	}
}

func TestStoreSaveRejectsEmptyBody(t *testing.T) {
	store := testStore(t)

	if _, err := store.Save(context.Background(), bytes.NewReader(nil), "Empty", "mp3"); err == nil {
		t.Fatal("Expected error for empty body")
	}
}

func TestStoreSaveEnforcesMaxSize(t *testing.T) {
	store, err := NewStore(&config.DownloadConfig{
		TempDir:       t.TempDir(),
		ArtifactTTL:   time.Minute,
		SweepInterval: time.Minute,
		MaxFileSize:   64,
	}, nil)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	if _, err := store.Save(context.Background(), bytes.NewReader(bytes.Repeat([]byte{1}, 128)), "Big", "mp3"); err == nil {
		t.Fatal("Expected error for oversized body")
	}
}

func TestStoreSweepRemovesExpired(t *testing.T) {
	store := testStore(t)

	artifact, err := store.Save(context.Background(), bytes.NewReader(mp3Payload()), "Sweep Me", "mp3")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if removed := store.Sweep(time.Now()); removed != 0 {
		t.Errorf("Nothing should expire yet, removed %d", removed)
	}

	if removed := store.Sweep(time.Now().Add(11 * time.Minute)); removed != 1 {
		t.Errorf("Expected one expired artifact, removed %d", removed)
	}
	if _, err := os.Stat(artifact.Path); !os.IsNotExist(err) {
		t.Error("Expired artifact should be deleted from disk")
	}

	// A second sweep must be a no-op.
	if removed := store.Sweep(time.Now().Add(time.Hour)); removed != 0 {
		t.Errorf("Expected nothing left to sweep, removed %d", removed)
	}
}

func TestStoreSaveAbortedBodyLeavesNothingBehind(t *testing.T) {
	store := testStore(t)

	_, err := store.Save(context.Background(), &abortingReader{data: mp3Payload()}, "Interrupted", "mp3")
	if err == nil {
		t.Fatal("Expected an error from the aborted body")
	}

	leftovers, err := filepath.Glob(filepath.Join(store.Dir(), "*"))
	if err != nil {
		t.Fatalf("Failed to list store directory: %v", err)
	}
	if len(leftovers) != 0 {
		t.Errorf("Expected empty store directory after aborted save, found %v", leftovers)
	}
}

func TestStoreRemove(t *testing.T) {
	store := testStore(t)

	artifact, err := store.Save(context.Background(), bytes.NewReader(mp3Payload()), "Remove Me", "mp3")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	store.Remove(artifact.ID)
	if _, err := os.Stat(artifact.Path); !os.IsNotExist(err) {
		t.Error("Removed artifact should be deleted from disk")
	}
}

func TestStoreRemoveByPath(t *testing.T) {
	store := testStore(t)

	artifact, err := store.Save(context.Background(), bytes.NewReader(mp3Payload()), "Remove By Path", "mp3")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	store.RemoveByPath(artifact.Path)
	if _, err := os.Stat(artifact.Path); !os.IsNotExist(err) {
		t.Error("Removed artifact should be deleted from disk")
	}

	// Unknown paths are a no-op.
	store.RemoveByPath(filepath.Join(store.Dir(), "missing.mp3"))
}

func TestStoreCloseCleansUp(t *testing.T) {
	store := testStore(t)

	artifact, err := store.Save(context.Background(), bytes.NewReader(mp3Payload()), "Shutdown", "mp3")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	store.Close()
	if _, err := os.Stat(artifact.Path); !os.IsNotExist(err) {
		t.Error("Close should remove remaining artifacts")
	}
}
