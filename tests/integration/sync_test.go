package integration

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"multisync/pkg/models"
	"multisync/pkg/sync"
)

// TestHelper provides utilities for integration tests
type TestHelper struct {
	t         *testing.T
	tempDir   string
	sourceDir string
	destDirs  []string
}

// NewTestHelper creates a helper with one source directory and the given
// number of destination roots
func NewTestHelper(t *testing.T, destinations int) *TestHelper {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "multisync-integration-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}

	sourceDir := filepath.Join(tempDir, "source")
	if err := os.MkdirAll(sourceDir, 0755); err != nil {
		t.Fatalf("failed to create source dir: %v", err)
	}

	destDirs := make([]string, 0, destinations)
	for i := 0; i < destinations; i++ {
		dest := filepath.Join(tempDir, "dest"+string(rune('1'+i)))
		if err := os.MkdirAll(dest, 0755); err != nil {
			t.Fatalf("failed to create dest dir: %v", err)
		}
		destDirs = append(destDirs, dest)
	}

	return &TestHelper{
		t:         t,
		tempDir:   tempDir,
		sourceDir: sourceDir,
		destDirs:  destDirs,
	}
}

// Cleanup removes all temporary files
func (h *TestHelper) Cleanup() {
	os.RemoveAll(h.tempDir)
}

// CreateSourceFile creates a file in the source directory and returns its path
func (h *TestHelper) CreateSourceFile(name string, content []byte) string {
	h.t.Helper()
	path := filepath.Join(h.sourceDir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		h.t.Fatalf("failed to create parent dir: %v", err)
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		h.t.Fatalf("failed to create source file: %v", err)
	}
	return path
}

// CreateDestFile creates a file in one destination root
func (h *TestHelper) CreateDestFile(destIndex int, name string, content []byte) {
	h.t.Helper()
	path := filepath.Join(h.destDirs[destIndex], name)
	if err := os.WriteFile(path, content, 0644); err != nil {
		h.t.Fatalf("failed to create dest file: %v", err)
	}
}

// SetDestModTime sets the modification time of a file in one destination root
func (h *TestHelper) SetDestModTime(destIndex int, name string, modTime time.Time) {
	h.t.Helper()
	if err := os.Chtimes(filepath.Join(h.destDirs[destIndex], name), modTime, modTime); err != nil {
		h.t.Fatalf("failed to set mod time: %v", err)
	}
}

// ReadDestFile reads a file from one destination root
func (h *TestHelper) ReadDestFile(destIndex int, name string) ([]byte, error) {
	return os.ReadFile(filepath.Join(h.destDirs[destIndex], name))
}

// DestFileExists checks if a file exists in one destination root
func (h *TestHelper) DestFileExists(destIndex int, name string) bool {
	_, err := os.Stat(filepath.Join(h.destDirs[destIndex], name))
	return err == nil
}

// SourceFileExists checks if a file exists in the source
func (h *TestHelper) SourceFileExists(name string) bool {
	_, err := os.Stat(filepath.Join(h.sourceDir, name))
	return err == nil
}

func TestSync_CopyToMultipleDestinations(t *testing.T) {
	h := NewTestHelper(t, 3)
	defer h.Cleanup()

	src1 := h.CreateSourceFile("file1.txt", []byte("content1"))
	src2 := h.CreateSourceFile("file2.txt", []byte("content2"))

	engine := sync.New(nil, nil)
	result, err := engine.Sync(context.Background(), []string{src1, src2}, h.destDirs, models.DefaultOptions())

	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if result.Status != models.StatusSuccess {
		t.Errorf("Status = %s, want success", result.Status)
	}

	for i := range h.destDirs {
		for _, name := range []string{"file1.txt", "file2.txt"} {
			if !h.DestFileExists(i, name) {
				t.Errorf("file %s should exist in destination %d", name, i)
			}
		}
		content, err := h.ReadDestFile(i, "file1.txt")
		if err != nil {
			t.Fatalf("ReadDestFile() error = %v", err)
		}
		if !bytes.Equal(content, []byte("content1")) {
			t.Errorf("file1.txt content = %s, want content1", content)
		}
	}
}

func TestSync_MoveEndToEnd(t *testing.T) {
	h := NewTestHelper(t, 2)
	defer h.Cleanup()

	src := h.CreateSourceFile("payload.bin", bytes.Repeat([]byte("x"), 4096))

	opts := models.DefaultOptions()
	opts.Move = true
	opts.VerifyDestination = true

	engine := sync.New(nil, nil)
	result, err := engine.Sync(context.Background(), []string{src}, h.destDirs, opts)

	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if result.Status != models.StatusSuccess {
		t.Errorf("Status = %s, want success", result.Status)
	}
	if h.SourceFileExists("payload.bin") {
		t.Error("source should be deleted after a verified move")
	}
	for i := range h.destDirs {
		if !h.DestFileExists(i, "payload.bin") {
			t.Errorf("payload.bin should exist in destination %d", i)
		}
	}
}

func TestSync_UpdateModifiedFile(t *testing.T) {
	h := NewTestHelper(t, 1)
	defer h.Cleanup()

	src := h.CreateSourceFile("file.txt", []byte("new content"))
	h.CreateDestFile(0, "file.txt", []byte("old content"))
	h.SetDestModTime(0, "file.txt", time.Now().Add(-time.Hour))

	engine := sync.New(nil, nil)
	result, err := engine.Sync(context.Background(), []string{src}, h.destDirs, models.DefaultOptions())

	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if result.Status != models.StatusSuccess {
		t.Errorf("Status = %s, want success", result.Status)
	}

	content, err := h.ReadDestFile(0, "file.txt")
	if err != nil {
		t.Fatalf("ReadDestFile() error = %v", err)
	}
	if !bytes.Equal(content, []byte("new content")) {
		t.Errorf("file.txt content = %s, want 'new content'", content)
	}
}

func TestSync_HashComparisonSkipsIdentical(t *testing.T) {
	h := NewTestHelper(t, 1)
	defer h.Cleanup()

	content := []byte("identical content")
	src := h.CreateSourceFile("identical.txt", content)
	h.CreateDestFile(0, "identical.txt", content)

	opts := models.DefaultOptions()
	opts.CompareMethod = models.CompareHash

	engine := sync.New(nil, nil)
	result, err := engine.Sync(context.Background(), []string{src}, h.destDirs, opts)

	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if result.ItemsSkipped != 1 {
		t.Errorf("ItemsSkipped = %d, want 1", result.ItemsSkipped)
	}
	if result.BytesCopied != 0 {
		t.Errorf("BytesCopied = %d, want 0", result.BytesCopied)
	}
}

func TestSync_PartialDestinationFailure(t *testing.T) {
	h := NewTestHelper(t, 2)
	defer h.Cleanup()

	src := h.CreateSourceFile("file.txt", []byte("content"))

	opts := models.DefaultOptions()
	opts.Move = true
	destinations := append([]string{}, h.destDirs...)
	destinations = append(destinations, filepath.Join(h.tempDir, "detached"))

	engine := sync.New(nil, nil)
	result, err := engine.Sync(context.Background(), []string{src}, destinations, opts)

	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if result.Status == models.StatusSuccess {
		t.Error("Status = success with a broken destination")
	}

	// The source survives, the healthy destinations are served anyway.
	if !h.SourceFileExists("file.txt") {
		t.Error("source should survive when any destination failed")
	}
	for i := range h.destDirs {
		if !h.DestFileExists(i, "file.txt") {
			t.Errorf("file.txt should exist in destination %d", i)
		}
	}
}

func TestSync_BandwidthLimitedCopy(t *testing.T) {
	h := NewTestHelper(t, 1)
	defer h.Cleanup()

	content := bytes.Repeat([]byte("y"), 16*1024)
	src := h.CreateSourceFile("limited.bin", content)

	opts := models.DefaultOptions()
	opts.BandwidthLimit = 100 * 1024 * 1024 // generous, just exercise the path

	engine := sync.New(nil, nil)
	result, err := engine.Sync(context.Background(), []string{src}, h.destDirs, opts)

	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if result.Status != models.StatusSuccess {
		t.Errorf("Status = %s, want success", result.Status)
	}
	got, err := h.ReadDestFile(0, "limited.bin")
	if err != nil {
		t.Fatalf("ReadDestFile() error = %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Error("bandwidth-limited copy corrupted the content")
	}
}

func TestSync_DirectoryTree(t *testing.T) {
	h := NewTestHelper(t, 2)
	defer h.Cleanup()

	h.CreateSourceFile("album/one.flac", []byte("111111"))
	h.CreateSourceFile("album/sub/two.flac", []byte("2222"))
	srcDir := filepath.Join(h.sourceDir, "album")

	engine := sync.New(nil, nil)
	result, err := engine.Sync(context.Background(), []string{srcDir}, h.destDirs, models.DefaultOptions())

	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if result.Status != models.StatusSuccess {
		t.Errorf("Status = %s, want success", result.Status)
	}
	for i := range h.destDirs {
		if !h.DestFileExists(i, "album/one.flac") || !h.DestFileExists(i, "album/sub/two.flac") {
			t.Errorf("album tree incomplete in destination %d", i)
		}
	}
}
