package fileops

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestStat(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "file.txt")
	if err := os.WriteFile(path, []byte("0123456789"), 0640); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	stat, err := Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if stat.Size != 10 {
		t.Errorf("Size = %d, want 10", stat.Size)
	}
	if stat.IsDir {
		t.Error("IsDir = true for regular file")
	}
	if stat.Permissions != 0640 {
		t.Errorf("Permissions = %o, want 640", stat.Permissions)
	}

	if _, err := Stat(filepath.Join(tempDir, "missing")); err == nil {
		t.Error("Stat() should fail for a missing path")
	}
}

func TestCopy(t *testing.T) {
	ctx := context.Background()
	tempDir := t.TempDir()

	content := []byte("some file content worth copying")
	src := filepath.Join(tempDir, "src.txt")
	if err := os.WriteFile(src, content, 0640); err != nil {
		t.Fatalf("failed to write source: %v", err)
	}
	srcInfo, err := os.Stat(src)
	if err != nil {
		t.Fatalf("failed to stat source: %v", err)
	}

	t.Run("CopiesContentAndMetadata", func(t *testing.T) {
		dst := filepath.Join(tempDir, "dst.txt")
		written, err := Copy(ctx, src, dst, CopyOptions{})
		if err != nil {
			t.Fatalf("Copy() error = %v", err)
		}
		if written != int64(len(content)) {
			t.Errorf("written = %d, want %d", written, len(content))
		}

		got, err := os.ReadFile(dst)
		if err != nil {
			t.Fatalf("failed to read destination: %v", err)
		}
		if !bytes.Equal(got, content) {
			t.Errorf("destination content = %q, want %q", got, content)
		}

		dstInfo, err := os.Stat(dst)
		if err != nil {
			t.Fatalf("failed to stat destination: %v", err)
		}
		if dstInfo.Mode().Perm() != 0640 {
			t.Errorf("destination permissions = %o, want 640", dstInfo.Mode().Perm())
		}
		diff := srcInfo.ModTime().Sub(dstInfo.ModTime())
		if diff < -time.Second || diff > time.Second {
			t.Errorf("destination mtime %v too far from source mtime %v", dstInfo.ModTime(), srcInfo.ModTime())
		}
	})

	t.Run("OverwritesExistingFile", func(t *testing.T) {
		dst := filepath.Join(tempDir, "existing.txt")
		if err := os.WriteFile(dst, []byte("stale"), 0644); err != nil {
			t.Fatalf("failed to write destination: %v", err)
		}
		if _, err := Copy(ctx, src, dst, CopyOptions{}); err != nil {
			t.Fatalf("Copy() error = %v", err)
		}
		got, _ := os.ReadFile(dst)
		if !bytes.Equal(got, content) {
			t.Errorf("destination content = %q, want %q", got, content)
		}
	})

	t.Run("MissingSourceFails", func(t *testing.T) {
		dst := filepath.Join(tempDir, "never.txt")
		if _, err := Copy(ctx, filepath.Join(tempDir, "missing"), dst, CopyOptions{}); err == nil {
			t.Error("Copy() should fail for missing source")
		}
		if _, err := os.Stat(dst); !os.IsNotExist(err) {
			t.Error("failed copy should not create a destination file")
		}
	})

	t.Run("MissingDestinationDirFails", func(t *testing.T) {
		dst := filepath.Join(tempDir, "nodir", "dst.txt")
		if _, err := Copy(ctx, src, dst, CopyOptions{}); err == nil {
			t.Error("Copy() should fail for missing destination directory")
		}
	})

	t.Run("NoTempFileLeftBehind", func(t *testing.T) {
		dstDir := filepath.Join(tempDir, "clean")
		if err := os.Mkdir(dstDir, 0755); err != nil {
			t.Fatalf("failed to create dir: %v", err)
		}
		if _, err := Copy(ctx, src, filepath.Join(dstDir, "dst.txt"), CopyOptions{}); err != nil {
			t.Fatalf("Copy() error = %v", err)
		}

		entries, err := os.ReadDir(dstDir)
		if err != nil {
			t.Fatalf("failed to read dir: %v", err)
		}
		for _, e := range entries {
			if strings.HasPrefix(e.Name(), ".multisync-") {
				t.Errorf("temporary file left behind: %s", e.Name())
			}
		}
	})

	t.Run("CancelledContextAborts", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		dst := filepath.Join(tempDir, "cancelled.txt")
		if _, err := Copy(cancelled, src, dst, CopyOptions{}); err == nil {
			t.Error("Copy() should fail with a cancelled context")
		}
		if _, err := os.Stat(dst); !os.IsNotExist(err) {
			t.Error("cancelled copy should not leave a destination file")
		}
	})

	t.Run("ReportsProgress", func(t *testing.T) {
		var reports []int64
		dst := filepath.Join(tempDir, "progress.txt")
		_, err := Copy(ctx, src, dst, CopyOptions{
			OnProgress: func(written int64) { reports = append(reports, written) },
		})
		if err != nil {
			t.Fatalf("Copy() error = %v", err)
		}
		if len(reports) == 0 {
			t.Fatal("OnProgress was never called")
		}
		if last := reports[len(reports)-1]; last != int64(len(content)) {
			t.Errorf("final progress report = %d, want %d", last, len(content))
		}
	})
}

func TestCopyTree(t *testing.T) {
	ctx := context.Background()
	tempDir := t.TempDir()

	src := filepath.Join(tempDir, "tree")
	if err := os.MkdirAll(filepath.Join(src, "sub", "deep"), 0755); err != nil {
		t.Fatalf("failed to create tree: %v", err)
	}
	files := map[string][]byte{
		"a.txt":               []byte("aaaa"),
		"sub/b.txt":           []byte("bbbbbbbb"),
		"sub/deep/c.txt":      []byte("cc"),
		"sub/deep/empty.file": nil,
	}
	var totalSize int64
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(src, name), data, 0644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
		totalSize += int64(len(data))
	}

	t.Run("CopiesRecursively", func(t *testing.T) {
		dst := filepath.Join(tempDir, "out")
		written, err := CopyTree(ctx, src, dst, CopyOptions{})
		if err != nil {
			t.Fatalf("CopyTree() error = %v", err)
		}
		if written != totalSize {
			t.Errorf("written = %d, want %d", written, totalSize)
		}
		for name, data := range files {
			got, err := os.ReadFile(filepath.Join(dst, name))
			if err != nil {
				t.Fatalf("failed to read copied %s: %v", name, err)
			}
			if !bytes.Equal(got, data) {
				t.Errorf("%s content = %q, want %q", name, got, data)
			}
		}
	})

	t.Run("SkipsSymlinks", func(t *testing.T) {
		linked := filepath.Join(tempDir, "linked")
		if err := os.MkdirAll(linked, 0755); err != nil {
			t.Fatalf("failed to create dir: %v", err)
		}
		if err := os.WriteFile(filepath.Join(linked, "real.txt"), []byte("real"), 0644); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}
		if err := os.Symlink(filepath.Join(linked, "real.txt"), filepath.Join(linked, "link.txt")); err != nil {
			t.Skipf("symlinks not supported: %v", err)
		}

		dst := filepath.Join(tempDir, "linked-out")
		if _, err := CopyTree(ctx, linked, dst, CopyOptions{}); err != nil {
			t.Fatalf("CopyTree() error = %v", err)
		}
		if _, err := os.Stat(filepath.Join(dst, "real.txt")); err != nil {
			t.Errorf("regular file not copied: %v", err)
		}
		if _, err := os.Lstat(filepath.Join(dst, "link.txt")); !os.IsNotExist(err) {
			t.Error("symlink should not be copied")
		}
	})
}

func TestTreeSize(t *testing.T) {
	tempDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(tempDir, "sub"), 0755); err != nil {
		t.Fatalf("failed to create tree: %v", err)
	}
	if err := os.WriteFile(filepath.Join(tempDir, "a"), make([]byte, 100), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	if err := os.WriteFile(filepath.Join(tempDir, "sub", "b"), make([]byte, 250), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	size, err := TreeSize(tempDir)
	if err != nil {
		t.Fatalf("TreeSize() error = %v", err)
	}
	if size != 350 {
		t.Errorf("TreeSize() = %d, want 350", size)
	}
}

func TestDelete(t *testing.T) {
	tempDir := t.TempDir()

	file := filepath.Join(tempDir, "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	if err := Delete(file); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := os.Stat(file); !os.IsNotExist(err) {
		t.Error("file still exists after Delete")
	}

	dir := filepath.Join(tempDir, "dir")
	if err := os.MkdirAll(filepath.Join(dir, "sub"), 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "sub", "f"), []byte("y"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	if err := Delete(dir); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Error("directory still exists after Delete")
	}
}
