// Package fileops provides the primitive, single-path filesystem actions
// the sync engine composes. Nothing here is concurrent; the engine is what
// calls these primitives in parallel.
package fileops

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"multisync/pkg/models"
	"multisync/pkg/ratelimit"
)

// Progress reporting thresholds
const (
	progressReportInterval = 50 * time.Millisecond
	progressReportBytes    = 64 * 1024
)

// CopyOptions tunes a single copy operation
type CopyOptions struct {
	// BufferSize is the chunk size for the copy loop (0 = 256 KiB)
	BufferSize int

	// Limiter caps read throughput when non-nil
	Limiter *ratelimit.Limiter

	// OnProgress receives the cumulative byte count written so far,
	// throttled to at most one call per 64 KiB or 50 ms
	OnProgress func(written int64)
}

// Stat returns the metadata of a single path
func Stat(path string) (*models.FileStat, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	return &models.FileStat{
		Path:        path,
		Size:        info.Size(),
		ModTime:     info.ModTime(),
		IsDir:       info.IsDir(),
		Permissions: uint32(info.Mode().Perm()),
	}, nil
}

// Copy copies a regular file from src to dst and preserves permissions and
// modification time. The content is written to a temporary file in the
// destination directory and renamed into place on success, so a failed copy
// never leaves a partial file that could be mistaken for a complete one.
// Returns the number of bytes written.
func Copy(ctx context.Context, src, dst string, opts CopyOptions) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, fmt.Errorf("failed to open source file %s: %w", src, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return 0, fmt.Errorf("failed to stat source file %s: %w", src, err)
	}

	// The temporary file lives in the destination directory so the final
	// rename stays on one filesystem and is atomic.
	dstDir := filepath.Dir(dst)
	out, err := os.CreateTemp(dstDir, ".multisync-*.tmp")
	if err != nil {
		return 0, fmt.Errorf("failed to create temporary file in %s: %w", dstDir, err)
	}
	defer os.Remove(out.Name())
	defer out.Close()

	var reader io.Reader = in
	if opts.Limiter != nil {
		reader = ratelimit.NewReader(ctx, reader, opts.Limiter)
	}

	written, err := copyLoop(ctx, out, reader, opts)
	if err != nil {
		return written, fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}

	if err := out.Chmod(info.Mode()); err != nil {
		return written, fmt.Errorf("failed to set permissions on %s: %w", out.Name(), err)
	}
	if err := out.Close(); err != nil {
		return written, fmt.Errorf("failed to finalize %s: %w", out.Name(), err)
	}
	if err := os.Chtimes(out.Name(), info.ModTime(), info.ModTime()); err != nil {
		return written, fmt.Errorf("failed to set modification time on %s: %w", out.Name(), err)
	}

	if err := os.Rename(out.Name(), dst); err != nil {
		return written, fmt.Errorf("failed to move %s into place: %w", out.Name(), err)
	}
	return written, nil
}

// copyLoop streams reader into w in fixed-size chunks, checking the context
// between chunks and reporting throttled progress.
func copyLoop(ctx context.Context, w io.Writer, reader io.Reader, opts CopyOptions) (int64, error) {
	bufferSize := opts.BufferSize
	if bufferSize < 4096 {
		bufferSize = 256 * 1024
	}
	buffer := make([]byte, bufferSize)

	var written, lastReported int64
	lastReportTime := time.Now()

	for {
		select {
		case <-ctx.Done():
			return written, ctx.Err()
		default:
		}

		n, readErr := reader.Read(buffer)
		if n > 0 {
			wn, writeErr := w.Write(buffer[:n])
			written += int64(wn)
			if writeErr != nil {
				return written, writeErr
			}
			if wn < n {
				return written, io.ErrShortWrite
			}

			if opts.OnProgress != nil {
				sinceBytes := written - lastReported
				sinceTime := time.Since(lastReportTime)
				if sinceBytes >= progressReportBytes || sinceTime >= progressReportInterval {
					opts.OnProgress(written)
					lastReported = written
					lastReportTime = time.Now()
				}
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return written, readErr
		}
	}

	if opts.OnProgress != nil && written > lastReported {
		opts.OnProgress(written)
	}
	return written, nil
}

// CopyTree recursively copies the directory at src to dst, preserving
// directory permissions and copying each regular file atomically.
// Symlinks and other special files are skipped. Returns the total bytes
// written.
func CopyTree(ctx context.Context, src, dst string, opts CopyOptions) (int64, error) {
	var total int64

	baseProgress := opts.OnProgress
	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		switch {
		case d.IsDir():
			info, err := d.Info()
			if err != nil {
				return err
			}
			if err := os.MkdirAll(target, info.Mode().Perm()); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", target, err)
			}
			return nil

		case d.Type().IsRegular():
			fileOpts := opts
			if baseProgress != nil {
				// Report tree-wide cumulative progress, not per-file.
				done := total
				fileOpts.OnProgress = func(written int64) {
					baseProgress(done + written)
				}
			}
			n, err := Copy(ctx, path, target, fileOpts)
			total += n
			return err

		default:
			return nil
		}
	})

	return total, err
}

// TreeSize walks a directory and sums the sizes of all regular files
func TreeSize(path string) (int64, error) {
	var total int64
	err := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			info, err := d.Info()
			if err != nil {
				return err
			}
			total += info.Size()
		}
		return nil
	})
	return total, err
}

// Delete removes a file, or a directory and everything below it
func Delete(path string) error {
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("failed to delete %s: %w", path, err)
	}
	return nil
}
