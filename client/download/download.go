package download

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Save streams body to a temp file in the directory of path, then
// renames it over path on success. On any error the temp file is removed
// and an existing file at path is left untouched. A negative size skips
// the length check.
func Save(ctx context.Context, body io.Reader, size int64, path string, logger *slog.Logger, optFns ...Option) error {
	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return fmt.Errorf("applying option: %w", err)
		}
	}
	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	body = &contextReader{ctx: ctx, r: body}

	file, err := os.CreateTemp(filepath.Dir(path), ".dispatch-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	var successful bool
	defer func() {
		if err := file.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			logger.Error("defer closing temp file", "error", err)
		}
		if !successful {
			if err := os.Remove(file.Name()); err != nil && !errors.Is(err, os.ErrNotExist) {
				logger.Error("failed to remove temp file", "error", err)
			}
		}
	}()

	var writer io.Writer = file
	if opts.checksum != nil {
		writer = io.MultiWriter(writer, opts.checksum)
	}

	if opts.progress {
		writer = &progressWriter{
			w:         writer,
			logger:    logger,
			path:      path,
			total:     size,
			startTime: time.Now(),
		}
	}

	n, err := io.Copy(writer, body)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return fmt.Errorf("%w: %w", ErrDownloadCancelled, err)
		}

		return fmt.Errorf("copying file body: %w", err)
	}

	if size >= 0 && n != size {
		return &Error{
			Err:    ErrContentLengthMismatch,
			Detail: fmt.Sprintf("expected %d bytes, got %d", size, n),
		}
	}

	if err := opts.checksum.Verify(); err != nil {
		return err
	}

	if err := file.Sync(); err != nil {
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := replace(file.Name(), path, opts.backup); err != nil {
		return err
	}

	successful = true

	return nil
}

// Replace atomically writes data to path. See Save.
func Replace(ctx context.Context, path string, data []byte, logger *slog.Logger, optFns ...Option) error {
	return Save(ctx, bytes.NewReader(data), int64(len(data)), path, logger, optFns...)
}

// replace moves tmp over path. With backup, the previous file is kept as
// path+".bak" and restored if the final rename fails.
func replace(tmp, path string, backup bool) error {
	if !backup {
		if err := os.Rename(tmp, path); err != nil {
			return fmt.Errorf("renaming temp file: %w", err)
		}
		return nil
	}

	bak := path + ".bak"
	hadPrev := true
	if err := os.Rename(path, bak); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("backing up previous file: %w", err)
		}
		hadPrev = false
	}

	if err := os.Rename(tmp, path); err != nil {
		if hadPrev {
			if rerr := os.Rename(bak, path); rerr != nil {
				return fmt.Errorf("renaming temp file: %w", errors.Join(err, rerr))
			}
		}
		return fmt.Errorf("renaming temp file: %w", err)
	}

	return nil
}

// contextReader stops reading once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (cr *contextReader) Read(p []byte) (int, error) {
	if err := cr.ctx.Err(); err != nil {
		return 0, err
	}
	return cr.r.Read(p)
}
