package safe

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/secmon-lab/echonotes/pkg/utils/logging"
)

// Close closes closer and logs a failure. A nil closer is ignored.
func Close(ctx context.Context, closer io.Closer) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.From(ctx).Error("Failed to close", slog.Any("error", err))
	}
}

// Remove deletes a temporary file and logs a failure other than the file being absent
func Remove(ctx context.Context, path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logging.From(ctx).Warn("Failed to remove file", slog.String("path", path), slog.Any("error", err))
	}
}
