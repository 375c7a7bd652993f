package audiostore

import (
	"context"
	"io"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/echonotes/pkg/domain/interfaces"
	"github.com/secmon-lab/echonotes/pkg/utils/logging"
	"github.com/secmon-lab/echonotes/pkg/utils/safe"
	"github.com/spf13/afero"
)

// FS stores uploads as files under a base directory
type FS struct {
	fs  afero.Fs
	dir string
}

var _ interfaces.AudioStore = &FS{}

type FSOption func(*FS)

// WithFs replaces the underlying filesystem, mainly for tests
func WithFs(fs afero.Fs) FSOption {
	return func(s *FS) {
		s.fs = fs
	}
}

func NewFS(dir string, opts ...FSOption) (*FS, error) {
	if dir == "" {
		return nil, goerr.New("audio directory is required")
	}
	s := &FS{fs: afero.NewOsFs(), dir: dir}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.fs.MkdirAll(dir, 0o750); err != nil {
		return nil, goerr.Wrap(err, "failed to create audio directory", goerr.V("dir", dir))
	}
	return s, nil
}

// Save writes the upload and returns its path
func (s *FS) Save(ctx context.Context, filename, contentType string, r io.Reader) (string, error) {
	path := filepath.Join(s.dir, objectKey(filename))

	f, err := s.fs.Create(path)
	if err != nil {
		return "", goerr.Wrap(err, "failed to create audio file", goerr.V("path", path))
	}

	n, err := io.Copy(f, r)
	if err != nil {
		safe.Close(ctx, f)
		if rmErr := s.fs.Remove(path); rmErr != nil {
			logging.From(ctx).Warn("failed to remove partial audio file", "error", rmErr, "path", path)
		}
		return "", goerr.Wrap(err, "failed to write audio file", goerr.V("path", path))
	}
	if err := f.Close(); err != nil {
		return "", goerr.Wrap(err, "failed to close audio file", goerr.V("path", path))
	}

	logging.From(ctx).Debug("audio saved", "path", path, "bytes", n, "content_type", contentType)
	return path, nil
}
