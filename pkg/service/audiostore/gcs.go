package audiostore

import (
	"context"
	"fmt"
	"io"
	"path"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/echonotes/pkg/domain/interfaces"
	"github.com/secmon-lab/echonotes/pkg/utils/logging"
)

// objectWriter is the part of *storage.Writer used by Save
type objectWriter interface {
	io.Writer
	Close() error
}

type writerFactory func(ctx context.Context, key, contentType, filename string) objectWriter

// GCS stores uploads as objects in a Cloud Storage bucket
type GCS struct {
	client    *storage.Client
	bucket    string
	prefix    string
	newWriter writerFactory
}

var _ interfaces.AudioStore = &GCS{}

func NewGCS(ctx context.Context, bucket, prefix string) (*GCS, error) {
	if bucket == "" {
		return nil, goerr.New("audio bucket is required")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage client")
	}
	s := &GCS{client: client, bucket: bucket, prefix: prefix}
	s.newWriter = s.objectWriter
	return s, nil
}

func (s *GCS) objectWriter(ctx context.Context, key, contentType, filename string) objectWriter {
	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	w.Metadata = map[string]string{"original_filename": filename}
	return w
}

// Save uploads the audio and returns a gs:// reference. A failed read cancels the
// upload so no partial object is committed.
func (s *GCS) Save(ctx context.Context, filename, contentType string, r io.Reader) (string, error) {
	key := path.Join(s.prefix, objectKey(filename))

	writeCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	w := s.newWriter(writeCtx, key, contentType, filename)

	if _, err := io.Copy(w, r); err != nil {
		cancel()
		return "", goerr.Wrap(err, "failed to upload audio", goerr.V("bucket", s.bucket), goerr.V("key", key))
	}
	if err := w.Close(); err != nil {
		return "", goerr.Wrap(err, "failed to finalize audio upload", goerr.V("bucket", s.bucket), goerr.V("key", key))
	}

	ref := fmt.Sprintf("gs://%s/%s", s.bucket, key)
	logging.From(ctx).Debug("audio uploaded", "ref", ref)
	return ref, nil
}

func (s *GCS) Close() error {
	if s.client == nil {
		return nil
	}
	if err := s.client.Close(); err != nil {
		return goerr.Wrap(err, "failed to close storage client")
	}
	return nil
}
