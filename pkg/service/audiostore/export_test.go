package audiostore

import (
	"context"
	"io"
)

// ObjectWriter is the writer handed to Save in tests
type ObjectWriter interface {
	io.Writer
	Close() error
}

func NewGCSForTest(bucket, prefix string, newWriter func(ctx context.Context, key, contentType, filename string) ObjectWriter) *GCS {
	return &GCS{
		bucket: bucket,
		prefix: prefix,
		newWriter: func(ctx context.Context, key, contentType, filename string) objectWriter {
			return newWriter(ctx, key, contentType, filename)
		},
	}
}
