package audiostore

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/secmon-lab/echonotes/pkg/domain/interfaces"
)

// None discards uploads and returns no reference
type None struct{}

var _ interfaces.AudioStore = None{}

func (None) Save(ctx context.Context, filename, contentType string, r io.Reader) (string, error) {
	return "", nil
}

// objectKey returns a new sortable key keeping the upload's extension
func objectKey(filename string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	if len(ext) > 8 || strings.ContainsAny(ext, `/\ `) {
		ext = ""
	}
	return ulid.Make().String() + ext
}
