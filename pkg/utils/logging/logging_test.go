package logging_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/echonotes/pkg/utils/logging"
)

func TestFrom(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	ctx := logging.With(context.Background(), logger)
	logging.From(ctx).Info("hello", "request_id", "req-1")

	gt.String(t, buf.String()).Contains(`"request_id":"req-1"`)
}

func TestFromWithoutLogger(t *testing.T) {
	gt.Value(t, logging.From(context.Background())).Equal(logging.Default())
}
