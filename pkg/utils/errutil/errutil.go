package errutil

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/echonotes/pkg/utils/logging"
)

var sentryEnabled atomic.Bool

// EnableSentry turns on error reporting. sentry.Init must have been called.
func EnableSentry() {
	sentryEnabled.Store(true)
}

func errorAttrs(err error) []any {
	attrs := []any{slog.String("error", err.Error())}

	var ge *goerr.Error
	if errors.As(err, &ge) {
		attrs = append(attrs,
			slog.Any("values", ge.Values()),
			slog.Any("stack", ge.Stacks()),
		)
	}
	return attrs
}

func report(ctx context.Context, err error) {
	if !sentryEnabled.Load() {
		return
	}

	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub().Clone()
	}

	var evID *sentry.EventID
	hub.WithScope(func(scope *sentry.Scope) {
		var ge *goerr.Error
		if errors.As(err, &ge) {
			scope.SetContext("goerr", sentry.Context(ge.Values()))
		}
		evID = hub.CaptureException(err)
	})

	if evID != nil {
		logging.From(ctx).Info("Error reported to sentry", slog.Any("event_id", *evID))
	}
}

// Handle logs err with its goerr values and reports it when error reporting is enabled
func Handle(ctx context.Context, err error, msg string) {
	if err == nil {
		return
	}

	logging.From(ctx).Error(msg, errorAttrs(err)...)
	report(ctx, err)
}

// HandleHTTP logs err with the response status. Only 5xx errors are reported.
func HandleHTTP(ctx context.Context, err error, statusCode int) {
	if err == nil {
		return
	}

	attrs := append([]any{slog.Int("status", statusCode)}, errorAttrs(err)...)
	if statusCode >= http.StatusInternalServerError {
		logging.From(ctx).Error("HTTP error", attrs...)
		report(ctx, err)
		return
	}
	logging.From(ctx).Warn("HTTP client error", attrs...)
}
