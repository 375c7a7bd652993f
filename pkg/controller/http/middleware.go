package http

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/secmon-lab/echonotes/pkg/domain/model"
	"github.com/secmon-lab/echonotes/pkg/utils/logging"
)

const requestIDHeader = "X-Request-Id"

// requestMetaMiddleware attaches a fresh request ledger to every request. An
// incoming X-Request-Id is kept, otherwise one is generated; either way it is echoed.
func requestMetaMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)

		ctx := model.ContextWithRequestMeta(r.Context(), model.NewRequestMeta(requestID))
		ctx = logging.With(ctx, logging.From(ctx).With("request_id", requestID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
