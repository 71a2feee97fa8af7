package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/mesh-intelligence/rolodex/internal/res"
	"github.com/mesh-intelligence/rolodex/pkg/types"
)

// NewPingHandler reports store health.
func NewPingHandler(log *slog.Logger, store types.Store, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		if err := store.Ping(ctx); err != nil {
			log.Warn("store ping failed", "error", err)
			res.Json(w, map[string]string{"store": "unavailable"}, http.StatusServiceUnavailable)
			return
		}
		res.Json(w, map[string]string{"store": "ok"}, http.StatusOK)
	}
}
