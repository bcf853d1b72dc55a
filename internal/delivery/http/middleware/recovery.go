package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	h "eventhub/internal/delivery/http/helpers"
)

// Recovery converts handler panics into 500 responses so a single bad
// request cannot take the server down. The panic value and stack are logged.
func Recovery(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("panic recovered",
					"error", rec,
					"path", r.URL.Path,
					"stack", string(debug.Stack()),
				)
				h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
