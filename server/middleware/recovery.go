package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"

	apperrors "github.com/kbukum/execkit/errors"
	"github.com/kbukum/execkit/logger"
)

// Recovery returns middleware that recovers from panics, logs the stack and
// answers with an INTERNAL_ERROR envelope.
func Recovery(log *logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.Error("Panic recovered", map[string]interface{}{
					"error":      fmt.Sprintf("%v", rec),
					"stack":      string(debug.Stack()),
					"path":       r.URL.Path,
					"method":     r.Method,
					"request_id": RequestIDFrom(r.Context()),
				})
				body := apperrors.Internal(fmt.Errorf("panic: %v", rec)).ToResponse()
				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				w.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(w).Encode(body)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
