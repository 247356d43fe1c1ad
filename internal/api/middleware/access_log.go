package middleware

import (
	"net/http"

	"github.com/gorilla/mux"
)

// AccessLog пишет строку лога на каждый запрос
func AccessLog(logger Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := newStatusRecorder(w)
			next.ServeHTTP(rec, r)

			requestID, _ := GetRequestID(r.Context())
			if rec.status >= http.StatusInternalServerError {
				logger.Warn("%s %s -> %d (request_id=%s)", r.Method, r.URL.Path, rec.status, requestID)
				return
			}
			logger.Info("%s %s -> %d (request_id=%s)", r.Method, r.URL.Path, rec.status, requestID)
		})
	}
}
