package middleware

import (
	"net/http"

	"formfill/internal/logs"
)

// DefaultMaxBodyBytes - 512 MiB.
const DefaultMaxBodyBytes int64 = 512 << 20

// BodyLimit отклоняет запрос с 413 до вызова обработчика, если заявленный
// Content-Length больше limit. Тело без длины (chunked) обрезается MaxBytesReader.
func BodyLimit(limit int64) func(http.Handler) http.Handler {
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > limit {
				logs.Logger.Warnf("rejecting request: payload too large reqid=%s content_length=%d limit=%d",
					GetRequestID(r), r.ContentLength, limit)
				http.Error(w, "Payload too large", http.StatusRequestEntityTooLarge)
				return
			}
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}
