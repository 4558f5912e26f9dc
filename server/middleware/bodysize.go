package middleware

import "net/http"

// DefaultMaxBodySize bounds execution requests.
const DefaultMaxBodySize = 1 << 20

// BodySizeLimit returns middleware that restricts the request body to
// maxBytes. A non-positive limit uses DefaultMaxBodySize.
func BodySizeLimit(maxBytes int64) Middleware {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodySize
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}
