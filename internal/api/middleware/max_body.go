package middleware

import (
	"fmt"
	"net/http"

	"github.com/unipilot/unipilot/internal/api"
)

// MaxBodyBytes rejects declared oversized bodies with 413 and caps streamed
// ones, so handlers see a *http.MaxBytesError on read.
func MaxBodyBytes(limit int64) func(http.Handler) http.Handler {
	message := fmt.Sprintf("request body too large (limit %d bytes)", limit)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limit <= 0 || r.Body == nil || r.Body == http.NoBody {
				next.ServeHTTP(w, r)
				return
			}

			if r.ContentLength > limit {
				api.Error(w, http.StatusRequestEntityTooLarge, message)
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
