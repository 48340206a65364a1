package middleware

import (
	"net/http"
	"strings"

	"github.com/cloo-solutions/tastyfind/internal/api"
)

const bodyTooLarge = "request body too large"

// MaxBodyBytes caps upload size. Requests that announce an oversized body are
// refused up front; the rest are read through http.MaxBytesReader so the form
// parser fails once the cap is crossed.
func MaxBodyBytes(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limit <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch {
			case r.Body == nil || r.Body == http.NoBody:
			case r.ContentLength > limit:
				rejectOversized(w, r)
				return
			default:
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// JSON clients get the api error envelope, browsers plain text.
func rejectOversized(w http.ResponseWriter, r *http.Request) {
	if strings.Contains(r.Header.Get("Accept"), "application/json") ||
		strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		api.Error(w, http.StatusRequestEntityTooLarge, bodyTooLarge)
		return
	}
	http.Error(w, bodyTooLarge, http.StatusRequestEntityTooLarge)
}
