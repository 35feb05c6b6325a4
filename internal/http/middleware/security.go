package middleware

import "net/http"

// SecurityHeaders adds a conservative set of security headers to every
// response. The API serves JSON only, so the policy can be strict.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Del("X-Powered-By")
		next.ServeHTTP(w, r)
	})
}
