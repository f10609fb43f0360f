// Package apicors provides CORS middleware for the bearer-token API.
//
// Bearer tokens travel in the Authorization header, never in cookies, so
// credentials are not allowed and any origin may be accepted.
package apicors

import (
	"net/http"
	"strings"
)

const (
	allowMethods = "GET, POST, PATCH, DELETE, OPTIONS"
	allowHeaders = "Authorization, Content-Type, Accept, X-Request-Id"
	maxAge       = "86400"
)

// Middleware returns CORS middleware for /api routes. With no origins (or
// a "*" entry) every origin is allowed; otherwise only the listed origins
// receive an Access-Control-Allow-Origin header. Preflight requests are
// answered with 204.
//
// Usage in routes.go:
//
//	r.Route("/api", func(r chi.Router) {
//	    r.Use(apicors.Middleware(appCfg.APIAllowedOrigins))
//	    r.Mount("/auth", authapi.Routes(authHandler))
//	})
func Middleware(origins []string) func(http.Handler) http.Handler {
	anyOrigin := len(origins) == 0
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o == "*" {
			anyOrigin = true
		}
		allowed[o] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			if anyOrigin {
				h.Set("Access-Control-Allow-Origin", "*")
			} else if origin := r.Header.Get("Origin"); origin != "" {
				h.Add("Vary", "Origin")
				if _, ok := allowed[origin]; ok {
					h.Set("Access-Control-Allow-Origin", origin)
				}
			}
			h.Set("Access-Control-Allow-Methods", allowMethods)
			h.Set("Access-Control-Allow-Headers", allowHeaders)
			h.Set("Access-Control-Max-Age", maxAge)

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
