package middleware

import (
	"net/http"
	"strings"
)

// ContentSecurityPolicy is the policy sent with preview pages. It admits
// the CDNs the page loads Tailwind, KaTeX and mermaid from, YouTube embeds,
// and the inline scripts of the page and its components.
var ContentSecurityPolicy = strings.Join([]string{
	"default-src 'self'",
	"script-src 'self' 'unsafe-inline' https://cdn.tailwindcss.com https://cdn.jsdelivr.net",
	"style-src 'self' 'unsafe-inline' https://cdn.jsdelivr.net",
	"font-src 'self' https://cdn.jsdelivr.net",
	"img-src 'self' data: https:",
	"frame-src https://www.youtube.com",
	"connect-src 'self' ws: wss:",
	"object-src 'none'",
	"base-uri 'self'",
}, "; ")

// SecurityHeaders sets the response headers that keep a rendered document
// from being framed by or sniffed as something else.
func SecurityHeaders() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Content-Security-Policy", ContentSecurityPolicy)
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "SAMEORIGIN")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			next.ServeHTTP(w, r)
		})
	}
}

// NoCache marks responses as uncacheable so reloads always show the latest
// render.
func NoCache() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "no-store")
			next.ServeHTTP(w, r)
		})
	}
}
