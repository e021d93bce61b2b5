// Package middleware provides HTTP middleware for the Zeon API.
package middleware

import (
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
)

const (
	allowMethods  = "GET, POST, PUT, DELETE, OPTIONS, HEAD"
	allowHeaders  = "Content-Type, Authorization, X-Requested-With, Accept, Origin, Cache-Control, X-File-Name, X-Zeon-Session-ID, X-Zeon-Wallet"
	exposeHeaders = "Content-Length, X-Processing-Time"
)

// DefaultAllowedOrigins are the web frontends and local dev servers.
var DefaultAllowedOrigins = []string{
	"https://zeonai.xyz",
	"https://www.zeonai.xyz",
	"http://localhost:3000",
	"http://localhost:5173",
	"http://localhost:5174",
	"http://127.0.0.1:3000",
	"http://127.0.0.1:5173",
	"http://127.0.0.1:5174",
}

// DefaultAllowedPatterns are host patterns for preview deployments.
var DefaultAllowedPatterns = []string{"*.vercel.app", "*.netlify.app"}

// productionPattern admits every zeonai.xyz subdomain in production.
const productionPattern = "*.zeonai.xyz"

// CORSOptions configures the CORS middleware.
type CORSOptions struct {
	// AllowedOrigins are exact origins. "*" allows any origin but never
	// with credentials.
	AllowedOrigins []string
	// AllowedPatterns are host patterns in path.Match syntax.
	AllowedPatterns []string
	Production      bool
}

// OriginPatterns returns the host patterns equivalent to opts, in the form
// websocket origin checks expect.
func (o CORSOptions) OriginPatterns() []string {
	var out []string
	for _, origin := range o.AllowedOrigins {
		if origin == "*" {
			return []string{"*"}
		}
		if u, err := url.Parse(origin); err == nil && u.Host != "" {
			out = append(out, u.Host)
		}
	}
	out = append(out, o.AllowedPatterns...)
	if o.Production {
		out = append(out, productionPattern, "zeonai.xyz")
	}
	return out
}

// match reports whether origin is allowed and whether credentials may be
// sent with it.
func (o CORSOptions) match(origin string) (allowed, credentials bool) {
	wildcard := false
	for _, a := range o.AllowedOrigins {
		if a == origin {
			return true, true
		}
		if a == "*" {
			wildcard = true
		}
	}

	u, err := url.Parse(origin)
	if err == nil && u.Hostname() != "" {
		host := strings.ToLower(u.Hostname())
		patterns := o.AllowedPatterns
		if o.Production {
			patterns = append(append([]string{}, patterns...), productionPattern)
		}
		for _, p := range patterns {
			if ok, _ := path.Match(strings.ToLower(p), host); ok {
				return true, true
			}
		}
	}
	return wildcard, false
}

// CORS returns middleware that handles CORS headers. Preflight requests are
// answered with 200 whether or not the origin is allowed.
func CORS(opts CORSOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			if origin != "" {
				allowed, credentials := opts.match(origin)
				if allowed {
					h := w.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
					h.Set("Access-Control-Allow-Methods", allowMethods)
					h.Set("Access-Control-Allow-Headers", allowHeaders)
					h.Set("Access-Control-Expose-Headers", exposeHeaders)
					// Only allow credentials for listed origins and patterns,
					// never for a "*" echo.
					if credentials {
						h.Set("Access-Control-Allow-Credentials", "true")
					}
				} else {
					slog.Debug("CORS origin rejected", "origin", origin)
				}
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
