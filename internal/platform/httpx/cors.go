package httpx

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	headerOrigin           = "Origin"
	headerVary             = "Vary"
	headerAllowOrigin      = "Access-Control-Allow-Origin"
	headerAllowCredentials = "Access-Control-Allow-Credentials"
	headerAllowMethods     = "Access-Control-Allow-Methods"
	headerAllowHeaders     = "Access-Control-Allow-Headers"
	headerMaxAge           = "Access-Control-Max-Age"
	headerRequestMethod    = "Access-Control-Request-Method"
	headerRequestHeaders   = "Access-Control-Request-Headers"
	defaultPreflightMaxAge = 10 * time.Minute
)

// CORSPolicy configures the CORS middleware.
type CORSPolicy struct {
	// AllowOrigin is sent as Access-Control-Allow-Origin. Empty means "*".
	AllowOrigin string
	// AllowCredentials sends Access-Control-Allow-Credentials: true.
	AllowCredentials bool
	// MaxAge is how long browsers may cache a preflight. Zero means 10m.
	MaxAge time.Duration
}

// PermissiveCORS allows any origin, method and header, with credentials.
//
// Browsers refuse credentialed responses carrying a wildcard origin, so in
// practice this admits any origin without cookies. It is kept for the dev
// frontends that call the API; tighten AllowOrigin before exposing it.
var PermissiveCORS = CORSPolicy{AllowOrigin: "*", AllowCredentials: true}

// CORS sets the policy headers on every response and answers preflight
// requests directly, echoing the requested method and headers.
func CORS(policy CORSPolicy) Middleware {
	origin := strings.TrimSpace(policy.AllowOrigin)
	if origin == "" {
		origin = "*"
	}
	maxAge := policy.MaxAge
	if maxAge <= 0 {
		maxAge = defaultPreflightMaxAge
	}
	maxAgeSeconds := strconv.Itoa(int(maxAge / time.Second))

	return func(next http.Handler) http.Handler {
		if next == nil {
			next = http.NotFoundHandler()
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Add(headerVary, headerOrigin)
			h.Set(headerAllowOrigin, origin)
			if policy.AllowCredentials {
				h.Set(headerAllowCredentials, "true")
			}

			if r.Method == http.MethodOptions && r.Header.Get(headerRequestMethod) != "" {
				h.Set(headerAllowMethods, strings.ToUpper(strings.TrimSpace(r.Header.Get(headerRequestMethod))))
				if requested := strings.TrimSpace(r.Header.Get(headerRequestHeaders)); requested != "" {
					h.Set(headerAllowHeaders, requested)
				}
				h.Set(headerMaxAge, maxAgeSeconds)
				h.Set("Content-Type", "text/plain; charset=utf-8")
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte("OK"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
