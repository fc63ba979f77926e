package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

const corsMaxAge = 10 * time.Minute

// corsPolicy is the origin allowlist. A "*" entry admits any origin, which is
// still echoed back rather than sent as "*".
type corsPolicy struct {
	anyOrigin bool
	origins   map[string]bool
	headers   string
	methods   string
	maxAge    string
}

func newCORSPolicy(allowedOrigins []string) corsPolicy {
	p := corsPolicy{
		origins: map[string]bool{},
		headers: strings.Join([]string{"Content-Type", RequestIDHeader, "X-Bland-Signature"}, ", "),
		methods: strings.Join([]string{http.MethodGet, http.MethodPost, http.MethodOptions}, ", "),
		maxAge:  strconv.Itoa(int(corsMaxAge.Seconds())),
	}
	for _, origin := range allowedOrigins {
		switch origin = strings.TrimRight(strings.TrimSpace(origin), "/"); origin {
		case "":
		case "*":
			p.anyOrigin = true
		default:
			p.origins[strings.ToLower(origin)] = true
		}
	}
	return p
}

func (p corsPolicy) allows(origin string) bool {
	return origin != "" && (p.anyOrigin || p.origins[strings.ToLower(origin)])
}

// CORS lets browser tools call the API from allowlisted origins. Preflights
// from allowed origins get 204; from anyone else 403, without reaching the
// handler.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	policy := newCORSPolicy(allowedOrigins)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			preflight := r.Method == http.MethodOptions && origin != "" &&
				r.Header.Get("Access-Control-Request-Method") != ""

			h := w.Header()
			h.Add("Vary", "Origin")
			if !policy.allows(origin) {
				if preflight {
					w.WriteHeader(http.StatusForbidden)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Expose-Headers", RequestIDHeader)
			if preflight {
				h.Set("Access-Control-Allow-Headers", policy.headers)
				h.Set("Access-Control-Allow-Methods", policy.methods)
				h.Set("Access-Control-Max-Age", policy.maxAge)
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
