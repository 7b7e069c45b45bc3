package middleware

import (
	"net/http"

	"github.com/finchworks/gatehouse/internal/security"
	pkghttp "github.com/finchworks/gatehouse/pkg/http"
)

// BlocklistGate rejects requests from blocked origin IPs before any handler
// work happens. This sits on the hot path of every guarded route; the
// not-blocked case is a single map lookup inside Admit.
func BlocklistGate(gate *security.RateLimitGate, ipConfig *pkghttp.IPConfig) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			meta := security.RequestMeta{
				IPAddress:     pkghttp.ExtractClientIP(r, ipConfig),
				UserAgent:     r.UserAgent(),
				RequestMethod: r.Method,
				RequestURL:    r.URL.Path,
			}

			if !gate.Admit(r.Context(), meta) {
				pkghttp.WriteTooManyRequests(w, "origin address is temporarily blocked")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
