package ratelimit

import (
	"log/slog"
	"net"
	"net/http"

	"github.com/overwatch-ops/tacgate/internal/audit"
	"github.com/overwatch-ops/tacgate/internal/guard"
)

// Middleware gates request volume on sensitive routes. It is origin-keyed,
// not identity-keyed, so it runs before token authentication. Denials are
// audited as RATE_LIMIT events; the actor field stays empty because the
// caller was never identified.
type Middleware struct {
	Limiter  *Limiter
	Recorder audit.Recorder
	Logger   *slog.Logger
}

// Handler wraps next with the sensitive-route limiter.
func (m Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := originFromRequest(r)
		allowed, err := m.Limiter.Allow(r.Context(), origin)
		if err != nil {
			if m.Logger != nil {
				m.Logger.Error("rate limiter unavailable", slog.Any("error", err))
			}
			guard.DenyUnavailable(guard.StageRateLimit).Write(w)
			return
		}
		if !allowed {
			if err := m.Recorder.Record(r.Context(), audit.Event{
				Kind:    audit.KindRateLimit,
				Action:  r.Method + " " + r.URL.Path,
				Outcome: audit.OutcomeDenied,
				Origin:  r.RemoteAddr,
				Meta:    map[string]any{"ceiling": m.Limiter.Ceiling(), "window": m.Limiter.Window().String()},
			}); err != nil && m.Logger != nil {
				m.Logger.Error("rate-limit audit failed", slog.Any("error", err))
			}
			guard.Deny(guard.StageRateLimit, http.StatusTooManyRequests, guard.CodeRateLimitSensitive, "rate limit exceeded").Write(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// originFromRequest keys the counter by client IP. RemoteAddr has already
// been rewritten by the RealIP middleware when proxy headers are present.
func originFromRequest(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
