package guard

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/overwatch-ops/tacgate/internal/audit"
	"github.com/overwatch-ops/tacgate/internal/directory"
	"github.com/overwatch-ops/tacgate/internal/shared"
)

// authenticate resolves the bearer credential to a principal and attaches it
// to the request context. Exactly one directory lookup per request; the
// directory is never mutated here.
func (p *Pipeline) authenticate(r *http.Request) (*http.Request, Decision) {
	raw := p.extractCredential(r)
	if raw == "" {
		return r, Deny(StageToken, http.StatusUnauthorized, CodeNoToken, "no credential supplied")
	}

	subject, err := p.verifier.Verify(raw)
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			return r, Deny(StageToken, http.StatusUnauthorized, CodeTokenExpired, "token expired")
		}
		return r, Deny(StageToken, http.StatusUnauthorized, CodeInvalidToken, "invalid token format")
	}

	ctx, cancel := context.WithTimeout(r.Context(), p.lookupTimeout)
	defer cancel()
	principal, err := p.directory.FindByID(ctx, subject)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return r, Deny(StageToken, http.StatusUnauthorized, CodeInvalidUser, "principal not found")
		}
		p.logger.Error("directory lookup failed", slog.String("subject", subject), slog.Any("error", err))
		return r, DenyUnavailable(StageToken)
	}
	if !principal.IsActive {
		return r, Deny(StageToken, http.StatusUnauthorized, CodeAccountDeactivated, "account deactivated")
	}

	if err := p.recorder.Record(r.Context(), audit.Event{
		Kind:    audit.KindAccess,
		Actor:   principal.ID,
		Action:  r.Method + " " + r.URL.Path,
		Outcome: audit.OutcomeAdmitted,
		Origin:  r.RemoteAddr,
		Meta:    map[string]any{"user_agent": r.UserAgent()},
	}); err != nil {
		p.logger.Error("access audit failed", slog.Any("error", err))
		return r, DenyUnavailable(StageToken)
	}

	return r.WithContext(shared.ContextWithPrincipal(r.Context(), principal)), Admit(StageToken)
}

// extractCredential checks the Authorization header first, then the token
// cookie. The header wins when both are present.
func (p *Pipeline) extractCredential(r *http.Request) string {
	const prefix = "Bearer "
	if header := r.Header.Get("Authorization"); len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	if cookie, err := r.Cookie(p.cookieName); err == nil {
		return cookie.Value
	}
	return ""
}
