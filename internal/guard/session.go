package guard

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/overwatch-ops/tacgate/internal/shared"
)

// freshSession enforces the sliding inactivity ceiling tracked through the
// directory's last-activity timestamp. This is the only stage that fails
// open: when the persistence update itself fails, availability of the
// business function outweighs strict session bookkeeping, so the request is
// admitted and the failure logged.
func (p *Pipeline) freshSession(r *http.Request) (*http.Request, Decision) {
	principal := shared.PrincipalFromContext(r.Context())
	if principal == nil {
		p.logger.Error("session stage reached without principal", slog.String("path", r.URL.Path))
		return r, DenyUnavailable(StageSession)
	}

	now := p.now().UTC()
	if principal.LastActivity != nil {
		if now.Sub(*principal.LastActivity) > p.idleCeiling {
			return r, Deny(StageSession, http.StatusUnauthorized, CodeSessionExpired, "session expired due to inactivity")
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), p.lookupTimeout)
	defer cancel()
	if err := p.directory.UpdateLastActivity(ctx, principal.ID, now); err != nil {
		p.logger.Warn("last-activity update failed, admitting",
			slog.String("principal", principal.ID), slog.Any("error", err))
	}
	return r, Admit(StageSession)
}
