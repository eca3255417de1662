package guard

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/overwatch-ops/tacgate/internal/audit"
	"github.com/overwatch-ops/tacgate/internal/directory"
	"github.com/overwatch-ops/tacgate/internal/shared"
)

// RoleAllowed reports whether role is a member of the allow-list. Pure
// predicate, no side effects.
func RoleAllowed(role directory.Role, allowed []directory.Role) bool {
	for _, a := range allowed {
		if role == a {
			return true
		}
	}
	return false
}

// requireRole builds the role-authorization stage for a route's allow-list.
// The allow-list is declared per route and must be non-empty.
func (p *Pipeline) requireRole(allowed []directory.Role) StageFunc {
	return func(r *http.Request) (*http.Request, Decision) {
		principal := shared.PrincipalFromContext(r.Context())
		if principal == nil {
			// requireRole only runs after authenticate; a missing principal
			// means the chain was assembled wrong.
			p.logger.Error("role stage reached without principal", slog.String("path", r.URL.Path))
			return r, DenyUnavailable(StageRole)
		}
		if RoleAllowed(principal.Role, allowed) {
			return r, Admit(StageRole)
		}

		if err := p.recorder.Record(r.Context(), audit.Event{
			Kind:    audit.KindAuthorizationFailure,
			Actor:   principal.ID,
			Action:  r.Method + " " + r.URL.Path,
			Outcome: audit.OutcomeDenied,
			Origin:  r.RemoteAddr,
			Meta:    map[string]any{"required_roles": allowed, "actual_role": principal.Role},
		}); err != nil {
			p.logger.Error("authorization-failure audit failed", slog.Any("error", err))
		}
		reason := fmt.Sprintf("insufficient permissions: requires one of %v, have %s", allowed, principal.Role)
		return r, Deny(StageRole, http.StatusForbidden, CodeInsufficientPermissions, reason)
	}
}
