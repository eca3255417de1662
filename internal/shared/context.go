package shared

import (
	"context"

	"github.com/overwatch-ops/tacgate/internal/directory"
)

type principalContextKey struct{}

// ContextWithPrincipal stores the authenticated principal in context.
func ContextWithPrincipal(ctx context.Context, p *directory.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the authenticated principal from context.
// Returns nil when the request has not passed token authentication.
func PrincipalFromContext(ctx context.Context) *directory.Principal {
	p, _ := ctx.Value(principalContextKey{}).(*directory.Principal)
	return p
}
