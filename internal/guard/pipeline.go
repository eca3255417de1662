// Package guard implements the request-admission pipeline: token
// authentication, role authorization, elevated command authorization and
// session-freshness enforcement, with audit events emitted at each stage.
package guard

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/overwatch-ops/tacgate/internal/audit"
	"github.com/overwatch-ops/tacgate/internal/directory"
)

// StageFunc is one admission stage. It may derive a new request (for example
// to attach the principal or restore a consumed body) and returns the stage
// decision. Stages run strictly in order within a request; the first denial
// terminates the chain.
type StageFunc func(r *http.Request) (*http.Request, Decision)

// Config collects pipeline dependencies. All values are fixed at startup.
type Config struct {
	Logger        *slog.Logger
	TokenSecret   string
	CookieName    string
	Directory     directory.Repository
	Recorder      audit.Recorder
	IdleCeiling   time.Duration
	LookupTimeout time.Duration

	// Now is overridable for tests; defaults to time.Now.
	Now func() time.Time
}

// Pipeline builds admission middleware chains for protected routes.
type Pipeline struct {
	logger        *slog.Logger
	verifier      *TokenVerifier
	cookieName    string
	directory     directory.Repository
	recorder      audit.Recorder
	idleCeiling   time.Duration
	lookupTimeout time.Duration
	now           func() time.Time
}

// New constructs a Pipeline.
func New(cfg Config) *Pipeline {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cookieName := cfg.CookieName
	if cookieName == "" {
		cookieName = "tacgate_token"
	}
	idle := cfg.IdleCeiling
	if idle <= 0 {
		idle = 30 * time.Minute
	}
	lookup := cfg.LookupTimeout
	if lookup <= 0 {
		lookup = 5 * time.Second
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Pipeline{
		logger:        logger,
		verifier:      NewTokenVerifier(cfg.TokenSecret),
		cookieName:    cookieName,
		directory:     cfg.Directory,
		recorder:      cfg.Recorder,
		idleCeiling:   idle,
		lookupTimeout: lookup,
		now:           now,
	}
}

// Protect returns the admission chain for ordinary protected routes:
// authenticate, then role allow-list, then session freshness.
func (p *Pipeline) Protect(allowed ...directory.Role) func(http.Handler) http.Handler {
	return p.chain(p.authenticate, p.requireRole(allowed), p.freshSession)
}

// ProtectCommand returns the admission chain for command-critical routes.
// The elevated command authorizer runs between the role allow-list and the
// session guard.
func (p *Pipeline) ProtectCommand(allowed ...directory.Role) func(http.Handler) http.Handler {
	return p.chain(p.authenticate, p.requireRole(allowed), p.authorizeCommand, p.freshSession)
}

// chain drives the ordered stage list, short-circuiting on the first denial
// so no later stage and no protected handler runs.
func (p *Pipeline) chain(stages ...StageFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, stage := range stages {
				updated, decision := stage(r)
				if !decision.Admitted {
					decision.Write(w)
					return
				}
				r = updated
			}
			next.ServeHTTP(w, r)
		})
	}
}
