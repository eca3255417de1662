package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/overwatch-ops/tacgate/internal/directory"
	"github.com/overwatch-ops/tacgate/internal/guard"
	"github.com/overwatch-ops/tacgate/internal/ops"
	"github.com/overwatch-ops/tacgate/internal/ratelimit"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	Pipeline         *guard.Pipeline
	SensitiveLimiter ratelimit.Middleware
	OpsHandler       *ops.Handler
}

// NewRouter constructs the chi.Router with tacgate defaults. The sensitive
// limiter is mounted ahead of the admission chain on command-critical route
// groups: it is origin-keyed and short-circuits before authentication.
func NewRouter(params RouterParams) http.Handler {
	if params.Logger == nil {
		params.Logger = slog.Default()
	}
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		// Read-only tactical picture, open to every role.
		r.Group(func(r chi.Router) {
			r.Use(params.Pipeline.Protect(directory.RoleOperator, directory.RoleCommander, directory.RoleAdmin))
			r.Get("/missions", params.OpsHandler.ListMissions)
			r.Get("/agents", params.OpsHandler.ListAgents)
			r.Get("/terrain", params.OpsHandler.Terrain)
		})

		// Mission planning requires command rank.
		r.Group(func(r chi.Router) {
			r.Use(params.Pipeline.Protect(directory.RoleCommander, directory.RoleAdmin))
			r.Post("/missions", params.OpsHandler.CreateMission)
		})

		// Destructive operations: sensitive rate limit, then the full chain
		// including elevated command authorization. The allow-list admits
		// every role so that privilege is judged by the command stage, which
		// carries the precise denial code.
		r.Group(func(r chi.Router) {
			r.Use(params.SensitiveLimiter.Handler)
			r.Use(params.Pipeline.ProtectCommand(directory.RoleOperator, directory.RoleCommander, directory.RoleAdmin))
			r.Post("/missions/{missionID}/abort", params.OpsHandler.AbortMission)
			r.Delete("/agents/{agentID}", params.OpsHandler.DeprovisionAgent)
		})
	})

	return r
}
