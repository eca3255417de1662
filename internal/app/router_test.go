package app_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/overwatch-ops/tacgate/internal/app"
	"github.com/overwatch-ops/tacgate/internal/audit"
	"github.com/overwatch-ops/tacgate/internal/directory"
	"github.com/overwatch-ops/tacgate/internal/guard"
	"github.com/overwatch-ops/tacgate/internal/ops"
	"github.com/overwatch-ops/tacgate/internal/ratelimit"
	_ "github.com/overwatch-ops/tacgate/testing"
)

const testSecret = "router-test-signing-secret"

type env struct {
	router   http.Handler
	repo     *directory.MemoryRepository
	recorder *audit.MemoryRecorder
}

func newEnv(t *testing.T) *env {
	t.Helper()
	repo := directory.NewMemoryRepository()
	recorder := audit.NewMemoryRecorder()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	limiter := ratelimit.New(client, 10, 5*time.Minute, time.Second)

	pipeline := guard.New(guard.Config{
		TokenSecret: testSecret,
		Directory:   repo,
		Recorder:    recorder,
		IdleCeiling: 30 * time.Minute,
	})

	router := app.NewRouter(app.RouterParams{
		Config:           &app.Config{AppRequestTimeout: 30 * time.Second},
		Pipeline:         pipeline,
		SensitiveLimiter: ratelimit.Middleware{Limiter: limiter, Recorder: recorder},
		OpsHandler:       ops.NewHandler(nil),
	})
	return &env{router: router, repo: repo, recorder: recorder}
}

func (e *env) seed(t *testing.T, id string, role directory.Role, commandPassword string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(commandPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	e.repo.Put(&directory.Principal{
		ID:          id,
		Callsign:    strings.ToUpper(id),
		Role:        role,
		IsActive:    true,
		CommandHash: string(hash),
	})
}

func (e *env) token(t *testing.T, subject string) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return raw
}

func (e *env) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = "10.0.0.7:44000"
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res := httptest.NewRecorder()
	e.router.ServeHTTP(res, req)
	return res
}

func TestHealthzIsOpen(t *testing.T) {
	e := newEnv(t)
	res := e.do(t, http.MethodGet, "/healthz", "", "")
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
}

func TestMissionsRequireToken(t *testing.T) {
	e := newEnv(t)
	res := e.do(t, http.MethodGet, "/api/missions", "", "")
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), "NO_TOKEN") {
		t.Fatalf("expected NO_TOKEN in body: %s", res.Body.String())
	}
}

func TestOperatorReadsTacticalPicture(t *testing.T) {
	e := newEnv(t)
	e.seed(t, "op-1", directory.RoleOperator, "unused")
	token := e.token(t, "op-1")

	for _, path := range []string{"/api/missions", "/api/agents", "/api/terrain"} {
		res := e.do(t, http.MethodGet, path, token, "")
		if res.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d: %s", path, res.Code, res.Body.String())
		}
	}
}

func TestOperatorCannotCreateMission(t *testing.T) {
	e := newEnv(t)
	e.seed(t, "op-1", directory.RoleOperator, "unused")

	res := e.do(t, http.MethodPost, "/api/missions", e.token(t, "op-1"),
		`{"codename":"NIGHT WATCH","objective":"perimeter","priority":"LOW"}`)
	if res.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), "INSUFFICIENT_PERMISSIONS") {
		t.Fatalf("expected INSUFFICIENT_PERMISSIONS: %s", res.Body.String())
	}
}

// An ADMIN with a valid token and correct command secret on a
// command-critical route: admitted, with exactly one CRITICAL_OPERATION
// audit event.
func TestAdminAbortsMissionEndToEnd(t *testing.T) {
	e := newEnv(t)
	e.seed(t, "adm-1", directory.RoleAdmin, "zero-dark-30")

	res := e.do(t, http.MethodPost, "/api/missions/m-001/abort", e.token(t, "adm-1"),
		`{"commandPassword":"zero-dark-30","reason":"compromised"}`)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}

	var mission struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(res.Body.Bytes(), &mission); err != nil {
		t.Fatalf("decode mission: %v", err)
	}
	if mission.Status != "ABORTED" {
		t.Fatalf("expected mission ABORTED, got %s", mission.Status)
	}

	critical := e.recorder.ByKind(audit.KindCriticalOperation)
	if len(critical) != 1 {
		t.Fatalf("expected exactly one CRITICAL_OPERATION event, got %d", len(critical))
	}
	if critical[0].Actor != "adm-1" {
		t.Fatalf("unexpected actor: %s", critical[0].Actor)
	}
}

// An OPERATOR on the same command-critical route is denied at the command
// stage before the secret is ever inspected.
func TestOperatorDeniedCommandAuthority(t *testing.T) {
	e := newEnv(t)
	e.seed(t, "op-1", directory.RoleOperator, "zero-dark-30")

	res := e.do(t, http.MethodPost, "/api/missions/m-001/abort", e.token(t, "op-1"),
		`{"commandPassword":"zero-dark-30"}`)
	if res.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), "COMMAND_AUTH_REQUIRED") {
		t.Fatalf("expected COMMAND_AUTH_REQUIRED: %s", res.Body.String())
	}
	if len(e.recorder.ByKind(audit.KindSecurityAlert)) != 0 {
		t.Fatalf("secret must not have been inspected")
	}
}

func TestSensitiveRouteRateLimit(t *testing.T) {
	e := newEnv(t)
	e.seed(t, "adm-1", directory.RoleAdmin, "zero-dark-30")
	token := e.token(t, "adm-1")

	var last *httptest.ResponseRecorder
	for i := 0; i < 11; i++ {
		last = e.do(t, http.MethodPost, "/api/missions/m-001/abort", token,
			`{"commandPassword":"zero-dark-30"}`)
	}
	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("11th request within the window must be throttled, got %d", last.Code)
	}
	if !strings.Contains(last.Body.String(), "RATE_LIMIT_SENSITIVE") {
		t.Fatalf("expected RATE_LIMIT_SENSITIVE: %s", last.Body.String())
	}
	if len(e.recorder.ByKind(audit.KindRateLimit)) != 1 {
		t.Fatalf("rate-limit denial must be audited once")
	}
}

func TestAgentDeprovisionEndToEnd(t *testing.T) {
	e := newEnv(t)
	e.seed(t, "cmd-1", directory.RoleCommander, "zero-dark-30")

	res := e.do(t, http.MethodDelete, "/api/agents/a-103", e.token(t, "cmd-1"),
		`{"commandPassword":"zero-dark-30"}`)
	if res.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", res.Code, res.Body.String())
	}

	// The roster no longer lists the deprovisioned agent.
	list := e.do(t, http.MethodGet, "/api/agents", e.token(t, "cmd-1"), "")
	if strings.Contains(list.Body.String(), "a-103") {
		t.Fatalf("agent a-103 should be gone: %s", list.Body.String())
	}
}
