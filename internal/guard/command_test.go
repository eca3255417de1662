package guard_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/overwatch-ops/tacgate/internal/audit"
	"github.com/overwatch-ops/tacgate/internal/directory"
)

func commandRequest(t *testing.T, subject, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/missions/m-001/abort", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+mintToken(t, testSecret, subject, time.Now().Add(time.Hour)))
	return req
}

func TestCommandDeniesUnprivilegedRoleBeforeSecretCheck(t *testing.T) {
	f := newFixture(t, nil)
	f.putOperator(t, "op-1", directory.RoleOperator, true, nil)
	next := &okHandler{}
	h := f.pipeline.ProtectCommand(allRoles()...)(next)

	// Even a correct secret must not matter for an unprivileged role.
	res := httptest.NewRecorder()
	h.ServeHTTP(res, commandRequest(t, "op-1", `{"commandPassword":"override-red-5"}`))

	require.Equal(t, http.StatusForbidden, res.Code)
	code, _ := decodeDenial(t, res)
	require.Equal(t, "COMMAND_AUTH_REQUIRED", code)
	require.Zero(t, next.called)
	require.Empty(t, f.recorder.ByKind(audit.KindSecurityAlert),
		"secret must never be inspected for unprivileged roles")
	require.Empty(t, f.recorder.ByKind(audit.KindCriticalOperation))
}

func TestCommandRequiresSecret(t *testing.T) {
	f := newFixture(t, nil)
	f.putOperator(t, "cmd-1", directory.RoleCommander, true, nil)
	h := f.pipeline.ProtectCommand(allRoles()...)(&okHandler{})

	for _, body := range []string{"", "{}", `{"reason":"compromised"}`} {
		res := httptest.NewRecorder()
		h.ServeHTTP(res, commandRequest(t, "cmd-1", body))

		require.Equal(t, http.StatusUnauthorized, res.Code)
		code, _ := decodeDenial(t, res)
		require.Equal(t, "COMMAND_PASSWORD_REQUIRED", code, "body %q", body)
	}
}

func TestCommandWrongSecretRaisesSecurityAlert(t *testing.T) {
	f := newFixture(t, nil)
	f.putOperator(t, "cmd-1", directory.RoleCommander, true, nil)
	next := &okHandler{}
	h := f.pipeline.ProtectCommand(allRoles()...)(next)

	res := httptest.NewRecorder()
	h.ServeHTTP(res, commandRequest(t, "cmd-1", `{"commandPassword":"wrong-guess"}`))

	require.Equal(t, http.StatusUnauthorized, res.Code)
	code, _ := decodeDenial(t, res)
	require.Equal(t, "INVALID_COMMAND_PASSWORD", code)
	require.Zero(t, next.called)

	alerts := f.recorder.ByKind(audit.KindSecurityAlert)
	require.Len(t, alerts, 1)
	require.Equal(t, "cmd-1", alerts[0].Actor)
	for _, v := range alerts[0].Meta {
		require.NotContains(t, v, "wrong-guess", "secret must never reach the audit trail")
	}
}

func TestCommandAdmitsWithCorrectSecret(t *testing.T) {
	f := newFixture(t, nil)
	f.putOperator(t, "adm-1", directory.RoleAdmin, true, nil)
	next := &okHandler{}
	h := f.pipeline.ProtectCommand(allRoles()...)(next)

	res := httptest.NewRecorder()
	h.ServeHTTP(res, commandRequest(t, "adm-1", `{"commandPassword":"override-red-5","reason":"drill"}`))

	require.Equal(t, http.StatusOK, res.Code)
	require.Equal(t, 1, next.called)

	critical := f.recorder.ByKind(audit.KindCriticalOperation)
	require.Len(t, critical, 1, "exactly one CRITICAL_OPERATION event")
	require.Equal(t, "adm-1", critical[0].Actor)
	require.Equal(t, "POST /api/missions/m-001/abort", critical[0].Action)
	require.Empty(t, f.recorder.ByKind(audit.KindSecurityAlert))
}

func TestCommandRestoresBodyForHandler(t *testing.T) {
	f := newFixture(t, nil)
	f.putOperator(t, "cmd-1", directory.RoleCommander, true, nil)

	var seenBody string
	h := f.pipeline.ProtectCommand(allRoles()...)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		seenBody = string(data)
		w.WriteHeader(http.StatusOK)
	}))

	body := `{"commandPassword":"override-red-5","reason":"drill"}`
	res := httptest.NewRecorder()
	h.ServeHTTP(res, commandRequest(t, "cmd-1", body))

	require.Equal(t, http.StatusOK, res.Code)
	require.Equal(t, body, seenBody)
}
