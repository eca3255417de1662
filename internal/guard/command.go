package guard

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/overwatch-ops/tacgate/internal/audit"
	"github.com/overwatch-ops/tacgate/internal/directory"
	"github.com/overwatch-ops/tacgate/internal/shared"
)

// maxCommandBody bounds how much of the request body the command stage will
// buffer while extracting the command credential.
const maxCommandBody = 1 << 20

type commandCredential struct {
	CommandPassword string `json:"commandPassword"`
}

// authorizeCommand requires a secondary proof of identity for destructive
// operations. The privileged-role gate runs before the credential is ever
// read. The supplied secret and the stored hash are never logged.
func (p *Pipeline) authorizeCommand(r *http.Request) (*http.Request, Decision) {
	principal := shared.PrincipalFromContext(r.Context())
	if principal == nil {
		p.logger.Error("command stage reached without principal", slog.String("path", r.URL.Path))
		return r, DenyUnavailable(StageCommand)
	}
	if principal.Role != directory.RoleCommander && principal.Role != directory.RoleAdmin {
		return r, Deny(StageCommand, http.StatusForbidden, CodeCommandAuthRequired, "command authorization required")
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxCommandBody))
	if err != nil {
		p.logger.Error("read command body failed", slog.Any("error", err))
		return r, DenyUnavailable(StageCommand)
	}
	// Downstream handlers decode the same body again.
	r.Body = io.NopCloser(bytes.NewReader(body))

	var cred commandCredential
	if err := json.Unmarshal(body, &cred); err != nil || cred.CommandPassword == "" {
		return r, Deny(StageCommand, http.StatusUnauthorized, CodeCommandPasswordRequired, "command credential required")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(principal.CommandHash), []byte(cred.CommandPassword)); err != nil {
		if recErr := p.recorder.Record(r.Context(), audit.Event{
			Kind:    audit.KindSecurityAlert,
			Actor:   principal.ID,
			Action:  r.Method + " " + r.URL.Path,
			Outcome: audit.OutcomeDenied,
			Origin:  r.RemoteAddr,
			Meta:    map[string]any{"reason": "command credential mismatch"},
		}); recErr != nil {
			p.logger.Error("security-alert audit failed", slog.Any("error", recErr))
		}
		return r, Deny(StageCommand, http.StatusUnauthorized, CodeInvalidCommandPassword, "invalid command credential")
	}

	if err := p.recorder.Record(r.Context(), audit.Event{
		Kind:    audit.KindCriticalOperation,
		Actor:   principal.ID,
		Action:  r.Method + " " + r.URL.Path,
		Outcome: audit.OutcomeAdmitted,
		Origin:  r.RemoteAddr,
		At:      p.now().UTC(),
	}); err != nil {
		p.logger.Error("critical-operation audit failed", slog.Any("error", err))
		return r, DenyUnavailable(StageCommand)
	}

	return r, Admit(StageCommand)
}
