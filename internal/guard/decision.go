package guard

import (
	"net/http"

	"github.com/overwatch-ops/tacgate/internal/platform/httpx"
)

// Stage identifies the pipeline stage that produced a decision.
type Stage string

// Pipeline stages, in execution order.
const (
	StageRateLimit Stage = "rate_limit"
	StageToken     Stage = "token"
	StageRole      Stage = "role"
	StageCommand   Stage = "command"
	StageSession   Stage = "session"
)

// Code is the machine-readable denial code surfaced to callers.
type Code string

// Denial codes.
const (
	CodeNoToken                 Code = "NO_TOKEN"
	CodeInvalidToken            Code = "INVALID_TOKEN"
	CodeTokenExpired            Code = "TOKEN_EXPIRED"
	CodeInvalidUser             Code = "INVALID_USER"
	CodeAccountDeactivated      Code = "ACCOUNT_DEACTIVATED"
	CodeInsufficientPermissions Code = "INSUFFICIENT_PERMISSIONS"
	CodeCommandAuthRequired     Code = "COMMAND_AUTH_REQUIRED"
	CodeCommandPasswordRequired Code = "COMMAND_PASSWORD_REQUIRED"
	CodeInvalidCommandPassword  Code = "INVALID_COMMAND_PASSWORD"
	CodeSessionExpired          Code = "SESSION_EXPIRED"
	CodeRateLimitSensitive      Code = "RATE_LIMIT_SENSITIVE"
	CodeAuthServerError         Code = "AUTH_SERVER_ERROR"
)

// Decision is the per-request outcome of a pipeline stage. Exactly one
// terminal decision exists per request: the first denial stops the chain and
// the protected handler never runs.
type Decision struct {
	Admitted bool
	Stage    Stage
	Status   int
	Code     Code
	Reason   string
}

// Admit returns an admitting decision for the stage.
func Admit(stage Stage) Decision {
	return Decision{Admitted: true, Stage: stage}
}

// Deny returns a denying decision.
func Deny(stage Stage, status int, code Code, reason string) Decision {
	return Decision{Stage: stage, Status: status, Code: code, Reason: reason}
}

// DenyUnavailable is the denial used when a stage's external dependency
// times out or fails. Internal detail stays server-side; the caller sees a
// generic code.
func DenyUnavailable(stage Stage) Decision {
	return Deny(stage, http.StatusInternalServerError, CodeAuthServerError, "authorization service unavailable")
}

// Write renders the denial to the response. Admitting decisions write
// nothing.
func (d Decision) Write(w http.ResponseWriter) {
	if d.Admitted {
		return
	}
	httpx.JSON(w, d.Status, httpx.DenialBody{Code: string(d.Code), Message: d.Reason})
}
