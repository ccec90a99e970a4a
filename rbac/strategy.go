package rbac

import (
	"time"

	"github.com/getkayan/medgas/domain"
	"github.com/getkayan/medgas/session"
)

// Outcome is what a navigation to a protected destination resolves to.
type Outcome int

const (
	Render Outcome = iota
	RedirectLogin
	RedirectDefault
)

func (o Outcome) String() string {
	switch o {
	case Render:
		return "render"
	case RedirectLogin:
		return "redirect_login"
	case RedirectDefault:
		return "redirect_default"
	default:
		return "unknown"
	}
}

// Decision is the result of evaluating one navigation.
type Decision struct {
	Outcome Outcome
	// Reason is a short machine-friendly explanation, useful in logs.
	Reason string
}

// Allowed reports whether the destination may be rendered.
func (d Decision) Allowed() bool { return d.Outcome == Render }

// Evaluate decides whether sess may see a destination that requires role.
// An empty role means any authenticated user. A token whose exp claim is in
// the past counts as no session at all.
func Evaluate(sess session.Session, required domain.Role, now time.Time) Decision {
	if !sess.Valid() {
		return Decision{Outcome: RedirectLogin, Reason: "no_session"}
	}
	if sess.Expired(now) {
		return Decision{Outcome: RedirectLogin, Reason: "token_expired"}
	}
	if required != "" && !sess.Role().Is(required) {
		return Decision{Outcome: RedirectDefault, Reason: "role_mismatch"}
	}
	return Decision{Outcome: Render, Reason: "ok"}
}
