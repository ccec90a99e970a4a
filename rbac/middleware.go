// Package rbac decides, on every navigation, whether the current session may
// reach a protected destination.
package rbac

import (
	"net/http"
	"time"

	"github.com/getkayan/medgas/domain"
	"github.com/getkayan/medgas/logger"
	"github.com/getkayan/medgas/session"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	DefaultLoginPath   = "/login"
	DefaultLandingPath = "/dashboard"

	// ContextSessionKey holds the session snapshot a guarded handler runs with.
	ContextSessionKey = "medgas_session"
)

// SessionReader is the read side of session.Store.
type SessionReader interface {
	Get() session.Session
}

// Guard evaluates navigations against the live store.
type Guard struct {
	store       SessionReader
	LoginPath   string
	DefaultPath string
	now         func() time.Time
}

func NewGuard(store SessionReader) *Guard {
	return &Guard{
		store:       store,
		LoginPath:   DefaultLoginPath,
		DefaultPath: DefaultLandingPath,
		now:         time.Now,
	}
}

// Check reads the store on every call; nothing is cached between
// navigations.
func (g *Guard) Check(required domain.Role) (session.Session, Decision) {
	sess := g.store.Get()
	return sess, Evaluate(sess, required, g.now())
}

// Target returns the path a decision redirects to, or "" for Render.
func (g *Guard) Target(d Decision) string {
	switch d.Outcome {
	case RedirectLogin:
		return g.LoginPath
	case RedirectDefault:
		return g.DefaultPath
	default:
		return ""
	}
}

// RequireRole returns an Echo middleware guarding the wrapped routes. Use an
// empty role for pages any authenticated user may see.
func (g *Guard) RequireRole(role domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess, d := g.Check(role)
			if !d.Allowed() {
				logger.Log.Debug("navigation redirected",
					zap.String("path", c.Request().URL.Path),
					zap.String("reason", d.Reason),
				)
				return c.Redirect(http.StatusSeeOther, g.Target(d))
			}

			c.Set(ContextSessionKey, sess)
			return next(c)
		}
	}
}

// SessionFrom returns the snapshot stored by RequireRole.
func SessionFrom(c echo.Context) session.Session {
	sess, _ := c.Get(ContextSessionKey).(session.Session)
	return sess
}
