package rbac

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/getkayan/medgas/domain"
	"github.com/getkayan/medgas/session"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

type fakeStore struct {
	mu   sync.Mutex
	sess session.Session
	gets int
}

func (f *fakeStore) Get() session.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	return f.sess
}

func (f *fakeStore) set(s session.Session) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sess = s
}

func token(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "a@b.py",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatal(err)
	}
	return tok
}

func withRole(tok string, role domain.Role) session.Session {
	return session.Session{Token: tok, User: &domain.User{ID: 1, Rol: role}}
}

func TestEvaluate(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	live := token(t, now.Add(time.Hour))
	stale := token(t, now.Add(-time.Minute))

	tests := []struct {
		name     string
		sess     session.Session
		required domain.Role
		want     Outcome
	}{
		{"no session", session.Session{}, "", RedirectLogin},
		{"no session admin route", session.Session{}, domain.RoleAdmin, RedirectLogin},
		{"token without user", session.Session{Token: live}, "", RedirectLogin},
		{"expired token", withRole(stale, domain.RoleAdmin), domain.RoleAdmin, RedirectLogin},
		{"opaque token", withRole("opaque", domain.RoleHospitalUser), "", Render},
		{"any role", withRole(live, domain.RoleHospitalUser), "", Render},
		{"admin on admin route", withRole(live, domain.RoleAdmin), domain.RoleAdmin, Render},
		{"role compare ignores case", withRole(live, "admin"), domain.RoleAdmin, Render},
		{"standard on admin route", withRole(live, domain.RoleHospitalUser), domain.RoleAdmin, RedirectDefault},
		{"empty role on admin route", withRole(live, ""), domain.RoleAdmin, RedirectDefault},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.sess, tt.required, now)
			if got.Outcome != tt.want {
				t.Errorf("Evaluate() = %v (%s), want %v", got.Outcome, got.Reason, tt.want)
			}
		})
	}
}

func TestGuardReadsStoreEveryTime(t *testing.T) {
	store := &fakeStore{}
	g := NewGuard(store)

	if _, d := g.Check(""); d.Outcome != RedirectLogin {
		t.Fatalf("expected login redirect, got %v", d.Outcome)
	}

	store.set(withRole("t", domain.RoleAdmin))
	if _, d := g.Check(domain.RoleAdmin); !d.Allowed() {
		t.Fatalf("expected render after login, got %v", d.Outcome)
	}

	store.set(session.Session{})
	if _, d := g.Check(domain.RoleAdmin); d.Outcome != RedirectLogin {
		t.Fatalf("expected login redirect after clear, got %v", d.Outcome)
	}

	if store.gets != 3 {
		t.Errorf("store read %d times, want 3", store.gets)
	}
}

func TestTarget(t *testing.T) {
	g := NewGuard(&fakeStore{})
	if got := g.Target(Decision{Outcome: RedirectLogin}); got != "/login" {
		t.Errorf("login target = %q", got)
	}
	if got := g.Target(Decision{Outcome: RedirectDefault}); got != "/dashboard" {
		t.Errorf("default target = %q", got)
	}
	if got := g.Target(Decision{Outcome: Render}); got != "" {
		t.Errorf("render target = %q", got)
	}
}

func TestRequireRoleMiddleware(t *testing.T) {
	store := &fakeStore{}
	g := NewGuard(store)

	e := echo.New()
	e.GET("/admin/gases", func(c echo.Context) error {
		return c.String(http.StatusOK, SessionFrom(c).User.Email)
	}, g.RequireRole(domain.RoleAdmin))

	serve := func() *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/gases", nil))
		return rec
	}

	rec := serve()
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/login" {
		t.Fatalf("anonymous: got %d %q", rec.Code, rec.Header().Get("Location"))
	}

	store.set(session.Session{Token: "t", User: &domain.User{ID: 2, Email: "u@h.py", Rol: domain.RoleHospitalUser}})
	rec = serve()
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/dashboard" {
		t.Fatalf("standard user: got %d %q", rec.Code, rec.Header().Get("Location"))
	}

	store.set(session.Session{Token: "t", User: &domain.User{ID: 1, Email: "a@b.py", Rol: domain.RoleAdmin}})
	rec = serve()
	if rec.Code != http.StatusOK || rec.Body.String() != "a@b.py" {
		t.Fatalf("admin: got %d %q", rec.Code, rec.Body.String())
	}
}
