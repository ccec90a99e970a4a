package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/getkayan/medgas/client"
	"github.com/getkayan/medgas/domain"
	"github.com/getkayan/medgas/download"
	"github.com/getkayan/medgas/health"
	"github.com/getkayan/medgas/persistence"
	"github.com/getkayan/medgas/rbac"
	"github.com/getkayan/medgas/service"
	"github.com/getkayan/medgas/session"
	"github.com/labstack/echo/v4"
)

type console struct {
	e     *echo.Echo
	store *session.Store
	sig   *client.Signal
	dir   string
}

func newConsole(t *testing.T, backend http.HandlerFunc) *console {
	t.Helper()
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	store, err := session.NewStore(context.Background(), persistence.NewMemoryStorage())
	if err != nil {
		t.Fatal(err)
	}
	sig := client.NewSignal()
	c, err := client.ForSession(client.Config{BaseURL: srv.URL + "/api"}, store, sig)
	if err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	hm := health.NewManager("test")
	hm.Add("session", health.Session(store))

	e := echo.New()
	NewHandler(service.New(c, store, download.NewSaver(dir)), rbac.NewGuard(store), hm).RegisterRoutes(e)
	return &console{e: e, store: store, sig: sig, dir: dir}
}

func (c *console) as(t *testing.T, role domain.Role) {
	t.Helper()
	err := c.store.Set(context.Background(), session.Session{
		Token: "T1",
		User:  &domain.User{ID: 1, Nombre: "Ana", Rol: role},
	})
	if err != nil {
		t.Fatal(err)
	}
}

func (c *console) do(method, target, body, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	rec := httptest.NewRecorder()
	c.e.ServeHTTP(rec, req)
	return rec
}

func reply(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func expectRedirect(t *testing.T, rec *httptest.ResponseRecorder, to string) {
	t.Helper()
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d: %s", rec.Code, rec.Body.String())
	}
	if loc := rec.Header().Get("Location"); loc != to {
		t.Fatalf("redirected to %q, want %q", loc, to)
	}
}

func TestAnonymousIsSentToLogin(t *testing.T) {
	con := newConsole(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("backend must not be called, got %s", r.URL.Path)
	})

	for _, path := range []string{"/dashboard", "/consumos", "/reportes", "/admin/usuarios"} {
		expectRedirect(t, con.do(http.MethodGet, path, "", ""), "/login")
	}
}

func TestDefaultRedirects(t *testing.T) {
	con := newConsole(t, func(w http.ResponseWriter, r *http.Request) {})

	expectRedirect(t, con.do(http.MethodGet, "/", "", ""), "/dashboard")
	expectRedirect(t, con.do(http.MethodGet, "/no/such/page", "", ""), "/dashboard")
}

func TestLoginThenDashboard(t *testing.T) {
	con := newConsole(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login":
			reply(w, http.StatusOK, map[string]any{
				"access_token": "T1",
				"token_type":   "bearer",
				"usuario":      map[string]any{"id": 1, "nombre": "Ana", "rol": "ADMIN"},
			})
		case "/api/reportes/dashboard":
			if r.Header.Get("Authorization") != "Bearer T1" {
				t.Errorf("missing credential: %q", r.Header.Get("Authorization"))
			}
			reply(w, http.StatusOK, map[string]any{"total_hospitales": 12})
		default:
			t.Errorf("unexpected call %s", r.URL.Path)
		}
	})

	form := url.Values{"email": {"ana@mspbs.gov.py"}, "password": {"secret"}}
	rec := con.do(http.MethodPost, "/login", form.Encode(), echo.MIMEApplicationForm)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: %d %s", rec.Code, rec.Body.String())
	}
	if tok := con.store.Get().Token; tok != "T1" {
		t.Fatalf("stored token = %q", tok)
	}

	expectRedirect(t, con.do(http.MethodGet, "/login", "", ""), "/dashboard")

	rec = con.do(http.MethodGet, "/dashboard", "", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "total_hospitales") {
		t.Fatalf("dashboard: %d %s", rec.Code, rec.Body.String())
	}
}

func TestLoginRejectedStaysOnPage(t *testing.T) {
	con := newConsole(t, func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusUnauthorized, map[string]any{"detail": "Email o contraseña incorrectos"})
	})

	rec := con.do(http.MethodPost, "/login", `{"email":"a@b.py","password":"bad"}`, echo.MIMEApplicationJSON)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("code = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Email o contraseña incorrectos") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestHospitalUserKeptOutOfAdmin(t *testing.T) {
	con := newConsole(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("backend must not be called, got %s", r.URL.Path)
	})
	con.as(t, domain.RoleHospitalUser)

	expectRedirect(t, con.do(http.MethodGet, "/admin/gases", "", ""), "/dashboard")
	expectRedirect(t, con.do(http.MethodPost, "/admin/consumos/3/validar", "", ""), "/dashboard")
}

func TestExpiredSessionRedirectsToLogin(t *testing.T) {
	con := newConsole(t, func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusUnauthorized, map[string]any{"detail": "Could not validate credentials"})
	})
	con.as(t, domain.RoleAdmin)

	events, stop := con.sig.Subscribe()
	defer stop()

	expectRedirect(t, con.do(http.MethodGet, "/consumos", "", ""), "/login")
	if con.store.Get().Valid() {
		t.Fatal("session should be cleared")
	}
	select {
	case ev := <-events:
		if ev.Path != "/api/consumos/" {
			t.Errorf("event path = %q", ev.Path)
		}
	default:
		t.Fatal("no invalidation event")
	}

	expectRedirect(t, con.do(http.MethodGet, "/consumos", "", ""), "/login")
}

func TestBackendErrorsReportedInPlace(t *testing.T) {
	con := newConsole(t, func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusUnprocessableEntity, map[string]any{
			"detail": []map[string]any{{"loc": []string{"body", "cantidad"}, "msg": "field required"}},
		})
	})
	con.as(t, domain.RoleHospitalUser)

	rec := con.do(http.MethodPost, "/consumos", `{"hospital_id":1}`, echo.MIMEApplicationJSON)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("code = %d", rec.Code)
	}
	var body map[string]any
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body["status"] != "cantidad: field required" {
		t.Errorf("status = %v", body["status"])
	}
	if !con.store.Get().Valid() {
		t.Error("a validation error must not end the session")
	}
}

func TestExcelDownload(t *testing.T) {
	con := newConsole(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("formato") != "csv" {
			t.Errorf("formato = %q", r.URL.Query().Get("formato"))
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Write([]byte("a,b\n1,2\n"))
	})
	con.as(t, domain.RoleAdmin)

	rec := con.do(http.MethodPost, "/reportes/excel?formato=csv", `{"fecha_inicio":"2024-01-01"}`, echo.MIMEApplicationJSON)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d %s", rec.Code, rec.Body.String())
	}
	if rec.Body.String() != "a,b\n1,2\n" {
		t.Errorf("body = %q", rec.Body.String())
	}
	if cd := rec.Header().Get(echo.HeaderContentDisposition); !strings.Contains(cd, ".csv") {
		t.Errorf("content disposition = %q", cd)
	}
	if saved := rec.Header().Get("X-Saved-Path"); !strings.HasPrefix(saved, con.dir) {
		t.Errorf("saved path = %q", saved)
	}
}

func TestLogout(t *testing.T) {
	con := newConsole(t, func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, map[string]any{"mensaje": "Sesión cerrada"})
	})
	con.as(t, domain.RoleAdmin)

	expectRedirect(t, con.do(http.MethodPost, "/logout", "", ""), "/login")
	if con.store.Get().Valid() {
		t.Error("session should be cleared")
	}
}

func TestHealthz(t *testing.T) {
	con := newConsole(t, func(w http.ResponseWriter, r *http.Request) {})

	rec := con.do(http.MethodGet, "/healthz", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	var report health.Report
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatal(err)
	}
	if report.Status != health.StatusDegraded {
		t.Errorf("status = %v, want degraded without a session", report.Status)
	}
}

func TestMetricsCountCalls(t *testing.T) {
	con := newConsole(t, func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, []any{})
	})
	con.as(t, domain.RoleAdmin)

	if rec := con.do(http.MethodGet, "/admin/gases", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("gases: %d %s", rec.Code, rec.Body)
	}

	rec := con.do(http.MethodGet, "/metrics", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics: %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `medgas_client_requests_total{method="GET",status="200"}`) {
		t.Error("outbound call not counted")
	}
}
