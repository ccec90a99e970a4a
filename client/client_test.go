package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/getkayan/medgas/domain"
	"github.com/getkayan/medgas/persistence"
	"github.com/getkayan/medgas/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captured struct {
	mu   sync.Mutex
	reqs []*http.Request
}

func (c *captured) add(r *http.Request) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reqs = append(c.reqs, r)
}

func (c *captured) last() *http.Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reqs[len(c.reqs)-1]
}

func newStore(t *testing.T, token string) *session.Store {
	t.Helper()
	ctx := context.Background()
	store, err := session.NewStore(ctx, persistence.NewMemoryStorage())
	require.NoError(t, err)
	if token != "" {
		require.NoError(t, store.Set(ctx, session.Session{Token: token, User: &domain.User{ID: 1, Rol: domain.RoleAdmin}}))
	}
	return store
}

func setup(t *testing.T, store *session.Store, handler http.HandlerFunc) (*Client, *Signal, *captured) {
	t.Helper()
	seen := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen.add(r)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	sig := NewSignal()
	c, err := ForSession(Config{BaseURL: srv.URL + "/api"}, store, sig)
	require.NoError(t, err)
	return c, sig, seen
}

func ok(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`[]`))
}

func TestAttachesBearerWhenTokenPresent(t *testing.T) {
	c, _, seen := setup(t, newStore(t, "T1"), ok)

	require.NoError(t, c.Get(context.Background(), "/hospitales/", nil, nil))

	req := seen.last()
	assert.Equal(t, "Bearer T1", req.Header.Get("Authorization"))
	assert.Equal(t, "/api/hospitales/", req.URL.Path)
	assert.NotEmpty(t, req.Header.Get(HeaderRequestID))
}

func TestNoAuthorizationWithoutToken(t *testing.T) {
	c, _, seen := setup(t, newStore(t, ""), ok)

	require.NoError(t, c.Post(context.Background(), "/auth/recuperar-password", map[string]string{"email": "a@b.com"}, nil, nil))

	_, present := seen.last().Header["Authorization"]
	assert.False(t, present)
}

func TestTokenReadOnEveryCall(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, "T1")
	c, _, seen := setup(t, store, ok)

	require.NoError(t, c.Get(ctx, "/gases/", nil, nil))
	assert.Equal(t, "Bearer T1", seen.last().Header.Get("Authorization"))

	require.NoError(t, store.Set(ctx, session.Session{Token: "T2", User: &domain.User{ID: 2}}))
	require.NoError(t, c.Get(ctx, "/gases/", nil, nil))
	assert.Equal(t, "Bearer T2", seen.last().Header.Get("Authorization"))
}

func TestUnauthorizedClearsSessionAndSignals(t *testing.T) {
	store := newStore(t, "T1")
	c, sig, _ := setup(t, store, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"Could not validate credentials"}`))
	})
	events, cancel := sig.Subscribe()
	defer cancel()

	err := c.Get(context.Background(), "/consumos/", nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSessionInvalidated))

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, KindAuthentication, apiErr.Kind)
	assert.Equal(t, "Could not validate credentials", apiErr.Message)

	sess := store.Get()
	assert.Empty(t, sess.Token)
	assert.Nil(t, sess.User)

	select {
	case ev := <-events:
		assert.Equal(t, "/api/consumos/", ev.Path)
	default:
		t.Fatal("expected an invalidation event")
	}
	select {
	case <-events:
		t.Fatal("expected exactly one event")
	default:
	}
}

func TestOneEventPerFailingResponse(t *testing.T) {
	store := newStore(t, "T1")
	c, sig, _ := setup(t, store, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/auditoria/" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		ok(w, r)
	})
	events, cancel := sig.Subscribe()
	defer cancel()

	paths := []string{"/hospitales/", "/gases/", "/auditoria/", "/consumos/"}
	errs := make([]error, len(paths))
	var wg sync.WaitGroup
	for i, p := range paths {
		wg.Add(1)
		go func(i int, p string) {
			defer wg.Done()
			errs[i] = c.Get(context.Background(), p, nil, nil)
		}(i, p)
	}
	wg.Wait()

	assert.ErrorIs(t, errs[2], ErrSessionInvalidated)
	assert.NoError(t, errs[0])
	assert.False(t, store.Get().Valid())
	assert.Len(t, events, 1)
}

func TestOtherErrorsPassThrough(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		kind    Kind
		message string
	}{
		{"validation list", http.StatusUnprocessableEntity, `{"detail":[{"loc":["body","cantidad"],"msg":"ensure this value is greater than 0"}]}`, KindValidation, "cantidad: ensure this value is greater than 0"},
		{"bad request", http.StatusBadRequest, `{"detail":"Email ya registrado"}`, KindValidation, "Email ya registrado"},
		{"forbidden", http.StatusForbidden, `{"detail":"Solo ADMIN puede generar reportes globales"}`, KindAuthorization, "Solo ADMIN puede generar reportes globales"},
		{"not found", http.StatusNotFound, `{"detail":"Hospital no encontrado"}`, KindClient, "Hospital no encontrado"},
		{"server", http.StatusInternalServerError, `oops`, KindServer, "Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newStore(t, "T1")
			c, _, _ := setup(t, store, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			err := c.Get(context.Background(), "/hospitales/9", nil, nil)
			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.kind, apiErr.Kind)
			assert.Equal(t, tt.message, apiErr.Message)
			assert.Equal(t, tt.body, string(apiErr.Raw))
			assert.False(t, errors.Is(err, ErrSessionInvalidated))
			assert.True(t, store.Get().Valid(), "session must survive non-401 errors")
		})
	}
}

func TestNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(ok))
	url := srv.URL
	srv.Close()

	store := newStore(t, "T1")
	c, err := ForSession(Config{BaseURL: url + "/api"}, store, NewSignal())
	require.NoError(t, err)

	err = c.Get(context.Background(), "/gases/", nil, nil)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, KindNetwork, apiErr.Kind)
	assert.Zero(t, apiErr.Status)
	assert.True(t, store.Get().Valid())
}

func TestQueryParams(t *testing.T) {
	c, _, seen := setup(t, newStore(t, "T1"), ok)
	ctx := context.Background()

	require.NoError(t, c.Get(ctx, "/consumos/", Params{}, nil))
	assert.Empty(t, seen.last().URL.RawQuery)

	require.NoError(t, c.Get(ctx, "/consumos/", Params{"estado": "activo"}, nil))
	assert.Equal(t, "estado=activo", seen.last().URL.RawQuery)

	var missing *int
	hospital := 3
	require.NoError(t, c.Get(ctx, "/consumos/", Params{"hospital_id": &hospital, "gas_id": missing, "skip": nil, "validado": false}, nil))
	q := seen.last().URL.Query()
	assert.Equal(t, "3", q.Get("hospital_id"))
	assert.Equal(t, "false", q.Get("validado"))
	assert.NotContains(t, q, "gas_id")
	assert.NotContains(t, q, "skip")
}

func TestFormBody(t *testing.T) {
	c, _, seen := setup(t, newStore(t, ""), func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "a@b.com", r.PostForm.Get("username"))
		ok(w, r)
	})

	err := c.Call(context.Background(), &Request{
		Method: http.MethodPost,
		Path:   "/auth/login",
		Form:   map[string][]string{"username": {"a@b.com"}, "password": {"x"}},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "application/x-www-form-urlencoded", seen.last().Header.Get("Content-Type"))
}

func TestPutCarriesParams(t *testing.T) {
	c, _, seen := setup(t, newStore(t, "T1"), func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":4}`))
	})

	var out struct{ ID int }
	require.NoError(t, c.Put(context.Background(), "/usuarios/4", map[string]any{"nombre": "Ana"}, Params{"notificar": true}, &out))
	assert.Equal(t, 4, out.ID)
	assert.Equal(t, http.MethodPut, seen.last().Method)
	assert.Equal(t, "notificar=true", seen.last().URL.RawQuery)
	assert.Equal(t, "application/json", seen.last().Header.Get("Content-Type"))
}

func TestMultipartBody(t *testing.T) {
	c, _, _ := setup(t, newStore(t, "T1"), func(w http.ResponseWriter, r *http.Request) {
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		assert.Equal(t, "3", r.FormValue("hospital_id"))
		f, hdr, err := r.FormFile("archivo")
		if assert.NoError(t, err) {
			defer f.Close()
			data, _ := io.ReadAll(f)
			assert.Equal(t, "consumos.csv", hdr.Filename)
			assert.Equal(t, "gas,litros\nO2,120\n", string(data))
		}
		assert.Equal(t, "Bearer T1", r.Header.Get("Authorization"))
		ok(w, r)
	})

	err := c.Call(context.Background(), &Request{
		Method: http.MethodPost,
		Path:   "/consumos/importar",
		Multipart: &Multipart{
			Fields: url.Values{"hospital_id": {"3"}},
			Files:  []FilePart{{Field: "archivo", Filename: "consumos.csv", Data: []byte("gas,litros\nO2,120\n")}},
		},
	}, nil)
	require.NoError(t, err)
}

func TestRateLimitedClientStillDelivers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(ok))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL, RateLimit: 100, RateBurst: 2})
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		require.NoError(t, c.Get(context.Background(), "/", nil, nil))
	}
}

func TestNewRequiresBaseURL(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}
