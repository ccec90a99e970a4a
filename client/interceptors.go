package client

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/getkayan/medgas/logger"
	"github.com/getkayan/medgas/session"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// HeaderRequestID carries the per-call correlation id.
const HeaderRequestID = "X-Request-ID"

// SessionReader is the read side of the session store.
type SessionReader interface {
	Get() session.Session
}

// SessionClearer is the teardown side of the session store.
type SessionClearer interface {
	Clear(ctx context.Context) error
}

// AttachCredential sets a bearer Authorization header when the store holds a
// token. Without one the request goes out unauthenticated.
func AttachCredential(store SessionReader) BeforeSend {
	return func(req *http.Request) {
		if tok := store.Get().Token; tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		} else {
			req.Header.Del("Authorization")
		}
	}
}

// RequestID stamps a fresh id unless the caller supplied one.
func RequestID() BeforeSend {
	return func(req *http.Request) {
		if req.Header.Get(HeaderRequestID) == "" {
			req.Header.Set(HeaderRequestID, uuid.NewString())
		}
	}
}

// InvalidateOnUnauthorized tears the session down on a 401 and notifies
// listeners through sig. Every other status passes through untouched.
func InvalidateOnUnauthorized(store SessionClearer, sig *Signal) AfterReceive {
	return func(resp *http.Response) error {
		if resp.StatusCode != http.StatusUnauthorized {
			return nil
		}

		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

		ctx := context.Background()
		path := ""
		if resp.Request != nil {
			ctx = context.WithoutCancel(resp.Request.Context())
			path = resp.Request.URL.Path
		}

		if err := store.Clear(ctx); err != nil {
			logger.Log.Error("failed to clear stored session", zap.Error(err))
		}
		invalidationsTotal.Inc()
		logger.Log.Warn("session invalidated by server", zap.String("path", path))

		if sig != nil {
			sig.Invalidate(Event{Path: path, At: time.Now()})
		}

		apiErr := newAPIError(resp.StatusCode, raw)
		apiErr.Err = ErrSessionInvalidated
		return apiErr
	}
}
