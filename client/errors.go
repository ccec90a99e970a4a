package client

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrSessionInvalidated marks a call that was answered with 401. By the time
// the caller sees it the session has already been cleared.
var ErrSessionInvalidated = errors.New("client: session invalidated")

// Kind classifies a failed call.
type Kind int

const (
	KindNetwork Kind = iota + 1
	KindAuthentication
	KindAuthorization
	KindValidation
	KindClient
	KindServer
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindValidation:
		return "validation"
	case KindClient:
		return "client"
	case KindServer:
		return "server"
	default:
		return "unknown"
	}
}

// KindOf maps an HTTP status to its failure kind.
func KindOf(status int) Kind {
	switch {
	case status == http.StatusUnauthorized:
		return KindAuthentication
	case status == http.StatusForbidden:
		return KindAuthorization
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return KindValidation
	case status >= 500:
		return KindServer
	case status >= 400:
		return KindClient
	default:
		return 0
	}
}

// APIError describes a failed call. Status is 0 for network failures.
type APIError struct {
	Status  int
	Message string
	Raw     []byte
	Kind    Kind
	Err     error
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("api: %s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("api: %d %s: %s", e.Status, http.StatusText(e.Status), e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

func newAPIError(status int, raw []byte) *APIError {
	return &APIError{
		Status:  status,
		Message: detail(status, raw),
		Raw:     raw,
		Kind:    KindOf(status),
	}
}

// detail extracts the backend's message: {"detail": "..."} or, for
// validation errors, the first {"loc": [...], "msg": "..."} entry.
func detail(status int, raw []byte) string {
	if gjson.ValidBytes(raw) {
		d := gjson.GetBytes(raw, "detail")
		switch {
		case d.Type == gjson.String && d.String() != "":
			return d.String()
		case d.IsArray() && len(d.Array()) > 0:
			first := d.Array()[0]
			msg := first.Get("msg").String()
			loc := first.Get("loc").Array()
			if len(loc) > 0 && msg != "" {
				return loc[len(loc)-1].String() + ": " + msg
			}
			if msg != "" {
				return msg
			}
		}
		for _, key := range []string{"mensaje", "message", "error"} {
			if v := gjson.GetBytes(raw, key); v.Type == gjson.String && v.String() != "" {
				return v.String()
			}
		}
	}
	if text := strings.TrimSpace(http.StatusText(status)); text != "" {
		return text
	}
	return "request failed"
}

// UserMessage turns any error from a service call into one short sentence
// suitable for a notification.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrSessionInvalidated) {
		return "Your session has expired. Please log in again."
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return err.Error()
	}

	switch apiErr.Kind {
	case KindNetwork:
		return "Cannot reach the server. Check your connection and try again."
	case KindServer:
		return fmt.Sprintf("The server could not complete the request (%d). Try again later.", apiErr.Status)
	case KindAuthorization:
		if apiErr.Message != "" && apiErr.Message != http.StatusText(apiErr.Status) {
			return apiErr.Message
		}
		return "You do not have permission to perform this action."
	default:
		return apiErr.Message
	}
}
