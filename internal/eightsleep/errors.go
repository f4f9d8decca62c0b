package eightsleep

import (
	"errors"
	"fmt"
	"net/http"
)

// AuthError is returned when the token endpoint rejects a login or refresh.
type AuthError struct {
	StatusCode int
	Msg        string
}

func (e *AuthError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("auth: %s (status %d)", e.Msg, e.StatusCode)
	}
	return "auth: " + e.Msg
}

// APIError is a non-2xx answer from the device API.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("device api %s %s: status %d", e.Method, e.Path, e.StatusCode)
}

// IsPermanent reports whether retrying err cannot help: auth failures and
// client errors other than 429.
func IsPermanent(err error) bool {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		code := apiErr.StatusCode
		return code >= 400 && code < 500 && code != http.StatusTooManyRequests
	}
	return false
}
