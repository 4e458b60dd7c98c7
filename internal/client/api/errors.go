package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/atinyakov/storefront/internal/models"
)

var (
	// ErrUnavailable wraps transport failures: the backend could not be reached.
	ErrUnavailable = errors.New("backend unavailable")
	// ErrCredentialsClaimed is returned by a second ClaimCredentials call.
	ErrCredentialsClaimed = errors.New("credential header already claimed")
	// ErrCredentialHeader is returned when the credential header is changed
	// through the generic default-header methods.
	ErrCredentialHeader = errors.New("credential header is owned by the session")
	// ErrTLSWithHTTPClient is returned by New when TLS options are combined
	// with a caller-supplied *http.Client.
	ErrTLSWithHTTPClient = errors.New("TLS options cannot be applied to a custom http client")
)

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 << 10

// Error is a non-2xx answer of the backend.
type Error struct {
	StatusCode int
	// Message is safe to show to the user.
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// IsUnauthorized reports whether err is a 401 answer.
func IsUnauthorized(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// Message returns the user-visible text of err: the backend's message for
// *Error, fallback for everything else.
func Message(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

func parseErrorResponse(resp *http.Response) *Error {
	apiErr := &Error{
		StatusCode: resp.StatusCode,
		Message:    fmt.Sprintf("request failed with status %d", resp.StatusCode),
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(data) == 0 {
		return apiErr
	}

	var body models.ErrorResponse
	if err := json.Unmarshal(data, &body); err != nil {
		return apiErr
	}
	switch {
	case strings.TrimSpace(body.Message) != "":
		apiErr.Message = strings.TrimSpace(body.Message)
	case strings.TrimSpace(body.Error) != "":
		apiErr.Message = strings.TrimSpace(body.Error)
	}
	return apiErr
}
