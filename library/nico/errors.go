package nico

import (
	"fmt"
	"strings"

	errors "github.com/Laisky/errors/v2"
)

// requestErrorDescription is attached to every rejected request.
const requestErrorDescription = "An error has occurred while requesting api"

// Rejection is the payload a failed fetch is rejected with.
type Rejection struct {
	Status           int    `json:"status"`
	Message          string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// ConfigurationError reports a builder constructed without its required credentials.
// No request is ever attempted by a builder that failed construction.
type ConfigurationError struct {
	Missing []string
}

// Error returns the error message.
func (e *ConfigurationError) Error() string {
	if e == nil || len(e.Missing) == 0 {
		return "issuer and reason parameters are required"
	}
	return fmt.Sprintf("issuer and reason parameters are required, missing: %s",
		strings.Join(e.Missing, ", "))
}

// TransportError is a network failure or a non-200 HTTP response.
type TransportError struct {
	Rejection
	Err error
}

func newTransportError(status int, text string, cause error) *TransportError {
	return &TransportError{
		Rejection: Rejection{
			Status:           status,
			Message:          text,
			ErrorDescription: requestErrorDescription,
		},
		Err: cause,
	}
}

// Error returns the error message.
func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transport error %d %s: %v", e.Status, e.Message, e.Err)
	}
	return fmt.Sprintf("transport error %d %s", e.Status, e.Message)
}

// Unwrap returns the underlying network error, if any.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// APIError is an error chunk reported by the search API, translated to an HTTP-like status.
type APIError struct {
	Rejection
	// Code is the raw errid of the last error chunk.
	Code int
}

func newAPIError(code int, st Status) *APIError {
	return &APIError{
		Rejection: Rejection{
			Status:           st.Code,
			Message:          st.Text,
			ErrorDescription: requestErrorDescription,
		},
		Code: code,
	}
}

// Error returns the error message.
func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d (errid %d): %s", e.Status, e.Code, e.Message)
}

// DecodeError reports a response line that is not valid JSON.
// The whole response is discarded when it occurs.
type DecodeError struct {
	Line int
	Err  error
}

// Error returns the error message.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode response line %d: %v", e.Line, e.Err)
}

// Unwrap returns the JSON error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// AsRejection extracts the rejection payload from a fetch error.
// Decode errors are reported as 500 Internal Server Error.
func AsRejection(err error) (Rejection, bool) {
	if err == nil {
		return Rejection{}, false
	}

	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return transportErr.Rejection, true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Rejection, true
	}
	var decodeErr *DecodeError
	if errors.As(err, &decodeErr) {
		return Rejection{
			Status:           statusInternalServerError.Code,
			Message:          statusInternalServerError.Text,
			ErrorDescription: decodeErr.Error(),
		}, true
	}

	return Rejection{}, false
}
