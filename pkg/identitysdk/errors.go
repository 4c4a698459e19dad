package identitysdk

import "fmt"

// Error codes used by the service.
const (
	ErrorCodeInvalidRequest = "invalid_request"
	ErrorCodeConflict       = "conflict"
	ErrorCodeInvalidToken   = "invalid_token"
	ErrorCodeTokenExpired   = "token_expired"
	ErrorCodeServerError    = "server_error"
)

// APIError represents a non-success response from the service.
type APIError struct {
	// StatusCode is the HTTP status the server answered with.
	StatusCode int `json:"-"`

	// Code is the machine-readable error code.
	Code string `json:"error"`

	// Description is a human-readable description of the error.
	Description string `json:"error_description"`
}

func (e *APIError) Error() string {
	if e.Description == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}
