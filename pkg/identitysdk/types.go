package identitysdk

// ErrorResponse is the standard error body for every JSON endpoint.
type ErrorResponse struct {
	// Error is a stable machine-readable code (e.g. "invalid_request",
	// "conflict", "server_error").
	Error string `json:"error"`

	// ErrorDescription is a human-readable description of the error.
	ErrorDescription string `json:"error_description,omitempty"`
}

// RegisterRequest is the body for POST /auth/register.
type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterResponse is returned on successful registration. The account is
// created unverified; a verification link goes out by email.
type RegisterResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// AvailabilityResponse is returned by the check-email and check-username
// endpoints.
type AvailabilityResponse struct {
	Available bool `json:"available"`
}

// PasswordResetRequest is the body for POST /auth/reset-password. With only
// Email set it requests a reset link; with Token and Password set it submits
// a new password.
type PasswordResetRequest struct {
	Email    string `json:"email,omitempty"`
	Token    string `json:"token,omitempty"`
	Password string `json:"password,omitempty"`
}

// ResendVerificationRequest is the body for POST /auth/resend-verification.
type ResendVerificationRequest struct {
	Email string `json:"email"`
}

// MessageResponse is a generic acknowledgement body.
type MessageResponse struct {
	Message string `json:"message"`
}

// HealthChecks reports the status of the service's dependencies.
type HealthChecks struct {
	Database string `json:"database"`
}

// HealthResponse is returned by the /livez and /readyz endpoints.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}
