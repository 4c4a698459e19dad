package service

import "errors"

// Error taxonomy for the identity core. Format and conflict errors are
// user-correctable and surfaced verbatim; token errors deliberately never
// distinguish "never issued" from "already redeemed" so probing a token
// leaks nothing about its redemption state. Anything else is internal and
// surfaced generically by the transport layer.
var (
	ErrEmailFormat    = errors.New("email must look like name@example.com")
	ErrEmailTaken     = errors.New("email is already registered")
	ErrUsernameFormat = errors.New("username must be 3-20 characters, letters, digits, '_' or '-', with at least one letter")
	ErrUsernameTaken  = errors.New("username is already taken")
	ErrPasswordFormat = errors.New("password must be 8-128 characters with an uppercase letter, a lowercase letter, a digit and a symbol")

	ErrAccountNotFound = errors.New("account not found")
	ErrTokenNotFound   = errors.New("token is invalid or has already been used")
	ErrTokenExpired    = errors.New("token has expired")
)
