// Package identitysdk is a typed HTTP client for the identity service. It
// covers the public endpoints only: registration, availability checks,
// email verification and password recovery. The response types double as
// the server's wire types so the two cannot drift.
package identitysdk
