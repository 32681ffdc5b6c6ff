package strava

import (
	"errors"
	"fmt"
)

// MissingCredentialError indicates the caller omitted a required credential
// (authorization code, refresh token, or bearer token). It is raised before
// any outbound call is made.
type MissingCredentialError struct {
	// Field names the missing credential.
	Field string
}

// Error returns a string representation of the missing credential error.
func (e *MissingCredentialError) Error() string {
	return fmt.Sprintf("strava: no %s provided", e.Field)
}

// ExchangeError indicates Strava's token endpoint rejected an authorization
// code or refresh token. Authorization codes are single-use and refresh
// tokens may be revoked, so retrying the same exchange cannot succeed; the
// caller must restart the authorization flow.
type ExchangeError struct {
	// StatusCode is the HTTP status returned by the token endpoint.
	StatusCode int
	// Message is the human-readable failure description from Strava.
	Message string
}

// Error returns a string representation of the exchange error.
func (e *ExchangeError) Error() string {
	return fmt.Sprintf("strava: token endpoint rejected request (%d): %s", e.StatusCode, e.Message)
}

// TokenRejectedError indicates Strava rejected the bearer token on a data
// request. The caller should refresh the token or re-run authorization; this
// proxy never refreshes on the caller's behalf.
type TokenRejectedError struct {
	// StatusCode is the upstream status, 401 or 403.
	StatusCode int
	// Message is the human-readable failure description from Strava.
	Message string
}

// Error returns a string representation of the token rejection.
func (e *TokenRejectedError) Error() string {
	return fmt.Sprintf("strava: bearer token rejected (%d): %s", e.StatusCode, e.Message)
}

// UpstreamError indicates the call to Strava failed at the transport level or
// returned an unparseable success body. The operation was attempted exactly
// once; retry policy is the caller's responsibility.
type UpstreamError struct {
	// Op describes the failed operation, e.g. "token exchange".
	Op string
	// Err is the underlying transport or decoding error, if any.
	Err error
	// StatusCode is set when an upstream response was received.
	StatusCode int
}

// Error returns a string representation of the upstream failure.
func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("strava: %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("strava: %s failed with status %d", e.Op, e.StatusCode)
}

// Unwrap exposes the underlying error for errors.Is/As chains.
func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// IsMissingCredential reports whether err is a MissingCredentialError.
func IsMissingCredential(err error) bool {
	var missing *MissingCredentialError
	return errors.As(err, &missing)
}
