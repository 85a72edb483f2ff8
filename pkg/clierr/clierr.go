package clierr

import (
	"errors"

	"github.com/habedi/psnauth/pkg/autherr"
)

// Type categorizes a CLI-facing error for consistent messaging & potential exit codes.
type Type string

const (
	Validation Type = "validation"
	Auth       Type = "auth"
	Network    Type = "network"
	Internal   Type = "internal"
)

// Error is a structured user-facing error.
type Error struct {
	Type    Type
	Message string
	Err     error // optional underlying error
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.Err }

// New constructs a new CLI Error.
func New(t Type, msg string, err error) *Error { return &Error{Type: t, Message: msg, Err: err} }

// FromAuth converts an authentication error into a user-facing one.
// Errors that are already CLI errors are returned as they are.
func FromAuth(err error) *Error {
	if err == nil {
		return nil
	}
	var cliErr *Error
	if errors.As(err, &cliErr) {
		return cliErr
	}

	switch autherr.KindOf(err) {
	case autherr.InvalidInput:
		return New(Validation, "Error: "+err.Error(), err)
	case autherr.NotInitialized:
		return New(Auth, "Error: No token loaded. Please run 'psnauth login' first.", err)
	case autherr.ExpiredRefreshToken:
		return New(Auth, "Error: The refresh token has expired. Please login again with a new NPSSO.", err)
	case autherr.InvalidCredential, autherr.MalformedResponse:
		return New(Auth, "Error: Authentication failed. Please check your NPSSO and try again.", err)
	case autherr.ExchangeFailed:
		return New(Network, "Error: Token exchange failed. Please try again later.", err)
	default:
		return New(Internal, "Error: "+err.Error(), err)
	}
}
