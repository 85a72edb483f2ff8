package autherr

import (
	"errors"
	"fmt"
)

// Kind categorizes an authentication error.
type Kind string

const (
	NotInitialized      Kind = "not_initialized"
	ExpiredRefreshToken Kind = "expired_refresh_token"
	ExchangeFailed      Kind = "exchange_failed"
	InvalidCredential   Kind = "invalid_credential"
	MalformedResponse   Kind = "malformed_response"
	InvalidInput        Kind = "invalid_input"
)

// Sentinels for errors.Is. They match any *Error of the same Kind.
var (
	ErrNotInitialized      = &Error{Kind: NotInitialized}
	ErrExpiredRefreshToken = &Error{Kind: ExpiredRefreshToken}
	ErrExchangeFailed      = &Error{Kind: ExchangeFailed}
	ErrInvalidCredential   = &Error{Kind: InvalidCredential}
	ErrMalformedResponse   = &Error{Kind: MalformedResponse}
	ErrInvalidInput        = &Error{Kind: InvalidInput}
)

// Error is a structured authentication error.
// StatusCode and Status are set when the provider answered with a non-success HTTP status.
type Error struct {
	Kind       Kind
	Message    string
	StatusCode int
	Status     string
	Err        error // optional underlying error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s Status code: %d, Error message: %s", msg, e.StatusCode, e.Status)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New constructs a new Error.
func New(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// WithStatus constructs an Error carrying the provider's HTTP status.
func WithStatus(kind Kind, msg string, statusCode int, status string) *Error {
	return &Error{Kind: kind, Message: msg, StatusCode: statusCode, Status: status}
}

// KindOf returns the Kind of the first *Error in err's chain, or "" if there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
