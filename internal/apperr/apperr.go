package apperr

import "fmt"

// Kind classifies an error so handlers can pick an HTTP status without
// matching on message strings.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindInvalidFormat
	KindNotFound
	KindUpstream
	KindStorage
	KindAuthorization
)

// Code returns the machine-readable category name used in response envelopes.
func (k Kind) Code() string {
	switch k {
	case KindValidation:
		return "validation_error"
	case KindInvalidFormat:
		return "invalid_format"
	case KindNotFound:
		return "not_found"
	case KindUpstream:
		return "upstream_error"
	case KindStorage:
		return "storage_error"
	case KindAuthorization:
		return "authorization_error"
	default:
		return "internal_error"
	}
}

// Error carries a kind, a user-facing message and an optional wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an error with the given kind and user-facing message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an error with the given kind and message around a cause.
// A nil cause returns a nil error, not a typed-nil *Error, so the result
// is safe to return and compare as an error.
func Wrap(cause error, kind Kind, message string) error {
	if cause == nil {
		return nil
	}
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// KindOf extracts the kind from err, walking the unwrap chain.
// Errors that are not *Error report KindUnknown.
func KindOf(err error) Kind {
	for err != nil {
		if ae, ok := err.(*Error); ok {
			return ae.Kind
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return KindUnknown
		}
		err = u.Unwrap()
	}
	return KindUnknown
}

// MessageOf returns the user-facing message of err, or a generic fallback
// for errors that carry no *Error in their chain.
func MessageOf(err error) string {
	for err != nil {
		if ae, ok := err.(*Error); ok {
			return ae.Message
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return "internal server error"
}
