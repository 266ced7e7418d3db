package fault

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound            = errors.New("resource not found")
	ErrUniqueViolation     = errors.New("unique violation")
	ErrForeignKeyViolation = errors.New("restricted for deletion")
)

type Kind int

const (
	KindUnauthorized Kind = iota + 1
	KindNotFound
	KindValidation
	KindInternal
)

// Fault carries an error kind so the API layer can map failures to HTTP
// status codes without inspecting message strings.
type Fault struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Fault) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.kindString(), e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.kindString(), e.Message)
}

// Unwrap allows errors.Is and errors.As to work.
func (e *Fault) Unwrap() error {
	return e.Err
}

func (e *Fault) kindString() string {
	switch e.Kind {
	case KindUnauthorized:
		return "Unauthorized"
	case KindNotFound:
		return "NotFound"
	case KindValidation:
		return "Validation"
	case KindInternal:
		return "Internal"
	default:
		return "Unknown"
	}
}

// NewUnauthorized creates an authorization error (401-equivalent).
func NewUnauthorized(msg string) error {
	return &Fault{Kind: KindUnauthorized, Message: msg}
}

// NewNotFound creates a missing-resource error (404-equivalent).
func NewNotFound(msg string, err error) error {
	return &Fault{Kind: KindNotFound, Message: msg, Err: err}
}

// NewValidation creates an unprocessable-input error (422-equivalent).
func NewValidation(msg string) error {
	return &Fault{Kind: KindValidation, Message: msg}
}

// NewInternal creates an internal server error carrying the underlying cause.
func NewInternal(msg string, err error) error {
	return &Fault{Kind: KindInternal, Message: msg, Err: err}
}

func isKind(err error, kind Kind) bool {
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind == kind
	}
	return false
}

// IsUnauthorized checks if an error is an authorization fault.
func IsUnauthorized(err error) bool { return isKind(err, KindUnauthorized) }

// IsNotFound checks if an error is a missing-resource fault.
func IsNotFound(err error) bool {
	return isKind(err, KindNotFound) || errors.Is(err, ErrNotFound)
}

// IsValidation checks if an error is a validation fault.
func IsValidation(err error) bool { return isKind(err, KindValidation) }

// IsInternal checks if an error is an internal fault.
func IsInternal(err error) bool { return isKind(err, KindInternal) }

// HTTPStatus maps an error to the status code the API layer should write.
func HTTPStatus(err error) int {
	var f *Fault
	if errors.As(err, &f) {
		switch f.Kind {
		case KindUnauthorized:
			return http.StatusUnauthorized
		case KindNotFound:
			return http.StatusNotFound
		case KindValidation:
			return http.StatusUnprocessableEntity
		case KindInternal:
			return http.StatusInternalServerError
		}
	}
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
