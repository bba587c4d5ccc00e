package services

import "errors"

// ErrorKind classifies service failures so the HTTP layer can pick a status
// code without string matching.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindConflict
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindValidation
)

// ServiceError carries a kind plus a caller-safe message.
type ServiceError struct {
	Kind    ErrorKind
	Message string
}

func (e *ServiceError) Error() string {
	return e.Message
}

func NewConflict(msg string) error     { return &ServiceError{Kind: KindConflict, Message: msg} }
func NewUnauthorized(msg string) error { return &ServiceError{Kind: KindUnauthorized, Message: msg} }
func NewForbidden(msg string) error    { return &ServiceError{Kind: KindForbidden, Message: msg} }
func NewNotFound(msg string) error     { return &ServiceError{Kind: KindNotFound, Message: msg} }
func NewValidation(msg string) error   { return &ServiceError{Kind: KindValidation, Message: msg} }
func NewInternal(msg string) error     { return &ServiceError{Kind: KindInternal, Message: msg} }

// KindOf extracts the kind from err, defaulting to KindInternal for anything
// that is not a ServiceError.
func KindOf(err error) ErrorKind {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}
