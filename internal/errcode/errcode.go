package errcode

import "errors"

// Domain error sentinels. Services return these, usually wrapped with
// fmt.Errorf and %w, and the API layer maps them to HTTP statuses.
// Anything that matches no sentinel surfaces as a 500.
var (
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrUnsupportedMedia   = errors.New("unsupported media type")
	ErrUpstream           = errors.New("upstream failure")
	ErrPreconditionFailed = errors.New("precondition failed")
)
