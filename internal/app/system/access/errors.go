package access

import "errors"

// Sentinel errors returned by the engine. Handlers map them to HTTP
// statuses with jsonutil.EngineError.
//
// A caller with no relationship to a resource gets ErrNotFound rather
// than ErrAccessDenied, so probing for ids reveals nothing.
// ErrAccessDenied is reserved for callers who can see the resource but
// lack the privilege for the operation.
var (
	ErrNotFound         = errors.New("not found")
	ErrAccessDenied     = errors.New("access denied")
	ErrPasswordRequired = errors.New("password required")
	ErrInvalidPassword  = errors.New("incorrect password")
	ErrConflict         = errors.New("conflict")
	ErrValidation       = errors.New("invalid input")
)
