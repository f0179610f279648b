package sentinel

import "errors"

// Sentinel errors stores and external clients return, optionally wrapped.
// Services translate them into domain errors at the feature boundary.
//
// They state resource facts only:
//   - ErrNotFound: no such record (unknown PIN, session, procedure)
//   - ErrConflict: record already exists (duplicate PIN, radicado)
//   - ErrInvalidState: record exists but the operation does not apply
//   - ErrUnavailable: backing service is down or unreachable
//
// Bad input belongs to pkg/domain-errors, not here.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
