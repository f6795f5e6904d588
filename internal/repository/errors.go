// Package repository implements MySQL persistence for the ticketing
// engine and its surrounding CRUD surfaces.  Sentinel errors defined
// here let handlers map failures to HTTP status codes without string
// matching.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own.  Handlers translate this into HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an insert collides with existing state,
// such as creating a staff member with a taken username.  Handlers
// translate this into HTTP 409.
var ErrConflict = errors.New("conflict")
