package pipeline

import (
	"errors"
	"fmt"
)

// Kind tags a pipeline error with the disposition category from the error
// handling design: some kinds are fatal to a run, some are per-vehicle
// warnings, some aren't errors at all by the time they reach the caller.
type Kind string

const (
	KindConfigMissing   Kind = "ConfigMissing"
	KindFleetTransient  Kind = "FleetTransient"
	KindFleetExhausted  Kind = "FleetExhausted"
	KindFleetNotFound   Kind = "FleetNotFound"
	KindZonesEmpty      Kind = "ZonesEmpty"
	KindGeometryInvalid Kind = "GeometryInvalid"
	KindPersistence     Kind = "PersistenceError"
	KindValidation      Kind = "ValidationError"
)

// Error is the single typed error carried through the pipeline, grounded on
// the teacher's sentinel-error-plus-wrapping idiom (shared/errors.go,
// ErrCircuitOpen) generalized into one kind-tagged struct.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError constructs a kind-tagged pipeline error.
func NewError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf extracts the Kind from err if it (or something it wraps) is a
// *Error, and ok=false otherwise.
func KindOf(err error) (Kind, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind, true
	}
	return "", false
}
