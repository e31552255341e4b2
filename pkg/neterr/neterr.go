// Package neterr holds the error taxonomy shared by the network model.
//
// Every failure is one of a small set of sentinels. Callers match them with
// errors.Is; the wrapping *Error carries the entity kind, name and offending
// value so the failure can be reported precisely.
package neterr

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidParameter is returned for out-of-domain r/x/g/b values,
	// empty identifiers and malformed voltages.
	ErrInvalidParameter = errors.New("ybus: invalid parameter")

	// ErrDuplicateName is returned when a name is already used in its collection.
	ErrDuplicateName = errors.New("ybus: duplicate name")

	// ErrUnknownBus is returned when a bus name is not registered.
	ErrUnknownBus = errors.New("ybus: unknown bus")

	// ErrNotBuilt is returned when the system matrix is read before any build.
	ErrNotBuilt = errors.New("ybus: admittance matrix not built")

	// ErrStale is returned when the system matrix is read after a mutation
	// invalidated the last build.
	ErrStale = errors.New("ybus: admittance matrix is stale")
)

// Error wraps one of the sentinels with the context of the failure.
type Error struct {
	Kind   error  // one of the sentinels above
	Entity string // "bus", "transformer", "transmission line", ...
	Name   string
	Field  string // offending field, empty when the name itself is the problem
	Value  any
	Reason string
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Entity != "" {
		msg += fmt.Sprintf(": %s %q", e.Entity, e.Name)
	}
	if e.Field != "" {
		msg += fmt.Sprintf(": %s=%v", e.Field, e.Value)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func InvalidParameter(entity, name, field string, value any, reason string) *Error {
	return &Error{Kind: ErrInvalidParameter, Entity: entity, Name: name, Field: field, Value: value, Reason: reason}
}

func DuplicateName(entity, name string) *Error {
	return &Error{Kind: ErrDuplicateName, Entity: entity, Name: name, Reason: "already exists"}
}

// UnknownBus reports that entity name references the missing bus busName.
func UnknownBus(entity, name, busName string) *Error {
	return &Error{Kind: ErrUnknownBus, Entity: entity, Name: name, Field: "bus", Value: busName, Reason: "not in circuit"}
}

func NotBuilt(circuit string) *Error {
	return &Error{Kind: ErrNotBuilt, Entity: "circuit", Name: circuit}
}

func Stale(circuit, reason string) *Error {
	return &Error{Kind: ErrStale, Entity: "circuit", Name: circuit, Reason: reason}
}
