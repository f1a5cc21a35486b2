package iocraft

import (
	"errors"
	"fmt"
)

// Error variables used throughout the package
var (
	// ErrNotRegistered is returned when a type is resolved without being registered with Register.
	// This is the most common failure: the service type was never passed to Register.
	ErrNotRegistered = errors.New("service not registered")

	// ErrPrematureAccess is returned when a circular dependency is dereferenced before
	// the construction that requested it has completed.
	ErrPrematureAccess = errors.New("dependency accessed before construction completed")

	// ErrTeardown wraps failures raised by a service's own disposal logic.
	// These are logged and never returned from resolution calls.
	ErrTeardown = errors.New("service teardown failed")

	// ErrFacadeCollision marks an instance-own method found where a layer method was expected.
	ErrFacadeCollision = errors.New("instance method found as own member")

	// ErrMemberNotFound is returned when a facade has no member with the requested key.
	ErrMemberNotFound = errors.New("facade member not found")

	// ErrReadOnlyMember is returned when writing a member that has no setter.
	ErrReadOnlyMember = errors.New("facade member is read-only")

	// ErrWriteOnlyMember is returned when reading a member that has no getter.
	ErrWriteOnlyMember = errors.New("facade member is write-only")

	// ErrNotCallable is returned when calling a member that is not a method.
	ErrNotCallable = errors.New("facade member is not callable")

	// ErrTypeMismatch is returned when a value does not fit the member it is assigned to.
	ErrTypeMismatch = errors.New("value type mismatch")

	// ErrInvalidSchema is returned when a service schema fails validation.
	ErrInvalidSchema = errors.New("invalid service schema")

	// ErrInvalidOptions is returned by Install when bootstrap options fail validation.
	ErrInvalidOptions = errors.New("invalid bootstrap options")

	// ErrNilInstance is returned when a constructor returns neither an instance nor an error.
	ErrNilInstance = errors.New("constructor returned nil instance")
)

// NotRegisteredError is returned when resolving a type that carries no descriptor.
type NotRegisteredError struct {
	Name string
}

func (e *NotRegisteredError) Error() string {
	return fmt.Sprintf("iocraft: %s is not registered, register it with iocraft.Register before resolving it", e.Name)
}

func (e *NotRegisteredError) Unwrap() error {
	return ErrNotRegistered
}

// PrematureAccessError is returned when a lazy handle to a service is forced while
// the service is still being constructed.
type PrematureAccessError struct {
	Name string
	// Via is the service whose handle was used, when it differs from Name.
	Via string
}

func (e *PrematureAccessError) Error() string {
	via := ""
	if e.Via != "" {
		via = " (reached through " + e.Via + ")"
	}

	return fmt.Sprintf(
		"iocraft: %s was accessed before its construction completed%s; "+
			"a circular dependency was read in a constructor instead of lazily in a method",
		e.Name, via,
	)
}

func (e *PrematureAccessError) Unwrap() error {
	return ErrPrematureAccess
}

// TeardownError wraps an error or a recovered panic from a service's disposal logic.
type TeardownError struct {
	Name  string
	Cause error
}

func (e *TeardownError) Error() string {
	return fmt.Sprintf("iocraft: teardown of %s failed: %v", e.Name, e.Cause)
}

func (e *TeardownError) Unwrap() []error {
	return []error{ErrTeardown, e.Cause}
}

// FacadeCollisionWarning is a diagnostic: an own member of the instance is a method.
// Methods are expected on a layer. The member is skipped.
type FacadeCollisionWarning struct {
	Name string
	Key  Key
}

func (e *FacadeCollisionWarning) Error() string {
	return fmt.Sprintf("iocraft: instance method %q of %s found as own member, consider moving it to a layer", e.Key, e.Name)
}

func (e *FacadeCollisionWarning) Unwrap() error {
	return ErrFacadeCollision
}

// MemberNotFoundError is returned when a facade has no member with the requested key.
type MemberNotFoundError struct {
	Name string
	Key  Key
}

func (e *MemberNotFoundError) Error() string {
	return fmt.Sprintf("iocraft: %s has no member %q", e.Name, e.Key)
}

func (e *MemberNotFoundError) Unwrap() error {
	return ErrMemberNotFound
}

// AccessError is returned when a member does not support the requested operation.
type AccessError struct {
	Name  string
	Key   Key
	Cause error
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("iocraft: %s.%s: %v", e.Name, e.Key, e.Cause)
}

func (e *AccessError) Unwrap() error {
	return e.Cause
}

// TypeMismatchError is returned when a value of the wrong type is assigned or returned.
type TypeMismatchError struct {
	Key      Key
	Expected string
	Actual   string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("iocraft: member %q expects %s, got %s", e.Key, e.Expected, e.Actual)
}

func (e *TypeMismatchError) Unwrap() error {
	return ErrTypeMismatch
}
