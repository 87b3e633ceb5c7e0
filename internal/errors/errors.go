// Package errors holds the sentinels shared by the deployer and the browser.
// Service wrappers wrap them with context; the CLI turns them into exit
// messages and httputil into status codes.
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound: the remote object (realm, policy, negotiation, dataset) is absent.
	ErrNotFound = errors.New("not found")

	// ErrConflict: the object already exists, e.g. a database or role.
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput: an entity name, method or request field was rejected.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized: missing session or rejected credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden: the admin account may not touch the object.
	ErrForbidden = errors.New("forbidden")

	// ErrPrecondition indicates an operation was attempted before the state it depends on exists.
	ErrPrecondition = errors.New("precondition failed")

	// ErrUnavailable indicates a remote service answered with an unexpected status.
	ErrUnavailable = errors.New("remote service unavailable")
)

// New is errors.New.
func New(message string) error {
	return errors.New(message)
}

// Wrap prefixes err with message, keeping it matchable with Is. A nil err stays nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf is Wrap with a formatted message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is is errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As is errors.As.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Join is errors.Join; best-effort deletes use it to report every failure.
func Join(errs ...error) error {
	return errors.Join(errs...)
}
