package service

import "errors"

var (
	ErrValidation    = errors.New("validation failed")
	ErrInvalidEmail  = errValidation("invalid email address")
	ErrInvalidHandle = errValidation("username is required")
	ErrUnknownField  = errValidation("unknown social field")

	// ErrDuplicateEmail belongs to the reject-on-resubmit policy. This registry
	// resumes instead, so it is only ever produced by other Registry implementations.
	ErrDuplicateEmail = errors.New("email already registered")

	ErrNotFound = errors.New("waitlist entry not found")

	ErrStore                 = errors.New("waitlist store unavailable")
	ErrReferralCodeExhausted = errStore("could not allocate a unique referral code")
)

type wrappedError struct {
	msg    string
	parent error
}

func (e *wrappedError) Error() string { return e.msg }
func (e *wrappedError) Unwrap() error { return e.parent }

func errValidation(msg string) error { return &wrappedError{msg: msg, parent: ErrValidation} }
func errStore(msg string) error      { return &wrappedError{msg: msg, parent: ErrStore} }
