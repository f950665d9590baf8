package wizard

import (
	"errors"

	"github.com/Eursukkul/waitlist-service/internal/service"
)

const (
	MsgInvalidEmail    = "Please provide a valid email address."
	MsgInvalidUsername = "Please provide a valid username."
	MsgEmailExists     = "This email is already registered. Please use a different email."
	MsgNotFound        = "We couldn't find your registration. Please start again with your email."
	MsgIllegalStep     = "That step isn't available right now."
	MsgSessionBusy     = "Your previous submission is still being processed."
	MsgTryAgainLater   = "An unexpected error occurred. Please try again later."
)

// Message maps an error from a wizard step to the text shown to the user.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, service.ErrInvalidEmail):
		return MsgInvalidEmail
	case errors.Is(err, service.ErrValidation):
		return MsgInvalidUsername
	case errors.Is(err, service.ErrDuplicateEmail):
		return MsgEmailExists
	case errors.Is(err, service.ErrNotFound):
		return MsgNotFound
	case errors.Is(err, ErrIllegalTransition):
		return MsgIllegalStep
	case errors.Is(err, ErrSessionBusy):
		return MsgSessionBusy
	default:
		return MsgTryAgainLater
	}
}
