package services

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidCredentials is returned for an unknown email or a wrong password
	ErrInvalidCredentials = errors.New("Invalid login credentials")
	// ErrUserExists is returned when signing up with an email that already has an account
	ErrUserExists = errors.New("User already registered")
	// ErrAccessDenied is returned when a non-admin signs in through the admin login
	ErrAccessDenied = errors.New("Access denied. Admin credentials required.")
	// ErrInvalidToken is returned for malformed, forged or expired tokens
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrWrongRole is returned when a user opens a portal that belongs to another role
	ErrWrongRole = errors.New("you do not have access to this page")
	// ErrNurseNotApproved is returned when a nurse whose application is not approved opens the nurse portal
	ErrNurseNotApproved = errors.New("your nurse application has not been approved yet")
	// ErrInvalidState is returned for a status change that is not allowed from the current status
	ErrInvalidState = errors.New("invalid state transition")
	// ErrAlreadyAssigned is returned when the patient is already linked to the nurse
	ErrAlreadyAssigned = errors.New("Patient is already assigned to this nurse")
	// ErrPaymentFailed is returned when the payment provider rejects an operation
	ErrPaymentFailed = errors.New("payment provider error")
)

// ValidationError carries a message that is safe to show to the user
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationErrorf(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
