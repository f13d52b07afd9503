package service

import (
	"errors"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrMissingFields indicates a required input field was left empty.
	ErrMissingFields = errors.New("all fields are required")
	// ErrInvalidInput wraps a field that is present but malformed.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUserAlreadyExists is returned when attempting to register with an existing username.
	ErrUserAlreadyExists = errors.New("user already exists")
	// ErrInvalidCredentials indicates that provided login credentials are incorrect.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrUserNotFound is returned for lookups of unknown user ids.
	ErrUserNotFound = errors.New("user not found")
	// ErrTransactionNotFound also covers transactions owned by someone else.
	ErrTransactionNotFound = errors.New("transaction not found")
	// ErrUnauthorized is returned when no valid session backs the request.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrExportUnavailable is returned when no export bucket is configured.
	ErrExportUnavailable = errors.New("export storage is not configured")
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func inputValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// checkRequired maps validator failures onto ErrMissingFields.
func checkRequired(in any) error {
	if err := inputValidator().Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return ErrMissingFields
		}
		return err
	}
	return nil
}
