package patients

import "errors"

var (
	// ErrMissingOrgID is returned when the request carries no org
	ErrMissingOrgID = errors.New("org id is required")

	// ErrInvalidName is returned when first or last name is missing
	ErrInvalidName = errors.New("first and last name are required")

	// ErrMissingContact is returned when both email and phone are missing
	ErrMissingContact = errors.New("either email or phone is required")

	ErrInvalidEmail       = errors.New("email is invalid")
	ErrInvalidDateOfBirth = errors.New("date of birth must be YYYY-MM-DD")
	ErrInvalidStatus      = errors.New("unknown patient status")

	// ErrPatientNotFound is returned when a patient is not found
	ErrPatientNotFound = errors.New("patient not found")
)

// IsValidation reports whether err came from request validation.
func IsValidation(err error) bool {
	return errors.Is(err, ErrMissingOrgID) ||
		errors.Is(err, ErrInvalidName) ||
		errors.Is(err, ErrMissingContact) ||
		errors.Is(err, ErrInvalidEmail) ||
		errors.Is(err, ErrInvalidDateOfBirth) ||
		errors.Is(err, ErrInvalidStatus)
}
