package domain

import apperrors "user-service/pkg/errors"

// NewValidationFailed creates a validation error listing every rejected field
func NewValidationFailed(fields []apperrors.FieldError) error {
	return apperrors.NewValidation("request validation failed", fields)
}

// NewEmailAlreadyExists creates a conflict error naming the taken email
func NewEmailAlreadyExists(email string) error {
	return apperrors.NewConflict("email already exists: "+email, map[string]string{"email": email})
}

// NewUserNotFound creates a not found error with the user ID
func NewUserNotFound(id uint) error {
	return apperrors.NewNotFound("user", id)
}
