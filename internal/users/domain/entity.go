package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	apperrors "user-service/pkg/errors"
)

// Field limits for a user record
const (
	NameMinLength = 2
	NameMaxLength = 50
	MinAge        = 1
	MaxAge        = 120
)

// User represents the user domain entity.
// ID and CreatedAt are fixed once the user is first persisted.
type User struct {
	ID        uint
	Name      string
	Email     string
	Age       int
	CreatedAt time.Time
}

// UserInput carries the mutable attributes of a user for create and update
type UserInput struct {
	Name  string `validate:"notblank,min=2,max=50"`
	Email string `validate:"required,email"`
	Age   int    `validate:"min=1,max=120"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// whitespace-only names count as missing
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	return v
}

// Validate checks every field and reports all violations at once
func (in UserInput) Validate() error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.NewValidation("request validation failed", err.Error())
	}

	fields := make([]apperrors.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apperrors.FieldError{
			Field:   jsonName(fe.Field()),
			Message: describe(fe),
		})
	}
	return NewValidationFailed(fields)
}

func jsonName(field string) string {
	switch field {
	case "Name":
		return "name"
	case "Email":
		return "email"
	case "Age":
		return "age"
	default:
		return field
	}
}

func describe(fe validator.FieldError) string {
	switch fe.Field() {
	case "Name":
		if fe.Tag() == "notblank" {
			return "name is mandatory"
		}
		return fmt.Sprintf("name must be between %d and %d characters", NameMinLength, NameMaxLength)
	case "Email":
		if fe.Tag() == "required" {
			return "email is mandatory"
		}
		return "email should be valid"
	case "Age":
		if fe.Tag() == "min" {
			return fmt.Sprintf("age must be at least %d", MinAge)
		}
		return fmt.Sprintf("age must be at most %d", MaxAge)
	default:
		return fe.Error()
	}
}
