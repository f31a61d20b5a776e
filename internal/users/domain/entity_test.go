package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "user-service/pkg/errors"
)

func validInput() UserInput {
	return UserInput{Name: "Ann", Email: "ann@x.com", Age: 30}
}

func TestValidate_AgeBoundaries(t *testing.T) {
	for _, age := range []int{1, 120} {
		in := validInput()
		in.Age = age
		assert.NoError(t, in.Validate(), "age %d", age)
	}

	for _, age := range []int{0, 121, -5} {
		in := validInput()
		in.Age = age
		err := in.Validate()
		require.Error(t, err, "age %d", age)
		assert.True(t, apperrors.Is(err, apperrors.CodeValidation))
	}
}

func TestValidate_NameLength(t *testing.T) {
	tests := []struct {
		name  string
		valid bool
	}{
		{"A", false},
		{"Al", true},
		{strings.Repeat("x", 50), true},
		{strings.Repeat("x", 51), false},
		{"Zoë", true},
		{"  ", false},
		{"\t\t", false},
		{"   ", false},
		{"", false},
	}

	for _, tt := range tests {
		in := validInput()
		in.Name = tt.name
		if tt.valid {
			assert.NoError(t, in.Validate(), tt.name)
		} else {
			assert.Error(t, in.Validate(), tt.name)
		}
	}
}

func TestValidate_BlankNameIsMandatory(t *testing.T) {
	in := validInput()
	in.Name = "   "

	var appErr *apperrors.AppError
	require.True(t, errors.As(in.Validate(), &appErr))
	assert.Equal(t, []apperrors.FieldError{{Field: "name", Message: "name is mandatory"}}, appErr.Details)
}

func TestValidate_ReportsEveryField(t *testing.T) {
	err := UserInput{Name: "", Email: "not-an-email", Age: 0}.Validate()
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))

	fields, ok := appErr.Details.([]apperrors.FieldError)
	require.True(t, ok)

	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, f.Field)
	}
	assert.ElementsMatch(t, []string{"name", "email", "age"}, names)
}

func TestErrors(t *testing.T) {
	assert.True(t, apperrors.Is(NewEmailAlreadyExists("a@b.co"), apperrors.CodeConflict))
	assert.True(t, apperrors.Is(NewUserNotFound(4), apperrors.CodeNotFound))
	assert.Contains(t, NewUserNotFound(4).Error(), "'4'")
}
