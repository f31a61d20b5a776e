package application

import (
	"time"

	"user-service/internal/users/domain"
)

// ToEntity builds a new, not yet persisted user stamped with createdAt
func ToEntity(input domain.UserInput, createdAt time.Time) *domain.User {
	return &domain.User{
		Name:      input.Name,
		Email:     input.Email,
		Age:       input.Age,
		CreatedAt: createdAt,
	}
}

// ApplyUpdate copies the mutable attributes onto user. ID and CreatedAt are left alone.
func ApplyUpdate(user *domain.User, input domain.UserInput) {
	user.Name = input.Name
	user.Email = input.Email
	user.Age = input.Age
}

// ToView converts an entity into its external representation
func ToView(user *domain.User) domain.UserView {
	return domain.UserView{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Age:       user.Age,
		CreatedAt: user.CreatedAt,
	}
}

// ToViews converts a list of entities, preserving order
func ToViews(users []*domain.User) []domain.UserView {
	views := make([]domain.UserView, 0, len(users))
	for _, u := range users {
		views = append(views, ToView(u))
	}
	return views
}
