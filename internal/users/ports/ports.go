package ports

import (
	"context"

	"user-service/internal/users/domain"
)

// UserRepository defines the interface for user persistence
type UserRepository interface {
	// FindByID retrieves a user by ID, failing with NOT_FOUND when absent
	FindByID(ctx context.Context, id uint) (*domain.User, error)

	// FindAll lists every user in insertion order
	FindAll(ctx context.Context) ([]*domain.User, error)

	// ExistsByEmail reports whether any user has exactly this email
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// Save inserts a new user and assigns its ID
	Save(ctx context.Context, user *domain.User) error

	// Update writes name, email and age of an existing user
	Update(ctx context.Context, user *domain.User) error

	// Delete removes a user by ID
	Delete(ctx context.Context, id uint) error
}

// EventNotifier emits best-effort user change notifications.
// Implementations must not block and must not return delivery failures.
type EventNotifier interface {
	NotifyCreated(ctx context.Context, email, name string)
	NotifyDeleted(ctx context.Context, email, name string)
}

// UserService is the workflow consumed by the REST and gRPC boundaries
type UserService interface {
	CreateUser(ctx context.Context, input domain.UserInput) (*domain.UserView, error)
	GetUser(ctx context.Context, id uint) (*domain.UserView, error)
	ListUsers(ctx context.Context) ([]domain.UserView, error)
	UpdateUser(ctx context.Context, id uint, input domain.UserInput) (*domain.UserView, error)
	DeleteUser(ctx context.Context, id uint) error
}
