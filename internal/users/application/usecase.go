package application

import (
	"context"
	"time"

	"go.uber.org/zap"

	"user-service/internal/users/domain"
	"user-service/internal/users/ports"
	"user-service/pkg/errors"
	"user-service/pkg/logger"
)

// UserUseCase orchestrates validation, persistence and notification for users.
// It keeps no state between calls; every step goes to the repository.
type UserUseCase struct {
	repo     ports.UserRepository
	notifier ports.EventNotifier
	log      *logger.Logger
	now      func() time.Time
}

var _ ports.UserService = (*UserUseCase)(nil)

// Option customizes a UserUseCase
type Option func(*UserUseCase)

// WithClock overrides the time source used to stamp new users
func WithClock(now func() time.Time) Option {
	return func(uc *UserUseCase) {
		uc.now = now
	}
}

// NewUserUseCase creates a new user use case. notifier may be nil when events are disabled.
func NewUserUseCase(repo ports.UserRepository, notifier ports.EventNotifier, log *logger.Logger, opts ...Option) *UserUseCase {
	uc := &UserUseCase{
		repo:     repo,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// CreateUser validates the input, rejects taken emails, stores the user and announces it
func (uc *UserUseCase) CreateUser(ctx context.Context, input domain.UserInput) (*domain.UserView, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	exists, err := uc.repo.ExistsByEmail(ctx, input.Email)
	if err != nil {
		return nil, errors.Wrap(err, "failed to check email existence")
	}
	if exists {
		return nil, domain.NewEmailAlreadyExists(input.Email)
	}

	// postgres keeps microseconds; truncate so the returned view matches later reads
	user := ToEntity(input, uc.now().UTC().Truncate(time.Microsecond))
	if err := uc.repo.Save(ctx, user); err != nil {
		return nil, err
	}

	if uc.notifier != nil {
		uc.notifier.NotifyCreated(ctx, user.Email, user.Name)
	}

	uc.log.WithContext(ctx).Info("user created",
		zap.Uint("user_id", user.ID),
		zap.String("email", user.Email),
	)

	view := ToView(user)
	return &view, nil
}

// GetUser retrieves a user by ID
func (uc *UserUseCase) GetUser(ctx context.Context, id uint) (*domain.UserView, error) {
	user, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	view := ToView(user)
	return &view, nil
}

// ListUsers returns every user
func (uc *UserUseCase) ListUsers(ctx context.Context) ([]domain.UserView, error) {
	users, err := uc.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return ToViews(users), nil
}

// UpdateUser replaces name, email and age of an existing user.
// Email uniqueness is only rechecked when the email changes. No event is emitted.
func (uc *UserUseCase) UpdateUser(ctx context.Context, id uint, input domain.UserInput) (*domain.UserView, error) {
	user, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := input.Validate(); err != nil {
		return nil, err
	}

	if input.Email != user.Email {
		exists, err := uc.repo.ExistsByEmail(ctx, input.Email)
		if err != nil {
			return nil, errors.Wrap(err, "failed to check email existence")
		}
		if exists {
			return nil, domain.NewEmailAlreadyExists(input.Email)
		}
	}

	ApplyUpdate(user, input)
	if err := uc.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	uc.log.WithContext(ctx).Info("user updated", zap.Uint("user_id", user.ID))

	view := ToView(user)
	return &view, nil
}

// DeleteUser announces the deletion and then removes the user.
// The notification goes out before the row is removed, so a failed delete
// still leaves a DELETED event behind.
func (uc *UserUseCase) DeleteUser(ctx context.Context, id uint) error {
	user, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if uc.notifier != nil {
		uc.notifier.NotifyDeleted(ctx, user.Email, user.Name)
	}

	if err := uc.repo.Delete(ctx, id); err != nil {
		return err
	}

	uc.log.WithContext(ctx).Info("user deleted",
		zap.Uint("user_id", id),
		zap.String("email", user.Email),
	)
	return nil
}
