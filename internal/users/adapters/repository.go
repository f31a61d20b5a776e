package adapters

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"user-service/internal/users/domain"
	"user-service/internal/users/ports"
	apperrors "user-service/pkg/errors"
)

const pgUniqueViolation = "23505"

// UserModel is the GORM model for users (persistence layer)
type UserModel struct {
	ID        uint      `gorm:"primaryKey"`
	Name      string    `gorm:"size:50;not null"`
	Email     string    `gorm:"size:255;uniqueIndex:idx_users_email;not null"`
	Age       int       `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// PostgresUserRepository implements UserRepository using PostgreSQL.
// Every write runs in its own transaction; the unique index on email is the
// authoritative uniqueness check.
type PostgresUserRepository struct {
	db *gorm.DB
}

var _ ports.UserRepository = (*PostgresUserRepository)(nil)

// NewPostgresUserRepository creates a new PostgreSQL user repository
func NewPostgresUserRepository(db *gorm.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

// Migrate runs auto-migration for the user model
func (r *PostgresUserRepository) Migrate() error {
	return r.db.AutoMigrate(&UserModel{})
}

// FindByID retrieves a user by ID
func (r *PostgresUserRepository) FindByID(ctx context.Context, id uint) (*domain.User, error) {
	var model UserModel

	result := r.db.WithContext(ctx).First(&model, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.NewUserNotFound(id)
		}
		return nil, apperrors.NewInternal("failed to get user", result.Error)
	}

	return toDomain(&model), nil
}

// FindAll lists users ordered by ID
func (r *PostgresUserRepository) FindAll(ctx context.Context) ([]*domain.User, error) {
	var models []UserModel

	if err := r.db.WithContext(ctx).Order("id").Find(&models).Error; err != nil {
		return nil, apperrors.Wrap(err, "failed to list users")
	}

	users := make([]*domain.User, 0, len(models))
	for i := range models {
		users = append(users, toDomain(&models[i]))
	}
	return users, nil
}

// ExistsByEmail reports whether the email is already taken (exact, case-sensitive)
func (r *PostgresUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64

	err := r.db.WithContext(ctx).Model(&UserModel{}).Where("email = ?", email).Count(&count).Error
	if err != nil {
		return false, apperrors.NewInternal("failed to check email", err)
	}
	return count > 0, nil
}

// Save inserts a new user and copies the generated ID back
func (r *PostgresUserRepository) Save(ctx context.Context, user *domain.User) error {
	model := toModel(user)

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.NewEmailAlreadyExists(user.Email)
		}
		return apperrors.NewInternal("failed to save user", err)
	}

	user.ID = model.ID
	user.CreatedAt = model.CreatedAt
	return nil
}

// Update writes the mutable columns of an existing user
func (r *PostgresUserRepository) Update(ctx context.Context, user *domain.User) error {
	result := r.db.WithContext(ctx).
		Model(&UserModel{}).
		Where("id = ?", user.ID).
		Updates(map[string]interface{}{
			"name":  user.Name,
			"email": user.Email,
			"age":   user.Age,
		})
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return domain.NewEmailAlreadyExists(user.Email)
		}
		return apperrors.NewInternal("failed to update user", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewUserNotFound(user.ID)
	}
	return nil
}

// Delete deletes a user by ID
func (r *PostgresUserRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&UserModel{}, id)
	if result.Error != nil {
		return apperrors.NewInternal("failed to delete user", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewUserNotFound(id)
	}
	return nil
}

// isUniqueViolation recognises the translated gorm error as well as a raw pg error
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func toModel(user *domain.User) *UserModel {
	return &UserModel{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Age:       user.Age,
		CreatedAt: user.CreatedAt,
	}
}

func toDomain(model *UserModel) *domain.User {
	return &domain.User{
		ID:        model.ID,
		Name:      model.Name,
		Email:     model.Email,
		Age:       model.Age,
		CreatedAt: model.CreatedAt,
	}
}
