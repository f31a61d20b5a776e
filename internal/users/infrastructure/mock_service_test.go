package infrastructure

import (
	"context"

	"github.com/stretchr/testify/mock"

	"user-service/internal/users/domain"
)

// MockUserService is a testify mock of ports.UserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) CreateUser(ctx context.Context, input domain.UserInput) (*domain.UserView, error) {
	args := m.Called(ctx, input)
	if v, ok := args.Get(0).(*domain.UserView); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserService) GetUser(ctx context.Context, id uint) (*domain.UserView, error) {
	args := m.Called(ctx, id)
	if v, ok := args.Get(0).(*domain.UserView); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserService) ListUsers(ctx context.Context) ([]domain.UserView, error) {
	args := m.Called(ctx)
	if v, ok := args.Get(0).([]domain.UserView); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserService) UpdateUser(ctx context.Context, id uint, input domain.UserInput) (*domain.UserView, error) {
	args := m.Called(ctx, id, input)
	if v, ok := args.Get(0).(*domain.UserView); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserService) DeleteUser(ctx context.Context, id uint) error {
	return m.Called(ctx, id).Error(0)
}
