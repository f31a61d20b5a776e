package application

import (
	"context"
	"time"

	"github.com/sony/gobreaker"

	"user-service/internal/users/domain"
	"user-service/internal/users/ports"
	"user-service/pkg/breaker"
	"user-service/pkg/logger"
)

// FallbackMessage is returned to callers while the breaker is open
const FallbackMessage = "User Service is unavailable. Please try again later."

// BreakerSettings configures CircuitBreakerService
type BreakerSettings struct {
	Name             string
	FailureThreshold uint32
	OpenTimeout      time.Duration
	HalfOpenRequests uint32
}

// CircuitBreakerService guards a UserService with a circuit breaker.
// Only internal failures count against the breaker; validation, conflict
// and not-found outcomes are ordinary answers.
type CircuitBreakerService struct {
	next ports.UserService
	cb   *breaker.Breaker
}

var _ ports.UserService = (*CircuitBreakerService)(nil)

// NewCircuitBreakerService wraps next
func NewCircuitBreakerService(next ports.UserService, s BreakerSettings, log *logger.Logger) *CircuitBreakerService {
	if s.Name == "" {
		s.Name = "user-service"
	}

	cb := breaker.New(breaker.Settings{
		Name:             s.Name,
		FailureThreshold: s.FailureThreshold,
		OpenTimeout:      s.OpenTimeout,
		HalfOpenRequests: s.HalfOpenRequests,
		FallbackMessage:  FallbackMessage,
	}, log)

	return &CircuitBreakerService{next: next, cb: cb}
}

// State exposes the breaker state for health reporting
func (s *CircuitBreakerService) State() gobreaker.State {
	return s.cb.State()
}

func (s *CircuitBreakerService) execute(fn func() (interface{}, error)) (interface{}, error) {
	return s.cb.Execute(fn)
}

func (s *CircuitBreakerService) CreateUser(ctx context.Context, input domain.UserInput) (*domain.UserView, error) {
	res, err := s.execute(func() (interface{}, error) {
		return s.next.CreateUser(ctx, input)
	})
	if err != nil {
		return nil, err
	}
	return res.(*domain.UserView), nil
}

func (s *CircuitBreakerService) GetUser(ctx context.Context, id uint) (*domain.UserView, error) {
	res, err := s.execute(func() (interface{}, error) {
		return s.next.GetUser(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return res.(*domain.UserView), nil
}

func (s *CircuitBreakerService) ListUsers(ctx context.Context) ([]domain.UserView, error) {
	res, err := s.execute(func() (interface{}, error) {
		return s.next.ListUsers(ctx)
	})
	if err != nil {
		return nil, err
	}
	return res.([]domain.UserView), nil
}

func (s *CircuitBreakerService) UpdateUser(ctx context.Context, id uint, input domain.UserInput) (*domain.UserView, error) {
	res, err := s.execute(func() (interface{}, error) {
		return s.next.UpdateUser(ctx, id, input)
	})
	if err != nil {
		return nil, err
	}
	return res.(*domain.UserView), nil
}

func (s *CircuitBreakerService) DeleteUser(ctx context.Context, id uint) error {
	_, err := s.execute(func() (interface{}, error) {
		return nil, s.next.DeleteUser(ctx, id)
	})
	return err
}
