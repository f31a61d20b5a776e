package breaker

import (
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	apperrors "user-service/pkg/errors"
	"user-service/pkg/logger"
)

// Settings configures a Breaker
type Settings struct {
	Name             string
	FailureThreshold uint32
	OpenTimeout      time.Duration
	HalfOpenRequests uint32
	// FallbackMessage is the SERVICE_UNAVAILABLE message returned while open
	FallbackMessage string
}

// Breaker is a gobreaker circuit that only counts server faults as failures
// and reports rejected calls as SERVICE_UNAVAILABLE.
type Breaker struct {
	cb       *gobreaker.CircuitBreaker
	fallback string
}

// New creates a breaker with defaults for unset settings
func New(s Settings, log *logger.Logger) *Breaker {
	if s.FailureThreshold == 0 {
		s.FailureThreshold = 5
	}
	if s.HalfOpenRequests == 0 {
		s.HalfOpenRequests = 1
	}
	if s.FallbackMessage == "" {
		s.FallbackMessage = "service unavailable"
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: s.HalfOpenRequests,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.FailureThreshold
		},
		IsSuccessful: IsSuccessful,
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Breaker{cb: cb, fallback: s.FallbackMessage}
}

// IsSuccessful reports whether err should count as a healthy call.
// Validation, conflict and not-found outcomes are ordinary answers.
func IsSuccessful(err error) bool {
	if err == nil {
		return true
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Code != apperrors.CodeInternal && appErr.Code != apperrors.CodeUnavailable
	}
	return false
}

// Execute runs fn through the breaker
func (b *Breaker) Execute(fn func() (interface{}, error)) (interface{}, error) {
	result, err := b.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, apperrors.NewUnavailable(b.fallback, err)
	}
	return result, err
}

// State exposes the breaker state for health reporting
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}

// Name returns the breaker name
func (b *Breaker) Name() string {
	return b.cb.Name()
}
