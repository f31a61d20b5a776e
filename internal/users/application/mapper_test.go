package application

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"user-service/internal/users/domain"
)

func TestToEntity(t *testing.T) {
	now := time.Date(2023, 1, 1, 10, 0, 0, 0, time.UTC)

	user := ToEntity(domain.UserInput{Name: "John Doe", Email: "john@example.com", Age: 30}, now)

	assert.Zero(t, user.ID)
	assert.Equal(t, "John Doe", user.Name)
	assert.Equal(t, "john@example.com", user.Email)
	assert.Equal(t, 30, user.Age)
	assert.Equal(t, now, user.CreatedAt)
}

func TestApplyUpdate_KeepsIdentity(t *testing.T) {
	created := time.Date(2023, 1, 1, 10, 0, 0, 0, time.UTC)
	user := &domain.User{ID: 9, Name: "Old", Email: "old@x.com", Age: 20, CreatedAt: created}

	ApplyUpdate(user, domain.UserInput{Name: "New", Email: "new@x.com", Age: 21})

	assert.Equal(t, &domain.User{ID: 9, Name: "New", Email: "new@x.com", Age: 21, CreatedAt: created}, user)
}

func TestToView_DoesNotMutate(t *testing.T) {
	user := &domain.User{ID: 1, Name: "Ann", Email: "ann@x.com", Age: 30}
	before := *user

	view := ToView(user)
	view.Name = "changed"

	assert.Equal(t, before, *user)
}

func TestToViews(t *testing.T) {
	assert.Empty(t, ToViews(nil))
	assert.NotNil(t, ToViews(nil))

	views := ToViews([]*domain.User{{ID: 2}, {ID: 1}})
	assert.Equal(t, uint(2), views[0].ID)
	assert.Equal(t, uint(1), views[1].ID)
}
