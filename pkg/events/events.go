package events

// Exchange names
const (
	ExchangeUsers = "users.events"
)

// Routing keys
const (
	RoutingKeyUserCreated = "user.created"
	RoutingKeyUserDeleted = "user.deleted"
)

// SubjectKeyHeader carries the subject email so consumers can partition by user
const SubjectKeyHeader = "x-subject-key"

// EventType tags a user notification
type EventType string

const (
	UserCreated EventType = "CREATED"
	UserDeleted EventType = "DELETED"
)

// RoutingKey returns the topic routing key for the event type
func (t EventType) RoutingKey() string {
	switch t {
	case UserCreated:
		return RoutingKeyUserCreated
	case UserDeleted:
		return RoutingKeyUserDeleted
	default:
		return "user." + string(t)
	}
}

// UserEvent is published when a user is created or deleted
type UserEvent struct {
	EventType EventType `json:"eventType"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
}

// NewUserEvent creates a new UserEvent
func NewUserEvent(eventType EventType, email, name string) *UserEvent {
	return &UserEvent{
		EventType: eventType,
		Email:     email,
		Name:      name,
	}
}
