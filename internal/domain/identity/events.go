package identity

import (
	"time"

	"github.com/joinville/accounts/internal/domain/shared"
)

// AggregateTypeUser is the aggregate type of user events
const AggregateTypeUser = "User"

// User domain event types
const (
	EventTypeUserRegistered      = "UserRegistered"
	EventTypeUserPasswordChanged = "UserPasswordChanged"
)

// UserRegisteredEvent is published when an account is created
type UserRegisteredEvent struct {
	shared.BaseDomainEvent
	UserName string `json:"user_name"`
	Email    string `json:"email"`
}

// NewUserRegisteredEvent creates a new UserRegisteredEvent
func NewUserRegisteredEvent(u *User) *UserRegisteredEvent {
	return &UserRegisteredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserRegistered, AggregateTypeUser, u.ID),
		UserName:        u.UserName,
		Email:           u.Email,
	}
}

// UserPasswordChangedEvent is published when a user changes the password
type UserPasswordChangedEvent struct {
	shared.BaseDomainEvent
	UserName  string    `json:"user_name"`
	ChangedAt time.Time `json:"changed_at"`
}

// NewUserPasswordChangedEvent creates a new UserPasswordChangedEvent
func NewUserPasswordChangedEvent(u *User) *UserPasswordChangedEvent {
	return &UserPasswordChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserPasswordChanged, AggregateTypeUser, u.ID),
		UserName:        u.UserName,
		ChangedAt:       time.Now(),
	}
}
