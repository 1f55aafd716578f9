package domain

import "time"

// EventType names a user state transition.
type EventType string

const (
	EventUserCreated          EventType = "UserCreated"
	EventPasswordChanged      EventType = "PasswordChanged"
	EventRoleChanged          EventType = "RoleChanged"
	EventEstablishmentAssigned EventType = "EstablishmentAssigned"
	EventEstablishmentRemoved  EventType = "EstablishmentRemoved"
)

// Event is an immutable record of a state transition. Events accumulate on
// the aggregate and are handed over via DrainEvents after the mutation has
// been persisted; the aggregate never publishes them itself.
type Event struct {
	EntityID  int64
	Type      EventType
	Data      map[string]any
	Timestamp time.Time
}
