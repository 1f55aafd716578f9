package domain

import (
	"strings"
	"time"
)

// User is the aggregate around identity, credentials and role. All fields
// are private; state changes go through the guarded mutators below, which
// keep the invariants and append domain events for the caller to drain.
//
// The central invariant: a user with role server always has a non-nil
// establishment id. It is enforced on creation, on role change, and on
// removal of the establishment link.
type User struct {
	id              int64
	name            string
	passwordHash    PasswordHash
	role            Role
	establishmentID *int64
	createdAt       time.Time
	updatedAt       time.Time

	events []Event
}

// NewUser creates a user from a plaintext password. The password must meet
// the full strength policy (including the special-character class). The id
// stays zero until the store assigns one.
func NewUser(role Role, name, password string, establishmentID *int64, bcryptCost int) (*User, error) {
	if err := validateIdentity(role, name, establishmentID); err != nil {
		return nil, err
	}

	hash, err := HashPassword(password, bcryptCost)
	if err != nil {
		return nil, err
	}
	return newUser(role, name, hash, establishmentID), nil
}

// NewUserWithHash creates a user from an already-hashed credential. The
// hash must belong to the recognized prefix family; strength validation is
// skipped because the plaintext is no longer available. This backs the
// administrative creation path where legacy hashes are imported as-is.
func NewUserWithHash(role Role, name string, hash PasswordHash, establishmentID *int64) (*User, error) {
	if err := validateIdentity(role, name, establishmentID); err != nil {
		return nil, err
	}
	if hash.IsZero() {
		return nil, ErrPasswordRequired
	}
	return newUser(role, name, hash, establishmentID), nil
}

func newUser(role Role, name string, hash PasswordHash, establishmentID *int64) *User {
	now := time.Now().UTC()
	u := &User{
		name:            name,
		passwordHash:    hash,
		role:            role,
		establishmentID: establishmentID,
		createdAt:       now,
		updatedAt:       now,
	}
	u.record(EventUserCreated, map[string]any{"role": string(role), "name": name}, now)
	return u
}

func validateIdentity(role Role, name string, establishmentID *int64) error {
	if !role.Valid() {
		return ErrInvalidRole
	}
	if len(strings.TrimSpace(name)) < 2 {
		return ErrNameTooShort
	}
	if role == RoleServer && establishmentID == nil {
		return ErrServerNeedsEstablishment
	}
	return nil
}

// Restore rebuilds a user from stored state. No validation, no events;
// the store is trusted to hold consistent rows.
func Restore(id int64, name string, hash PasswordHash, role Role, establishmentID *int64, createdAt, updatedAt time.Time) *User {
	return &User{
		id:              id,
		name:            name,
		passwordHash:    hash,
		role:            role,
		establishmentID: establishmentID,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
	}
}

func (u *User) ID() int64                  { return u.id }
func (u *User) Name() string               { return u.name }
func (u *User) Role() Role                 { return u.role }
func (u *User) CreatedAt() time.Time       { return u.createdAt }
func (u *User) UpdatedAt() time.Time       { return u.updatedAt }
func (u *User) PasswordHash() PasswordHash { return u.passwordHash }

// EstablishmentID returns a copy of the optional establishment reference.
func (u *User) EstablishmentID() *int64 {
	if u.establishmentID == nil {
		return nil
	}
	id := *u.establishmentID
	return &id
}

// AssignID is called once by the store adapter after insertion. The id is
// immutable once set; later calls are ignored.
func (u *User) AssignID(id int64) {
	if u.id == 0 {
		u.id = id
	}
}

// Equals compares by identity only.
func (u *User) Equals(other *User) bool {
	return other != nil && u.id == other.id
}

// VerifyPassword reports whether plain matches the stored hash. Any
// comparison failure reads as false.
func (u *User) VerifyPassword(plain string) bool {
	return u.passwordHash.Verify(plain)
}

// ChangePassword validates the strength policy, re-hashes and emits
// PasswordChanged. Whether the caller may do this is the service's concern.
func (u *User) ChangePassword(newPassword string, bcryptCost int) error {
	hash, err := HashPassword(newPassword, bcryptCost)
	if err != nil {
		return err
	}
	u.passwordHash = hash
	now := u.touch()
	u.record(EventPasswordChanged, map[string]any{"userId": u.id}, now)
	return nil
}

// Rename updates the display/login name. Uniqueness is checked by the
// service against the store; the aggregate only guards the length rule.
func (u *User) Rename(name string) error {
	if len(strings.TrimSpace(name)) < 2 {
		return ErrNameTooShort
	}
	u.name = name
	u.touch()
	return nil
}

// ChangeRole switches the role. Moving to server requires an existing
// establishment link. Changing to the current role is a no-op: no event,
// no updatedAt bump.
func (u *User) ChangeRole(newRole Role) error {
	if !newRole.Valid() {
		return ErrInvalidRole
	}
	if newRole == u.role {
		return nil
	}
	if newRole == RoleServer && u.establishmentID == nil {
		return ErrServerNeedsEstablishment
	}

	oldRole := u.role
	u.role = newRole
	now := u.touch()
	u.record(EventRoleChanged, map[string]any{
		"oldRole": string(oldRole),
		"newRole": string(newRole),
		"userId":  u.id,
	}, now)
	return nil
}

// AssignToEstablishment links the user to an establishment.
func (u *User) AssignToEstablishment(establishmentID int64) {
	var old any
	if u.establishmentID != nil {
		old = *u.establishmentID
	}
	u.establishmentID = &establishmentID
	now := u.touch()
	u.record(EventEstablishmentAssigned, map[string]any{
		"oldEstablishment": old,
		"newEstablishment": establishmentID,
		"userId":           u.id,
	}, now)
}

// RemoveFromEstablishment clears the link. Refused for servers, which must
// stay attached to an establishment.
func (u *User) RemoveFromEstablishment() error {
	if u.role == RoleServer {
		return ErrServerKeepsEstablishment
	}

	var old any
	if u.establishmentID != nil {
		old = *u.establishmentID
	}
	u.establishmentID = nil
	now := u.touch()
	u.record(EventEstablishmentRemoved, map[string]any{
		"oldEstablishment": old,
		"userId":           u.id,
	}, now)
	return nil
}

// Permissions returns the permission set derived from the role.
func (u *User) Permissions() []string {
	return PermissionsForRole(u.role)
}

// HasPermission reports whether the role grants the named permission.
func (u *User) HasPermission(permission string) bool {
	for _, p := range u.Permissions() {
		if p == permission {
			return true
		}
	}
	return false
}

// CanAccessEstablishment: admins reach every establishment, everyone else
// only their own.
func (u *User) CanAccessEstablishment(establishmentID int64) bool {
	if u.role == RoleAdmin {
		return true
	}
	return u.establishmentID != nil && *u.establishmentID == establishmentID
}

// DrainEvents returns the buffered events and clears the buffer. Call it
// after the mutation has been persisted. Events recorded before the store
// assigned an id carry the now-known id.
func (u *User) DrainEvents() []Event {
	events := u.events
	u.events = nil
	for i := range events {
		if events[i].EntityID == 0 {
			events[i].EntityID = u.id
		}
	}
	return events
}

func (u *User) touch() time.Time {
	now := time.Now().UTC()
	u.updatedAt = now
	return now
}

func (u *User) record(t EventType, data map[string]any, ts time.Time) {
	u.events = append(u.events, Event{
		EntityID:  u.id,
		Type:      t,
		Data:      data,
		Timestamp: ts,
	})
}
