package domain

import (
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func ptr(v int64) *int64 { return &v }

func mustUser(t *testing.T, role Role, name string, establishmentID *int64) *User {
	t.Helper()
	u, err := NewUser(role, name, "Passw0rd!", establishmentID, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewUser(%s, %s): %v", role, name, err)
	}
	return u
}

func TestNewUser_EmitsUserCreated(t *testing.T) {
	u := mustUser(t, RoleAdmin, "alice_01", nil)

	if u.ID() != 0 {
		t.Fatalf("fresh user should have no id, got %d", u.ID())
	}
	events := u.DrainEvents()
	if len(events) != 1 || events[0].Type != EventUserCreated {
		t.Fatalf("expected one UserCreated event, got %v", events)
	}
	if events[0].Data["name"] != "alice_01" {
		t.Fatalf("event data missing name: %v", events[0].Data)
	}
}

func TestNewUser_Validation(t *testing.T) {
	cases := []struct {
		label           string
		role            Role
		name            string
		establishmentID *int64
		want            error
	}{
		{"invalid role", Role("cook"), "alice", nil, ErrInvalidRole},
		{"name too short", RoleAdmin, "a", nil, ErrNameTooShort},
		{"whitespace name", RoleAdmin, "  ", nil, ErrNameTooShort},
		{"server without establishment", RoleServer, "bob", nil, ErrServerNeedsEstablishment},
	}
	for _, tc := range cases {
		_, err := NewUser(tc.role, tc.name, "Passw0rd!", tc.establishmentID, bcrypt.MinCost)
		if !errors.Is(err, tc.want) {
			t.Errorf("%s: got %v, want %v", tc.label, err, tc.want)
		}
	}
}

func TestNewUser_WeakPassword(t *testing.T) {
	_, err := NewUser(RoleAdmin, "alice", "password", nil, bcrypt.MinCost)
	var wpe *WeakPasswordError
	if !errors.As(err, &wpe) {
		t.Fatalf("expected WeakPasswordError, got %v", err)
	}
	if len(wpe.Missing) != 3 {
		t.Fatalf("expected upper/digit/special reported, got %v", wpe.Missing)
	}
}

func TestNewUserWithHash(t *testing.T) {
	hash, err := HashPassword("Passw0rd!", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}

	u, err := NewUserWithHash(RoleManager, "carol", hash, nil)
	if err != nil {
		t.Fatalf("NewUserWithHash: %v", err)
	}
	if !u.VerifyPassword("Passw0rd!") {
		t.Fatalf("imported hash does not verify")
	}

	if _, err := NewUserWithHash(RoleManager, "carol", PasswordHash{}, nil); !errors.Is(err, ErrPasswordRequired) {
		t.Fatalf("expected ErrPasswordRequired for zero hash, got %v", err)
	}
}

func TestAssignID_OnlyOnce(t *testing.T) {
	u := mustUser(t, RoleAdmin, "alice", nil)
	u.AssignID(7)
	u.AssignID(42)
	if u.ID() != 7 {
		t.Fatalf("id should be immutable once assigned, got %d", u.ID())
	}
}

func TestDrainEvents_BackfillsAssignedID(t *testing.T) {
	u := mustUser(t, RoleAdmin, "alice", nil)
	u.AssignID(7)

	events := u.DrainEvents()
	if len(events) != 1 {
		t.Fatalf("expected one event, got %d", len(events))
	}
	if events[0].EntityID != 7 {
		t.Fatalf("event should carry the assigned id, got %d", events[0].EntityID)
	}
	if got := u.DrainEvents(); len(got) != 0 {
		t.Fatalf("second drain should be empty, got %v", got)
	}
}

func TestEquals_ByIdentityOnly(t *testing.T) {
	a := mustUser(t, RoleAdmin, "alice", nil)
	b := mustUser(t, RoleManager, "bob", nil)
	a.AssignID(1)
	b.AssignID(1)

	if !a.Equals(b) {
		t.Fatalf("users with the same id should be equal")
	}
	if a.Equals(nil) {
		t.Fatalf("nil comparison should be false")
	}
}

func TestChangePassword(t *testing.T) {
	u := mustUser(t, RoleAdmin, "alice", nil)
	u.AssignID(1)
	u.DrainEvents()

	if err := u.ChangePassword("weak", bcrypt.MinCost); err == nil {
		t.Fatalf("weak password accepted")
	}
	if !u.VerifyPassword("Passw0rd!") {
		t.Fatalf("failed change should leave the old hash in place")
	}

	if err := u.ChangePassword("N3wSecret!", bcrypt.MinCost); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if !u.VerifyPassword("N3wSecret!") || u.VerifyPassword("Passw0rd!") {
		t.Fatalf("hash not rotated")
	}
	events := u.DrainEvents()
	if len(events) != 1 || events[0].Type != EventPasswordChanged {
		t.Fatalf("expected PasswordChanged event, got %v", events)
	}
}

func TestChangeRole(t *testing.T) {
	u := mustUser(t, RoleManager, "carol", nil)
	u.AssignID(3)
	u.DrainEvents()

	// Same role is a no-op: no event, no timestamp bump.
	before := u.UpdatedAt()
	if err := u.ChangeRole(RoleManager); err != nil {
		t.Fatalf("same-role change: %v", err)
	}
	if got := u.DrainEvents(); len(got) != 0 {
		t.Fatalf("same-role change emitted events: %v", got)
	}
	if !u.UpdatedAt().Equal(before) {
		t.Fatalf("same-role change bumped updatedAt")
	}

	if err := u.ChangeRole(RoleServer); !errors.Is(err, ErrServerNeedsEstablishment) {
		t.Fatalf("server without establishment: got %v", err)
	}
	if u.Role() != RoleManager {
		t.Fatalf("failed change mutated role to %s", u.Role())
	}

	if err := u.ChangeRole(Role("owner")); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("invalid role: got %v", err)
	}

	if err := u.ChangeRole(RoleAdmin); err != nil {
		t.Fatalf("ChangeRole: %v", err)
	}
	events := u.DrainEvents()
	if len(events) != 1 || events[0].Type != EventRoleChanged {
		t.Fatalf("expected RoleChanged event, got %v", events)
	}
	if events[0].Data["oldRole"] != "manager" || events[0].Data["newRole"] != "admin" {
		t.Fatalf("event data wrong: %v", events[0].Data)
	}
}

func TestEstablishmentLink(t *testing.T) {
	u := mustUser(t, RoleServer, "dave", ptr(10))
	u.AssignID(4)
	u.DrainEvents()

	if err := u.RemoveFromEstablishment(); !errors.Is(err, ErrServerKeepsEstablishment) {
		t.Fatalf("server removal: got %v", err)
	}
	if u.EstablishmentID() == nil {
		t.Fatalf("failed removal cleared the link")
	}

	u.AssignToEstablishment(20)
	events := u.DrainEvents()
	if len(events) != 1 || events[0].Type != EventEstablishmentAssigned {
		t.Fatalf("expected EstablishmentAssigned, got %v", events)
	}
	if events[0].Data["oldEstablishment"] != int64(10) || events[0].Data["newEstablishment"] != int64(20) {
		t.Fatalf("event data wrong: %v", events[0].Data)
	}

	m := mustUser(t, RoleManager, "erin", ptr(5))
	m.AssignID(5)
	m.DrainEvents()
	if err := m.RemoveFromEstablishment(); err != nil {
		t.Fatalf("manager removal: %v", err)
	}
	if m.EstablishmentID() != nil {
		t.Fatalf("link not cleared")
	}
	events = m.DrainEvents()
	if len(events) != 1 || events[0].Type != EventEstablishmentRemoved {
		t.Fatalf("expected EstablishmentRemoved, got %v", events)
	}
}

func TestEstablishmentID_ReturnsCopy(t *testing.T) {
	u := mustUser(t, RoleServer, "dave", ptr(10))
	got := u.EstablishmentID()
	*got = 99
	if *u.EstablishmentID() != 10 {
		t.Fatalf("accessor leaked internal pointer")
	}
}

func TestCanAccessEstablishment(t *testing.T) {
	admin := mustUser(t, RoleAdmin, "alice", nil)
	if !admin.CanAccessEstablishment(1) || !admin.CanAccessEstablishment(999) {
		t.Fatalf("admin should reach every establishment")
	}

	srv := mustUser(t, RoleServer, "dave", ptr(10))
	if !srv.CanAccessEstablishment(10) {
		t.Fatalf("server should reach its own establishment")
	}
	if srv.CanAccessEstablishment(11) {
		t.Fatalf("server reached a foreign establishment")
	}

	mgr := mustUser(t, RoleManager, "carol", nil)
	if mgr.CanAccessEstablishment(10) {
		t.Fatalf("manager without establishment should be refused")
	}
}

func TestPermissions(t *testing.T) {
	admin := mustUser(t, RoleAdmin, "alice", nil)
	if !admin.HasPermission("manage:users") {
		t.Fatalf("admin missing manage:users")
	}

	srv := mustUser(t, RoleServer, "dave", ptr(10))
	if srv.HasPermission("manage:users") {
		t.Fatalf("server granted manage:users")
	}
	if !srv.HasPermission("write:orders") {
		t.Fatalf("server missing write:orders")
	}

	if got := PermissionsForRole(Role("ghost")); len(got) != 1 || got[0] != "read:public" {
		t.Fatalf("unknown role should fall back to read:public, got %v", got)
	}
}
