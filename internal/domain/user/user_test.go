package user_test

import (
	"testing"

	"github.com/geocoder89/bloghub/internal/domain/user"
)

func TestRoleValid(t *testing.T) {
	tests := []struct {
		role user.Role
		want bool
	}{
		{user.RoleAdmin, true},
		{user.RoleUser, true},
		{user.Role(""), false},
		{user.Role("superadmin"), false},
		{user.Role("Admin"), false},
	}

	for _, tc := range tests {
		if got := tc.role.Valid(); got != tc.want {
			t.Errorf("Role(%q).Valid() = %v, want %v", tc.role, got, tc.want)
		}
	}
}

func TestCanModify(t *testing.T) {
	ownID := "owner-id"
	otherID := "other-id"

	admin := user.User{ID: "admin-id", Role: user.RoleAdmin}
	owner := user.User{ID: ownID, Role: user.RoleUser}
	stranger := user.User{ID: "stranger-id", Role: user.RoleUser}

	tests := []struct {
		name    string
		actor   user.User
		ownerID *string
		want    bool
	}{
		{name: "admin can modify anything", actor: admin, ownerID: &otherID, want: true},
		{name: "admin can modify unowned", actor: admin, ownerID: nil, want: true},
		{name: "owner can modify own", actor: owner, ownerID: &ownID, want: true},
		{name: "stranger cannot modify", actor: stranger, ownerID: &ownID, want: false},
		{name: "non-admin cannot modify unowned", actor: stranger, ownerID: nil, want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.actor.CanModify(tc.ownerID); got != tc.want {
				t.Errorf("CanModify = %v, want %v", got, tc.want)
			}
		})
	}
}
