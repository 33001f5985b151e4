package application

import "testing"

func TestAuthorize(t *testing.T) {
	t.Parallel()

	cases := []struct {
		role   Role
		action Action
		want   bool
	}{
		{RoleUser, ActionBookRoom, true},
		{RoleUser, ActionViewReservations, true},
		{RoleUser, ActionCancelAnyReservation, false},
		{RoleUser, ActionManageRooms, false},
		{RoleManager, ActionCancelAnyReservation, true},
		{RoleManager, ActionManageRooms, false},
		{RoleManager, ActionManageUsers, false},
		{RoleAdmin, ActionManageRooms, true},
		{RoleAdmin, ActionManageUsers, true},
		{Role("GUEST"), ActionBookRoom, false},
		{Role(""), ActionViewReservations, false},
	}

	for _, tc := range cases {
		if got := Authorize(tc.role, tc.action); got != tc.want {
			t.Fatalf("Authorize(%s, %s) = %v, want %v", tc.role, tc.action, got, tc.want)
		}
	}
}

func TestParseRole(t *testing.T) {
	t.Parallel()

	if role, ok := ParseRole(" manager "); !ok || role != RoleManager {
		t.Fatalf("expected MANAGER, got %q ok=%v", role, ok)
	}
	if _, ok := ParseRole("owner"); ok {
		t.Fatalf("expected unknown role to be rejected")
	}
}
