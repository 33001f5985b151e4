package application

// Action names an operation subject to role checks.
type Action string

const (
	ActionBookRoom             Action = "book_room"
	ActionViewReservations     Action = "view_reservations"
	ActionCancelAnyReservation Action = "cancel_any_reservation"
	ActionManageRooms          Action = "manage_rooms"
	ActionManageUsers          Action = "manage_users"
)

var rolePermissions = map[Role]map[Action]bool{
	RoleUser: {
		ActionBookRoom:         true,
		ActionViewReservations: true,
	},
	RoleManager: {
		ActionBookRoom:             true,
		ActionViewReservations:     true,
		ActionCancelAnyReservation: true,
	},
	RoleAdmin: {
		ActionBookRoom:             true,
		ActionViewReservations:     true,
		ActionCancelAnyReservation: true,
		ActionManageRooms:          true,
		ActionManageUsers:          true,
	},
}

// Authorize reports whether role may perform action. Unknown roles may do nothing.
func Authorize(role Role, action Action) bool {
	return rolePermissions[role][action]
}
