package application

import (
	"strings"
	"time"

	"github.com/example/office-reservations/internal/timetable"
)

// Role is the permission level of a user inside its company.
type Role string

const (
	RoleUser    Role = "USER"
	RoleManager Role = "MANAGER"
	RoleAdmin   Role = "ADMIN"
)

// ParseRole converts a case-insensitive role name.
func ParseRole(value string) (Role, bool) {
	switch role := Role(strings.ToUpper(strings.TrimSpace(value))); role {
	case RoleUser, RoleManager, RoleAdmin:
		return role, true
	}
	return "", false
}

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID    string
	CompanyID string
	Role      Role
}

// Company is a tenant.
type Company struct {
	ID            string
	Name          string
	Slug          string
	Certification string
	CreatedAt     time.Time
}

// User is an employee account.
type User struct {
	ID          string
	CompanyID   string
	Email       string
	DisplayName string
	Role        Role
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Principal returns the principal acting as this user.
func (u User) Principal() Principal {
	return Principal{UserID: u.ID, CompanyID: u.CompanyID, Role: u.Role}
}

// UserCredentials pairs a user with its stored password hash.
type UserCredentials struct {
	User
	PasswordHash string
}

// UserInput captures caller provided account fields.
type UserInput struct {
	Email       string
	DisplayName string
	Password    string
	Role        Role
}

// CreateUserParams wraps the data required for an administrator to add an employee.
type CreateUserParams struct {
	Principal Principal
	Input     UserInput
}

// RegisterCompanyParams creates a tenant together with its first administrator.
type RegisterCompanyParams struct {
	Name  string
	Admin UserInput
}

// JoinCompanyParams signs an employee up with a company certification code.
type JoinCompanyParams struct {
	Certification string
	Input         UserInput
}

// Room is a meeting room of a company.
type Room struct {
	ID        string
	CompanyID string
	Name      string
	Location  string
	Capacity  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RoomInput captures caller provided room fields.
type RoomInput struct {
	Name     string
	Location string
	Capacity int
}

// CreateRoomParams wraps the data required to create a room.
type CreateRoomParams struct {
	Principal Principal
	Input     RoomInput
}

// UpdateRoomParams wraps the data required to update an existing room.
type UpdateRoomParams struct {
	Principal Principal
	RoomID    string
	Input     RoomInput
}

// Reservation holds a room for [Start, End).
type Reservation struct {
	ID        string
	RoomID    string
	UserID    string
	Start     time.Time
	End       time.Time
	CreatedAt time.Time
}

// AddReservationParams wraps a booking request. End is optional in slot mode.
type AddReservationParams struct {
	Principal Principal
	RoomID    string
	Start     time.Time
	End       time.Time
}

// ReservationQuery narrows reservation listings. Zero times are unbounded.
type ReservationQuery struct {
	RoomID string
	UserID string
	From   time.Time
	To     time.Time
}

// TimetableEntry reports the occupancy of one catalog slot on a given day.
type TimetableEntry struct {
	Slot          timetable.Slot
	Start         time.Time
	End           time.Time
	Reserved      bool
	ReservationID string
	UserID        string
}

// SpanMode selects how booking spans are derived from a request.
type SpanMode string

const (
	// SpanModeSlot books exactly one catalog slot starting at the requested hour.
	SpanModeSlot SpanMode = "slot"
	// SpanModeRange books the requested [start, end) span inside operating hours.
	SpanModeRange SpanMode = "range"
)

// ParseSpanMode converts a configuration value into a SpanMode.
func ParseSpanMode(value string) (SpanMode, bool) {
	switch mode := SpanMode(strings.ToLower(strings.TrimSpace(value))); mode {
	case SpanModeSlot, SpanModeRange:
		return mode, true
	}
	return "", false
}

// CompanyRegistration is the outcome of registering a tenant.
type CompanyRegistration struct {
	Company Company
	Admin   User
}
