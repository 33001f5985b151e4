package persistence

import "time"

// Company is a tenant. Employees join it with the certification code.
type Company struct {
	ID            string
	Name          string
	Slug          string
	Certification string
	CreatedAt     time.Time
}

// User is an employee account that belongs to exactly one company.
type User struct {
	ID           string
	CompanyID    string
	Email        string
	DisplayName  string
	Role         string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Room is a bookable meeting room of a company.
type Room struct {
	ID        string
	CompanyID string
	Name      string
	Location  string
	Capacity  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Reservation holds a room for the half-open span [Start, End).
type Reservation struct {
	ID        string
	RoomID    string
	UserID    string
	Start     time.Time
	End       time.Time
	CreatedAt time.Time
}

// ReservationFilter narrows reservation listings. Zero times are unbounded.
type ReservationFilter struct {
	RoomID string
	UserID string
	From   time.Time
	To     time.Time
}
