package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/office-reservations/internal/application"
	"github.com/example/office-reservations/internal/persistence"
)

var (
	companyCounter     uint64
	userCounter        uint64
	roomCounter        uint64
	reservationCounter uint64
)

var referenceTime = time.Date(2024, time.June, 3, 6, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
// It is the morning of a working day, before the first bookable slot.
func ReferenceTime() time.Time {
	return referenceTime
}

// BookingTime returns hour:minute on the ReferenceTime day.
func BookingTime(hour, minute int) time.Time {
	y, m, d := referenceTime.Date()
	return time.Date(y, m, d, hour, minute, 0, 0, time.UTC)
}

// ---------------------------- Company fixtures ----------------------------

// CompanyFixture represents a deterministic tenant.
type CompanyFixture struct {
	ID            string
	Name          string
	Slug          string
	Certification string
	CreatedAt     time.Time
}

// CompanyOption configures the generated company fixture.
type CompanyOption func(*CompanyFixture)

// NewCompanyFixture returns a deterministic company fixture with optional overrides.
func NewCompanyFixture(opts ...CompanyOption) CompanyFixture {
	idx := atomic.AddUint64(&companyCounter, 1)
	fixture := CompanyFixture{
		ID:            fmt.Sprintf("company-%03d", idx),
		Name:          fmt.Sprintf("Company %03d", idx),
		Slug:          fmt.Sprintf("company-%03d", idx),
		Certification: fmt.Sprintf("CERT%06d", idx),
		CreatedAt:     referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithCompanyID overrides the generated company ID.
func WithCompanyID(id string) CompanyOption {
	return func(f *CompanyFixture) {
		f.ID = id
	}
}

// WithCompanySlug overrides the generated slug.
func WithCompanySlug(slug string) CompanyOption {
	return func(f *CompanyFixture) {
		f.Slug = slug
	}
}

// WithCompanyCertification overrides the generated join code.
func WithCompanyCertification(code string) CompanyOption {
	return func(f *CompanyFixture) {
		f.Certification = code
	}
}

// Application returns the fixture as an application.Company value.
func (f CompanyFixture) Application() application.Company {
	return application.Company{
		ID:            f.ID,
		Name:          f.Name,
		Slug:          f.Slug,
		Certification: f.Certification,
		CreatedAt:     f.CreatedAt,
	}
}

// Persistence returns the fixture as a persistence.Company value.
func (f CompanyFixture) Persistence() persistence.Company {
	return persistence.Company{
		ID:            f.ID,
		Name:          f.Name,
		Slug:          f.Slug,
		Certification: f.Certification,
		CreatedAt:     f.CreatedAt,
	}
}

// ----------------------------- User fixtures -----------------------------

// UserFixture represents a deterministic employee account.
type UserFixture struct {
	ID           string
	CompanyID    string
	Email        string
	DisplayName  string
	Role         application.Role
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserOption configures the generated user fixture.
type UserOption func(*UserFixture)

// NewUserFixture returns a deterministic user fixture with optional overrides.
// The user has RoleUser unless overridden.
func NewUserFixture(opts ...UserOption) UserFixture {
	idx := atomic.AddUint64(&userCounter, 1)
	id := fmt.Sprintf("user-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := UserFixture{
		ID:           id,
		Email:        fmt.Sprintf("%s@example.com", id),
		DisplayName:  fmt.Sprintf("User %03d", idx),
		Role:         application.RoleUser,
		PasswordHash: fmt.Sprintf("hash-%03d", idx),
		CreatedAt:    created,
		UpdatedAt:    created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithUserID overrides the generated user ID.
func WithUserID(id string) UserOption {
	return func(f *UserFixture) {
		f.ID = id
	}
}

// WithUserCompany places the user in a company.
func WithUserCompany(companyID string) UserOption {
	return func(f *UserFixture) {
		f.CompanyID = companyID
	}
}

// WithUserEmail overrides the generated email address.
func WithUserEmail(email string) UserOption {
	return func(f *UserFixture) {
		f.Email = email
	}
}

// WithUserRole overrides the role.
func WithUserRole(role application.Role) UserOption {
	return func(f *UserFixture) {
		f.Role = role
	}
}

// WithUserPasswordHash overrides the generated password hash.
func WithUserPasswordHash(hash string) UserOption {
	return func(f *UserFixture) {
		f.PasswordHash = hash
	}
}

// Application returns the fixture as an application.User value.
func (f UserFixture) Application() application.User {
	return application.User{
		ID:          f.ID,
		CompanyID:   f.CompanyID,
		Email:       f.Email,
		DisplayName: f.DisplayName,
		Role:        f.Role,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

// Credentials returns the fixture as application.UserCredentials.
func (f UserFixture) Credentials() application.UserCredentials {
	return application.UserCredentials{User: f.Application(), PasswordHash: f.PasswordHash}
}

// Principal returns the principal acting as this user.
func (f UserFixture) Principal() application.Principal {
	return application.Principal{UserID: f.ID, CompanyID: f.CompanyID, Role: f.Role}
}

// Persistence returns the fixture as a persistence.User value.
func (f UserFixture) Persistence() persistence.User {
	return persistence.User{
		ID:           f.ID,
		CompanyID:    f.CompanyID,
		Email:        f.Email,
		DisplayName:  f.DisplayName,
		Role:         string(f.Role),
		PasswordHash: f.PasswordHash,
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
	}
}

// ----------------------------- Room fixtures -----------------------------

// RoomFixture represents a deterministic meeting room record.
type RoomFixture struct {
	ID        string
	CompanyID string
	Name      string
	Location  string
	Capacity  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RoomOption configures the generated room fixture.
type RoomOption func(*RoomFixture)

// NewRoomFixture returns a deterministic room fixture with optional overrides.
func NewRoomFixture(opts ...RoomOption) RoomFixture {
	idx := atomic.AddUint64(&roomCounter, 1)
	fixture := RoomFixture{
		ID:        fmt.Sprintf("room-%03d", idx),
		Name:      fmt.Sprintf("Room %03d", idx),
		Location:  "Main Office",
		Capacity:  int(4 + idx%4),
		CreatedAt: referenceTime,
		UpdatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithRoomID overrides the generated room ID.
func WithRoomID(id string) RoomOption {
	return func(f *RoomFixture) {
		f.ID = id
	}
}

// WithRoomCompany places the room in a company.
func WithRoomCompany(companyID string) RoomOption {
	return func(f *RoomFixture) {
		f.CompanyID = companyID
	}
}

// WithRoomName overrides the generated room name.
func WithRoomName(name string) RoomOption {
	return func(f *RoomFixture) {
		f.Name = name
	}
}

// WithRoomCapacity overrides the generated capacity.
func WithRoomCapacity(capacity int) RoomOption {
	return func(f *RoomFixture) {
		f.Capacity = capacity
	}
}

// Application returns the fixture as an application.Room value.
func (f RoomFixture) Application() application.Room {
	return application.Room{
		ID:        f.ID,
		CompanyID: f.CompanyID,
		Name:      f.Name,
		Location:  f.Location,
		Capacity:  f.Capacity,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// Persistence returns the fixture as a persistence.Room value.
func (f RoomFixture) Persistence() persistence.Room {
	return persistence.Room{
		ID:        f.ID,
		CompanyID: f.CompanyID,
		Name:      f.Name,
		Location:  f.Location,
		Capacity:  f.Capacity,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// Input returns the fixture as an application.RoomInput.
func (f RoomFixture) Input() application.RoomInput {
	return application.RoomInput{Name: f.Name, Location: f.Location, Capacity: f.Capacity}
}

// -------------------------- Reservation fixtures --------------------------

// ReservationFixture represents a deterministic single-slot reservation.
type ReservationFixture struct {
	ID        string
	RoomID    string
	UserID    string
	Start     time.Time
	End       time.Time
	CreatedAt time.Time
}

// ReservationOption configures the generated reservation fixture.
type ReservationOption func(*ReservationFixture)

// NewReservationFixture returns a reservation of the 12:00 slot unless overridden.
func NewReservationFixture(opts ...ReservationOption) ReservationFixture {
	idx := atomic.AddUint64(&reservationCounter, 1)
	start := BookingTime(12, 0)
	fixture := ReservationFixture{
		ID:        fmt.Sprintf("reservation-%03d", idx),
		Start:     start,
		End:       start.Add(59 * time.Minute),
		CreatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithReservationID overrides the generated reservation ID.
func WithReservationID(id string) ReservationOption {
	return func(f *ReservationFixture) {
		f.ID = id
	}
}

// WithReservationRoom sets the booked room.
func WithReservationRoom(roomID string) ReservationOption {
	return func(f *ReservationFixture) {
		f.RoomID = roomID
	}
}

// WithReservationUser sets the owner.
func WithReservationUser(userID string) ReservationOption {
	return func(f *ReservationFixture) {
		f.UserID = userID
	}
}

// WithReservationSpan overrides the booked span.
func WithReservationSpan(start, end time.Time) ReservationOption {
	return func(f *ReservationFixture) {
		f.Start = start
		f.End = end
	}
}

// Application returns the fixture as an application.Reservation value.
func (f ReservationFixture) Application() application.Reservation {
	return application.Reservation{
		ID:        f.ID,
		RoomID:    f.RoomID,
		UserID:    f.UserID,
		Start:     f.Start,
		End:       f.End,
		CreatedAt: f.CreatedAt,
	}
}

// Persistence returns the fixture as a persistence.Reservation value.
func (f ReservationFixture) Persistence() persistence.Reservation {
	return persistence.Reservation{
		ID:        f.ID,
		RoomID:    f.RoomID,
		UserID:    f.UserID,
		Start:     f.Start,
		End:       f.End,
		CreatedAt: f.CreatedAt,
	}
}
