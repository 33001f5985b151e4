// Package bootstrap assembles the application services on top of the SQL store.
package bootstrap

import (
	"log/slog"
	"time"

	"github.com/example/office-reservations/internal/application"
	"github.com/example/office-reservations/internal/events"
	"github.com/example/office-reservations/internal/locking"
	"github.com/example/office-reservations/internal/persistence/sqlstore"
	"github.com/example/office-reservations/internal/timetable"
)

// Options carries the collaborators shared by every service. Zero values
// fall back to the services' own defaults.
type Options struct {
	Catalog       *timetable.Catalog
	Location      *time.Location
	SpanMode      application.SpanMode
	Locker        locking.Locker
	Publisher     events.Publisher
	Hasher        application.PasswordHasher
	Certification func() (string, error)
	IDGenerator   func() string
	Now           func() time.Time
	Logger        *slog.Logger
}

// Services is the wired application layer.
type Services struct {
	Companies    *application.CompanyService
	Users        *application.UserService
	Rooms        *application.RoomService
	Reservations *application.ReservationService
}

// NewServices wires every application service to store.
func NewServices(store *sqlstore.Store, opts Options) *Services {
	companies := NewCompanyRepository(store.Companies)
	users := NewUserRepository(store.Users)
	rooms := NewRoomRepository(store.Rooms)
	reservations := NewReservationRepository(store.Reservations, store.Rooms)

	reservationService := application.NewReservationService(application.ReservationServiceConfig{
		Reservations: reservations,
		Rooms:        application.NewRoomLookup(rooms),
		Catalog:      opts.Catalog,
		Location:     opts.Location,
		SpanMode:     opts.SpanMode,
		Locker:       opts.Locker,
		Publisher:    opts.Publisher,
		IDGenerator:  opts.IDGenerator,
		Now:          opts.Now,
		Logger:       opts.Logger,
	})

	return &Services{
		Companies: application.NewCompanyService(application.CompanyServiceConfig{
			Companies:     companies,
			Users:         users,
			Hasher:        opts.Hasher,
			Certification: opts.Certification,
			IDGenerator:   opts.IDGenerator,
			Now:           opts.Now,
			Logger:        opts.Logger,
		}),
		Users:        application.NewUserServiceWithLogger(users, reservationService, opts.Hasher, opts.IDGenerator, opts.Now, opts.Logger),
		Rooms:        application.NewRoomServiceWithLogger(rooms, reservationService, opts.IDGenerator, opts.Now, opts.Logger),
		Reservations: reservationService,
	}
}
