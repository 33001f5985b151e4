package bootstrap

import (
	"context"
	"errors"
	"time"

	"github.com/example/office-reservations/internal/application"
	"github.com/example/office-reservations/internal/persistence"
)

type companyRepositoryAdapter struct {
	repo persistence.CompanyRepository
}

// NewCompanyRepository exposes a persistence company repository to the application layer.
func NewCompanyRepository(repo persistence.CompanyRepository) application.CompanyRepository {
	return &companyRepositoryAdapter{repo: repo}
}

func (a *companyRepositoryAdapter) CreateCompanyWithAdmin(ctx context.Context, company application.Company, admin application.UserCredentials) (application.Company, application.User, error) {
	if err := a.repo.CreateCompanyWithAdmin(ctx, toPersistenceCompany(company), toPersistenceUser(admin)); err != nil {
		return application.Company{}, application.User{}, err
	}
	return company, admin.User, nil
}

func (a *companyRepositoryAdapter) GetCompany(ctx context.Context, id string) (application.Company, error) {
	stored, err := a.repo.GetCompany(ctx, id)
	if err != nil {
		return application.Company{}, err
	}
	return toApplicationCompany(stored), nil
}

func (a *companyRepositoryAdapter) GetCompanyByCertification(ctx context.Context, certification string) (application.Company, error) {
	stored, err := a.repo.GetCompanyByCertification(ctx, certification)
	if err != nil {
		return application.Company{}, err
	}
	return toApplicationCompany(stored), nil
}

type userRepositoryAdapter struct {
	repo persistence.UserRepository
}

// NewUserRepository exposes a persistence user repository to the application layer.
func NewUserRepository(repo persistence.UserRepository) application.UserRepository {
	return &userRepositoryAdapter{repo: repo}
}

func (a *userRepositoryAdapter) CreateUser(ctx context.Context, user application.UserCredentials) (application.User, error) {
	if err := a.repo.CreateUser(ctx, toPersistenceUser(user)); err != nil {
		return application.User{}, err
	}
	stored, err := a.repo.GetUser(ctx, user.ID)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

func (a *userRepositoryAdapter) GetUser(ctx context.Context, id string) (application.User, error) {
	stored, err := a.repo.GetUser(ctx, id)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

func (a *userRepositoryAdapter) GetUserCredentialsByEmail(ctx context.Context, email string) (application.UserCredentials, error) {
	stored, err := a.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return application.UserCredentials{}, err
	}
	return application.UserCredentials{
		User:         toApplicationUser(stored),
		PasswordHash: stored.PasswordHash,
	}, nil
}

func (a *userRepositoryAdapter) ListUsers(ctx context.Context, companyID string) ([]application.User, error) {
	stored, err := a.repo.ListUsers(ctx, companyID)
	if err != nil {
		return nil, err
	}
	users := make([]application.User, len(stored))
	for i, user := range stored {
		users[i] = toApplicationUser(user)
	}
	return users, nil
}

func (a *userRepositoryAdapter) DeleteUser(ctx context.Context, id string) error {
	return a.repo.DeleteUser(ctx, id)
}

type roomRepositoryAdapter struct {
	repo persistence.RoomRepository
}

// NewRoomRepository exposes a persistence room repository to the application layer.
func NewRoomRepository(repo persistence.RoomRepository) application.RoomRepository {
	return &roomRepositoryAdapter{repo: repo}
}

func (a *roomRepositoryAdapter) CreateRoom(ctx context.Context, room application.Room) (application.Room, error) {
	if err := a.repo.CreateRoom(ctx, toPersistenceRoom(room)); err != nil {
		return application.Room{}, err
	}
	return a.GetRoom(ctx, room.ID)
}

func (a *roomRepositoryAdapter) GetRoom(ctx context.Context, id string) (application.Room, error) {
	stored, err := a.repo.GetRoom(ctx, id)
	if err != nil {
		return application.Room{}, err
	}
	return toApplicationRoom(stored), nil
}

func (a *roomRepositoryAdapter) UpdateRoom(ctx context.Context, room application.Room) (application.Room, error) {
	if err := a.repo.UpdateRoom(ctx, toPersistenceRoom(room)); err != nil {
		return application.Room{}, err
	}
	return a.GetRoom(ctx, room.ID)
}

func (a *roomRepositoryAdapter) ListRooms(ctx context.Context, companyID string) ([]application.Room, error) {
	stored, err := a.repo.ListRooms(ctx, companyID)
	if err != nil {
		return nil, err
	}
	rooms := make([]application.Room, len(stored))
	for i, room := range stored {
		rooms[i] = toApplicationRoom(room)
	}
	return rooms, nil
}

type reservationRepositoryAdapter struct {
	reservations persistence.ReservationRepository
	rooms        persistence.RoomRepository
}

// NewReservationRepository exposes the persistence reservation and room
// repositories to the reservation service.
func NewReservationRepository(reservations persistence.ReservationRepository, rooms persistence.RoomRepository) application.ReservationRepository {
	return &reservationRepositoryAdapter{reservations: reservations, rooms: rooms}
}

func (a *reservationRepositoryAdapter) InsertReservation(ctx context.Context, reservation application.Reservation) (application.Reservation, error) {
	record := toPersistenceReservation(reservation)
	if err := a.reservations.InsertReservation(ctx, record); err != nil {
		return application.Reservation{}, err
	}
	return toApplicationReservation(record), nil
}

func (a *reservationRepositoryAdapter) FindOverlapping(ctx context.Context, roomID string, start, end time.Time) (application.Reservation, bool, error) {
	stored, err := a.reservations.FindOverlapping(ctx, roomID, start, end)
	if errors.Is(err, persistence.ErrNotFound) {
		return application.Reservation{}, false, nil
	}
	if err != nil {
		return application.Reservation{}, false, err
	}
	return toApplicationReservation(stored), true, nil
}

func (a *reservationRepositoryAdapter) GetReservation(ctx context.Context, id string) (application.Reservation, error) {
	stored, err := a.reservations.GetReservation(ctx, id)
	if err != nil {
		return application.Reservation{}, err
	}
	return toApplicationReservation(stored), nil
}

func (a *reservationRepositoryAdapter) ListReservations(ctx context.Context, query application.ReservationQuery) ([]application.Reservation, error) {
	stored, err := a.reservations.ListReservations(ctx, persistence.ReservationFilter{
		RoomID: query.RoomID,
		UserID: query.UserID,
		From:   query.From,
		To:     query.To,
	})
	if err != nil {
		return nil, err
	}
	out := make([]application.Reservation, len(stored))
	for i, reservation := range stored {
		out[i] = toApplicationReservation(reservation)
	}
	return out, nil
}

func (a *reservationRepositoryAdapter) DeleteReservation(ctx context.Context, id string) error {
	return a.reservations.DeleteReservation(ctx, id)
}

func (a *reservationRepositoryAdapter) DeleteRoomCascade(ctx context.Context, roomID string) (int64, error) {
	return a.rooms.DeleteRoom(ctx, roomID)
}

func (a *reservationRepositoryAdapter) DeleteReservationsByUser(ctx context.Context, userID string) (int64, error) {
	return a.reservations.DeleteReservationsByUser(ctx, userID)
}

func toPersistenceCompany(company application.Company) persistence.Company {
	return persistence.Company{
		ID:            company.ID,
		Name:          company.Name,
		Slug:          company.Slug,
		Certification: company.Certification,
		CreatedAt:     company.CreatedAt,
	}
}

func toApplicationCompany(company persistence.Company) application.Company {
	return application.Company{
		ID:            company.ID,
		Name:          company.Name,
		Slug:          company.Slug,
		Certification: company.Certification,
		CreatedAt:     company.CreatedAt,
	}
}

func toPersistenceUser(user application.UserCredentials) persistence.User {
	return persistence.User{
		ID:           user.ID,
		CompanyID:    user.CompanyID,
		Email:        user.Email,
		DisplayName:  user.DisplayName,
		Role:         string(user.Role),
		PasswordHash: user.PasswordHash,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}
}

func toApplicationUser(user persistence.User) application.User {
	role, ok := application.ParseRole(user.Role)
	if !ok {
		// Unknown roles authorize nothing.
		role = application.Role(user.Role)
	}
	return application.User{
		ID:          user.ID,
		CompanyID:   user.CompanyID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        role,
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
	}
}

func toPersistenceRoom(room application.Room) persistence.Room {
	return persistence.Room{
		ID:        room.ID,
		CompanyID: room.CompanyID,
		Name:      room.Name,
		Location:  room.Location,
		Capacity:  room.Capacity,
		CreatedAt: room.CreatedAt,
		UpdatedAt: room.UpdatedAt,
	}
}

func toApplicationRoom(room persistence.Room) application.Room {
	return application.Room{
		ID:        room.ID,
		CompanyID: room.CompanyID,
		Name:      room.Name,
		Location:  room.Location,
		Capacity:  room.Capacity,
		CreatedAt: room.CreatedAt,
		UpdatedAt: room.UpdatedAt,
	}
}

func toPersistenceReservation(reservation application.Reservation) persistence.Reservation {
	return persistence.Reservation{
		ID:        reservation.ID,
		RoomID:    reservation.RoomID,
		UserID:    reservation.UserID,
		Start:     reservation.Start.UTC(),
		End:       reservation.End.UTC(),
		CreatedAt: reservation.CreatedAt.UTC(),
	}
}

func toApplicationReservation(reservation persistence.Reservation) application.Reservation {
	return application.Reservation{
		ID:        reservation.ID,
		RoomID:    reservation.RoomID,
		UserID:    reservation.UserID,
		Start:     reservation.Start,
		End:       reservation.End,
		CreatedAt: reservation.CreatedAt,
	}
}
