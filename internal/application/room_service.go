package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/office-reservations/internal/persistence"
)

// RoomRepository captures the persistence operations needed by the room service.
type RoomRepository interface {
	CreateRoom(ctx context.Context, room Room) (Room, error)
	GetRoom(ctx context.Context, id string) (Room, error)
	UpdateRoom(ctx context.Context, room Room) (Room, error)
	ListRooms(ctx context.Context, companyID string) ([]Room, error)
}

// RoomCascade removes a room together with its reservations.
type RoomCascade interface {
	DeleteRoomCascade(ctx context.Context, roomID string) error
}

// NewRoomLookup resolves rooms through rooms, hiding rooms of other companies.
func NewRoomLookup(rooms RoomRepository) RoomLookup {
	return roomDirectory{rooms: rooms}
}

type roomDirectory struct {
	rooms RoomRepository
}

func (d roomDirectory) FindByCompanyAndID(ctx context.Context, companyID, roomID string) (Room, error) {
	if d.rooms == nil {
		return Room{}, fmt.Errorf("room repository not configured")
	}
	if strings.TrimSpace(roomID) == "" {
		return Room{}, ErrNotFound
	}

	room, err := d.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return Room{}, mapRoomRepoError(err)
	}
	if room.CompanyID != companyID {
		return Room{}, ErrNotFound
	}
	return room, nil
}

// RoomService orchestrates validation, authorization, and persistence for rooms.
type RoomService struct {
	rooms       RoomRepository
	lookup      RoomLookup
	cascade     RoomCascade
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewRoomService constructs a room service with the provided dependencies.
func NewRoomService(rooms RoomRepository, cascade RoomCascade, idGenerator func() string, now func() time.Time) *RoomService {
	return NewRoomServiceWithLogger(rooms, cascade, idGenerator, now, nil)
}

// NewRoomServiceWithLogger constructs a room service with a specified logger.
func NewRoomServiceWithLogger(rooms RoomRepository, cascade RoomCascade, idGenerator func() string, now func() time.Time, logger *slog.Logger) *RoomService {
	if idGenerator == nil {
		idGenerator = uuid.NewString
	}
	if now == nil {
		now = time.Now
	}
	return &RoomService{
		rooms:       rooms,
		lookup:      NewRoomLookup(rooms),
		cascade:     cascade,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *RoomService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "RoomService", operation, attrs...)
}

// FindByCompanyAndID returns the room when it belongs to companyID.
func (s *RoomService) FindByCompanyAndID(ctx context.Context, companyID, roomID string) (Room, error) {
	if s == nil {
		return Room{}, fmt.Errorf("RoomService is nil")
	}
	return s.lookup.FindByCompanyAndID(ctx, companyID, roomID)
}

// CreateRoom validates input and persists a new room for administrators.
func (s *RoomService) CreateRoom(ctx context.Context, params CreateRoomParams) (room Room, err error) {
	if s == nil {
		err = fmt.Errorf("RoomService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateRoom",
		"principal_id", params.Principal.UserID,
		"company_id", params.Principal.CompanyID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create room", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("room_id", room.ID).InfoContext(ctx, "room created")
	}()

	if !Authorize(params.Principal.Role, ActionManageRooms) {
		err = ErrUnauthorized
		return
	}

	vErr := validateRoomInput(params.Input)
	if vErr.HasErrors() {
		err = vErr
		return
	}
	if s.rooms == nil {
		err = fmt.Errorf("room repository not configured")
		return
	}

	room = Room{
		ID:        s.idGenerator(),
		CompanyID: params.Principal.CompanyID,
		Name:      strings.TrimSpace(params.Input.Name),
		Location:  strings.TrimSpace(params.Input.Location),
		Capacity:  params.Input.Capacity,
		CreatedAt: s.now(),
	}
	room.UpdatedAt = room.CreatedAt

	room, err = s.rooms.CreateRoom(ctx, room)
	if err != nil {
		err = mapRoomRepoError(err)
	}
	return
}

// UpdateRoom validates input and updates a room of the administrator's company.
func (s *RoomService) UpdateRoom(ctx context.Context, params UpdateRoomParams) (room Room, err error) {
	if s == nil {
		err = fmt.Errorf("RoomService is nil")
		return
	}

	logger := s.loggerWith(ctx, "UpdateRoom",
		"principal_id", params.Principal.UserID,
		"room_id", params.RoomID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update room", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "room updated")
	}()

	if !Authorize(params.Principal.Role, ActionManageRooms) {
		err = ErrUnauthorized
		return
	}

	var existing Room
	existing, err = s.lookup.FindByCompanyAndID(ctx, params.Principal.CompanyID, params.RoomID)
	if err != nil {
		return
	}

	vErr := validateRoomInput(params.Input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	updated := existing
	updated.Name = strings.TrimSpace(params.Input.Name)
	updated.Location = strings.TrimSpace(params.Input.Location)
	updated.Capacity = params.Input.Capacity
	updated.UpdatedAt = s.now()

	room, err = s.rooms.UpdateRoom(ctx, updated)
	if err != nil {
		err = mapRoomRepoError(err)
	}
	return
}

// DeleteRoom removes a room and every reservation held on it.
func (s *RoomService) DeleteRoom(ctx context.Context, principal Principal, roomID string) error {
	if s == nil {
		return fmt.Errorf("RoomService is nil")
	}

	logger := s.loggerWith(ctx, "DeleteRoom",
		"principal_id", principal.UserID,
		"room_id", roomID,
	)
	fail := func(err error) error {
		logger.ErrorContext(ctx, "failed to delete room", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	if !Authorize(principal.Role, ActionManageRooms) {
		return fail(ErrUnauthorized)
	}
	if s.cascade == nil {
		return fail(fmt.Errorf("room cascade not configured"))
	}
	if _, err := s.lookup.FindByCompanyAndID(ctx, principal.CompanyID, roomID); err != nil {
		return fail(err)
	}

	if err := s.cascade.DeleteRoomCascade(ctx, roomID); err != nil {
		return fail(err)
	}

	logger.InfoContext(ctx, "room deleted")
	return nil
}

// ListRooms returns the rooms of the caller's company ordered by name.
func (s *RoomService) ListRooms(ctx context.Context, principal Principal) (rooms []Room, err error) {
	if s == nil {
		err = fmt.Errorf("RoomService is nil")
		return
	}
	if s.rooms == nil {
		return nil, nil
	}

	logger := s.loggerWith(ctx, "ListRooms",
		"principal_id", principal.UserID,
		"company_id", principal.CompanyID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list rooms", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(rooms)).InfoContext(ctx, "rooms listed")
	}()

	var raw []Room
	raw, err = s.rooms.ListRooms(ctx, principal.CompanyID)
	if err != nil {
		return
	}

	rooms = make([]Room, len(raw))
	copy(rooms, raw)

	sort.Slice(rooms, func(i, j int) bool {
		if strings.EqualFold(rooms[i].Name, rooms[j].Name) {
			return rooms[i].ID < rooms[j].ID
		}
		return strings.ToLower(rooms[i].Name) < strings.ToLower(rooms[j].Name)
	})
	return
}

func validateRoomInput(input RoomInput) *ValidationError {
	vErr := &ValidationError{}

	if strings.TrimSpace(input.Name) == "" {
		vErr.add("name", "name is required")
	}
	if input.Capacity <= 0 {
		vErr.add("capacity", "capacity must be positive")
	}

	return vErr
}

func mapRoomRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrAlreadyExists
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		vErr := &ValidationError{}
		vErr.add("capacity", "capacity must be positive")
		return vErr
	}
	return err
}
