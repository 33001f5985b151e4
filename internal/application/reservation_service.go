package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/example/office-reservations/internal/events"
	"github.com/example/office-reservations/internal/locking"
	"github.com/example/office-reservations/internal/persistence"
	"github.com/example/office-reservations/internal/scheduler"
	"github.com/example/office-reservations/internal/timetable"
)

// ReservationRepository captures the persistence operations needed by the reservation service.
type ReservationRepository interface {
	// InsertReservation must refuse, atomically, a reservation overlapping
	// another one of the same room.
	InsertReservation(ctx context.Context, reservation Reservation) (Reservation, error)
	FindOverlapping(ctx context.Context, roomID string, start, end time.Time) (Reservation, bool, error)
	GetReservation(ctx context.Context, id string) (Reservation, error)
	ListReservations(ctx context.Context, query ReservationQuery) ([]Reservation, error)
	DeleteReservation(ctx context.Context, id string) error
	// DeleteRoomCascade removes the room's reservations and then the room in one transaction.
	DeleteRoomCascade(ctx context.Context, roomID string) (int64, error)
	DeleteReservationsByUser(ctx context.Context, userID string) (int64, error)
}

// RoomLookup resolves a room owned by a company.
type RoomLookup interface {
	FindByCompanyAndID(ctx context.Context, companyID, roomID string) (Room, error)
}

// ReservationServiceConfig wires the reservation service. Only Reservations
// and Rooms are required.
type ReservationServiceConfig struct {
	Reservations ReservationRepository
	Rooms        RoomLookup
	Catalog      *timetable.Catalog
	Location     *time.Location
	SpanMode     SpanMode
	Locker       locking.Locker
	Publisher    events.Publisher
	IDGenerator  func() string
	Now          func() time.Time
	Logger       *slog.Logger
}

// ReservationService books meeting rooms without ever letting two
// reservations of one room overlap.
type ReservationService struct {
	reservations ReservationRepository
	rooms        RoomLookup
	catalog      *timetable.Catalog
	location     *time.Location
	spanMode     SpanMode
	locker       locking.Locker
	publisher    events.Publisher
	idGenerator  func() string
	now          func() time.Time
	logger       *slog.Logger
}

// NewReservationService constructs a reservation service, filling unset
// optional dependencies with defaults.
func NewReservationService(cfg ReservationServiceConfig) *ReservationService {
	s := &ReservationService{
		reservations: cfg.Reservations,
		rooms:        cfg.Rooms,
		catalog:      cfg.Catalog,
		location:     cfg.Location,
		spanMode:     cfg.SpanMode,
		locker:       cfg.Locker,
		publisher:    cfg.Publisher,
		idGenerator:  cfg.IDGenerator,
		now:          cfg.Now,
		logger:       defaultLogger(cfg.Logger),
	}
	if s.catalog == nil {
		s.catalog = timetable.DefaultCatalog()
	}
	if s.location == nil {
		s.location = time.UTC
	}
	if s.spanMode == "" {
		s.spanMode = SpanModeSlot
	}
	if s.locker == nil {
		s.locker = locking.NopLocker{}
	}
	if s.publisher == nil {
		s.publisher = events.NopPublisher{}
	}
	if s.idGenerator == nil {
		s.idGenerator = uuid.NewString
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *ReservationService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ReservationService", operation, attrs...)
}

// Catalog returns the operating hours the service books against.
func (s *ReservationService) Catalog() *timetable.Catalog {
	return s.catalog
}

// AddReservation books a room for the caller.
func (s *ReservationService) AddReservation(ctx context.Context, params AddReservationParams) (reservation Reservation, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}

	logger := s.loggerWith(ctx, "AddReservation",
		"principal_id", params.Principal.UserID,
		"room_id", params.RoomID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to add reservation", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("reservation_id", reservation.ID).InfoContext(ctx, "reservation added",
			"start", reservation.Start,
			"end", reservation.End,
		)
	}()

	if !Authorize(params.Principal.Role, ActionBookRoom) {
		err = ErrUnauthorized
		return
	}

	if _, err = s.rooms.FindByCompanyAndID(ctx, params.Principal.CompanyID, params.RoomID); err != nil {
		err = mapRoomLookupError(err)
		return
	}

	start, end, vErr := s.resolveSpan(params.Start, params.End)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var release locking.Release
	release, err = s.locker.Acquire(ctx, "room:"+params.RoomID)
	if err != nil {
		err = fmt.Errorf("acquire room lock: %w", err)
		return
	}
	defer func() {
		if releaseErr := release(context.WithoutCancel(ctx)); releaseErr != nil {
			logger.WarnContext(ctx, "failed to release room lock", "error", releaseErr)
		}
	}()

	existing, found, lookupErr := s.reservations.FindOverlapping(ctx, params.RoomID, start, end)
	if lookupErr != nil {
		err = mapReservationRepoError(lookupErr)
		return
	}
	if found {
		logger = logger.With("conflict_id", existing.ID)
		err = ErrDuplicatedTime
		return
	}

	candidate := Reservation{
		ID:        s.idGenerator(),
		RoomID:    params.RoomID,
		UserID:    params.Principal.UserID,
		Start:     start,
		End:       end,
		CreatedAt: s.now(),
	}

	reservation, err = s.reservations.InsertReservation(ctx, candidate)
	if err != nil {
		err = mapReservationRepoError(err)
		return
	}
	reservation = s.localize(reservation)

	s.publish(ctx, logger, events.Event{
		Type:          events.ReservationCreated,
		ReservationID: reservation.ID,
		RoomID:        reservation.RoomID,
		UserID:        reservation.UserID,
		Start:         reservation.Start,
		End:           reservation.End,
	})
	return
}

// resolveSpan turns the requested bounds into the span that will be stored.
// In slot mode the span is always one catalog slot starting at start; a later
// requested end is truncated to it.
func (s *ReservationService) resolveSpan(start, end time.Time) (time.Time, time.Time, *ValidationError) {
	vErr := &ValidationError{}
	if start.IsZero() {
		vErr.add("start", "start is required")
		return start, end, vErr
	}

	local := start.In(s.location)
	openAt, closeAt := s.catalog.Window(local)
	hours := fmt.Sprintf("%s-%s", openAt.Format("15:04"), closeAt.Format("15:04"))

	switch s.spanMode {
	case SpanModeRange:
		if end.IsZero() {
			vErr.add("end", "end is required")
			return start, end, vErr
		}
		if !end.After(start) {
			vErr.add("end", "end must be after start")
			return start, end, vErr
		}
		if local.Before(openAt) {
			vErr.add("start", "start must be within operating hours "+hours)
		}
		if end.After(closeAt) {
			vErr.add("end", "end must be within operating hours "+hours)
		}
		return start, end, vErr

	default:
		if local.Minute() != 0 || local.Second() != 0 || local.Nanosecond() != 0 {
			vErr.add("start", "start must be on the hour")
		}
		if !s.catalog.Contains(local.Hour()) {
			vErr.add("start", "start must be within operating hours "+hours)
		}
		if !end.IsZero() && !end.After(start) {
			vErr.add("end", "end must be after start")
		}
		return start, start.Add(timetable.SlotLength), vErr
	}
}

// CancelReservation deletes a reservation. Owners may cancel their own
// reservations; other reservations require ActionCancelAnyReservation.
func (s *ReservationService) CancelReservation(ctx context.Context, principal Principal, reservationID string) (err error) {
	if s == nil {
		return fmt.Errorf("ReservationService is nil")
	}

	logger := s.loggerWith(ctx, "CancelReservation",
		"principal_id", principal.UserID,
		"reservation_id", reservationID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to cancel reservation", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "reservation cancelled")
	}()

	if !Authorize(principal.Role, ActionViewReservations) {
		return ErrUnauthorized
	}

	reservation, err := s.reservations.GetReservation(ctx, reservationID)
	if err != nil {
		return mapReservationRepoError(err)
	}

	if _, err = s.rooms.FindByCompanyAndID(ctx, principal.CompanyID, reservation.RoomID); err != nil {
		if isNotFound(err) {
			return ErrNotFound
		}
		return err
	}

	if reservation.UserID != principal.UserID && !Authorize(principal.Role, ActionCancelAnyReservation) {
		return ErrUnauthorized
	}

	if err = s.reservations.DeleteReservation(ctx, reservationID); err != nil {
		return mapReservationRepoError(err)
	}

	s.publish(ctx, logger, events.Event{
		Type:          events.ReservationCancelled,
		ReservationID: reservation.ID,
		RoomID:        reservation.RoomID,
		UserID:        reservation.UserID,
		Start:         reservation.Start,
		End:           reservation.End,
	})
	return nil
}

// ListForRoom returns the room's reservations ordered by start.
func (s *ReservationService) ListForRoom(ctx context.Context, principal Principal, roomID string) (reservations []Reservation, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}

	logger := s.loggerWith(ctx, "ListForRoom",
		"principal_id", principal.UserID,
		"room_id", roomID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list reservations", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(reservations)).InfoContext(ctx, "reservations listed")
	}()

	if !Authorize(principal.Role, ActionViewReservations) {
		err = ErrUnauthorized
		return
	}
	if _, err = s.rooms.FindByCompanyAndID(ctx, principal.CompanyID, roomID); err != nil {
		err = mapRoomLookupError(err)
		return
	}

	reservations, err = s.list(ctx, ReservationQuery{RoomID: roomID})
	return
}

// ListForUser returns the caller's own reservations ordered by start.
func (s *ReservationService) ListForUser(ctx context.Context, principal Principal) (reservations []Reservation, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}

	logger := s.loggerWith(ctx, "ListForUser", "principal_id", principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list reservations", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(reservations)).InfoContext(ctx, "reservations listed")
	}()

	if !Authorize(principal.Role, ActionViewReservations) {
		err = ErrUnauthorized
		return
	}

	reservations, err = s.list(ctx, ReservationQuery{UserID: principal.UserID})
	return
}

// Timetable reports the occupancy of every catalog slot of the room on day.
func (s *ReservationService) Timetable(ctx context.Context, principal Principal, roomID string, day time.Time) (entries []TimetableEntry, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}

	logger := s.loggerWith(ctx, "Timetable",
		"principal_id", principal.UserID,
		"room_id", roomID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to build timetable", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	if !Authorize(principal.Role, ActionViewReservations) {
		err = ErrUnauthorized
		return
	}
	if _, err = s.rooms.FindByCompanyAndID(ctx, principal.CompanyID, roomID); err != nil {
		err = mapRoomLookupError(err)
		return
	}

	local := day.In(s.location)
	openAt, closeAt := s.catalog.Window(local)

	var booked []Reservation
	booked, err = s.list(ctx, ReservationQuery{RoomID: roomID, From: openAt, To: closeAt})
	if err != nil {
		return
	}

	intervals := make([]scheduler.Interval, len(booked))
	owners := make(map[string]string, len(booked))
	for i, reservation := range booked {
		intervals[i] = scheduler.Interval{
			ID:     reservation.ID,
			RoomID: reservation.RoomID,
			Start:  reservation.Start,
			End:    reservation.End,
		}
		owners[reservation.ID] = reservation.UserID
	}

	for _, slot := range s.catalog.Slots() {
		start, end := slot.Span(local)
		entry := TimetableEntry{Slot: slot, Start: start, End: end}
		if hit, ok := scheduler.FindOverlap(intervals, scheduler.Interval{RoomID: roomID, Start: start, End: end}); ok {
			entry.Reserved = true
			entry.ReservationID = hit.ID
			entry.UserID = owners[hit.ID]
		}
		entries = append(entries, entry)
	}
	return
}

// DeleteRoomCascade deletes every reservation of the room and then the room.
// Callers are responsible for authorization.
func (s *ReservationService) DeleteRoomCascade(ctx context.Context, roomID string) error {
	if s == nil {
		return fmt.Errorf("ReservationService is nil")
	}
	logger := s.loggerWith(ctx, "DeleteRoomCascade", "room_id", roomID)

	removed, err := s.reservations.DeleteRoomCascade(ctx, roomID)
	if err != nil {
		err = mapReservationRepoError(err)
		logger.ErrorContext(ctx, "failed to delete room", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "room and reservations deleted", "removed", removed)
	s.publish(ctx, logger, events.Event{Type: events.RoomPurged, RoomID: roomID, Removed: removed})
	return nil
}

// DeleteUserCascade deletes every reservation owned by the user.
// Callers are responsible for authorization.
func (s *ReservationService) DeleteUserCascade(ctx context.Context, userID string) error {
	if s == nil {
		return fmt.Errorf("ReservationService is nil")
	}
	logger := s.loggerWith(ctx, "DeleteUserCascade", "user_id", userID)

	removed, err := s.reservations.DeleteReservationsByUser(ctx, userID)
	if err != nil {
		err = mapReservationRepoError(err)
		logger.ErrorContext(ctx, "failed to delete user reservations", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "user reservations deleted", "removed", removed)
	s.publish(ctx, logger, events.Event{Type: events.UserPurged, UserID: userID, Removed: removed})
	return nil
}

func (s *ReservationService) list(ctx context.Context, query ReservationQuery) ([]Reservation, error) {
	raw, err := s.reservations.ListReservations(ctx, query)
	if err != nil {
		return nil, mapReservationRepoError(err)
	}

	reservations := make([]Reservation, len(raw))
	for i, reservation := range raw {
		reservations[i] = s.localize(reservation)
	}
	sort.SliceStable(reservations, func(i, j int) bool {
		return reservations[i].Start.Before(reservations[j].Start)
	})
	return reservations, nil
}

func (s *ReservationService) localize(r Reservation) Reservation {
	r.Start = r.Start.In(s.location)
	r.End = r.End.In(s.location)
	return r
}

// publish runs after the write committed; delivery failures are logged only.
func (s *ReservationService) publish(ctx context.Context, logger *slog.Logger, event events.Event) {
	event.OccurredAt = s.now()
	if err := s.publisher.Publish(ctx, event); err != nil {
		logger.WarnContext(ctx, "failed to publish event", "event_type", event.Type, "error", err)
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) || errors.Is(err, ErrRoomNotFound)
}

func mapRoomLookupError(err error) error {
	if err == nil {
		return nil
	}
	if isNotFound(err) {
		return ErrRoomNotFound
	}
	return err
}

func mapReservationRepoError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrDuplicatedTime), errors.Is(err, persistence.ErrDuplicate):
		return ErrDuplicatedTime
	case errors.Is(err, persistence.ErrForeignKeyViolation):
		return ErrRoomNotFound
	case errors.Is(err, ErrNotFound), errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrConstraintViolation):
		vErr := &ValidationError{}
		vErr.add("end", "end must be after start")
		return vErr
	}
	return err
}
