package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/example/office-reservations/internal/application"
)

const dateLayout = "2006-01-02"

type reservationService interface {
	AddReservation(ctx context.Context, params application.AddReservationParams) (application.Reservation, error)
	CancelReservation(ctx context.Context, principal application.Principal, reservationID string) error
	ListForRoom(ctx context.Context, principal application.Principal, roomID string) ([]application.Reservation, error)
	ListForUser(ctx context.Context, principal application.Principal) ([]application.Reservation, error)
	Timetable(ctx context.Context, principal application.Principal, roomID string, day time.Time) ([]application.TimetableEntry, error)
}

// ReservationHandler serves room bookings. Dates without a time of day are
// read in location.
type ReservationHandler struct {
	service   reservationService
	location  *time.Location
	validator *requestValidator
	responder responder
	logger    *slog.Logger
}

func NewReservationHandler(service reservationService, location *time.Location, logger *slog.Logger) *ReservationHandler {
	if location == nil {
		location = time.UTC
	}
	base := defaultLogger(logger)
	return &ReservationHandler{
		service:   service,
		location:  location,
		validator: newRequestValidator(),
		responder: newResponder(base),
		logger:    base,
	}
}

func (h *ReservationHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "ReservationHandler", operation, attrs...)
}

func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	principal, ok := requirePrincipal(w, r, h.responder)
	if !ok {
		return
	}

	roomID := ps.ByName("roomID")
	var req reservationRequest
	if err := h.validator.decode(r, &req); err != nil {
		h.log(r.Context(), "Create", "room_id", roomID, "error_kind", "bad_request").WarnContext(r.Context(), "invalid reservation request", "error", err)
		h.responder.handleDecodeError(r.Context(), w, err)
		return
	}

	params := application.AddReservationParams{Principal: principal, RoomID: roomID}
	// Layouts were checked by the validator.
	params.Start, _ = time.Parse(time.RFC3339, req.Start)
	if req.End != "" {
		params.End, _ = time.Parse(time.RFC3339, req.End)
	}

	logger := h.log(r.Context(), "Create", "room_id", roomID)
	reservation, err := h.service.AddReservation(r.Context(), params)
	if err != nil {
		logger.WarnContext(r.Context(), "reservation rejected", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("reservation_id", reservation.ID).InfoContext(r.Context(), "reservation created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, reservationResponse{Reservation: toReservationDTO(reservation)})
}

func (h *ReservationHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	principal, ok := requirePrincipal(w, r, h.responder)
	if !ok {
		return
	}

	reservationID := ps.ByName("reservationID")
	logger := h.log(r.Context(), "Cancel", "reservation_id", reservationID)
	if err := h.service.CancelReservation(r.Context(), principal, reservationID); err != nil {
		logger.ErrorContext(r.Context(), "reservation cancel failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "reservation cancelled")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *ReservationHandler) ListForRoom(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	principal, ok := requirePrincipal(w, r, h.responder)
	if !ok {
		return
	}

	reservations, err := h.service.ListForRoom(r.Context(), principal, ps.ByName("roomID"))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listReservationsResponse{Reservations: toReservationDTOs(reservations)})
}

func (h *ReservationHandler) ListMine(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	principal, ok := requirePrincipal(w, r, h.responder)
	if !ok {
		return
	}

	reservations, err := h.service.ListForUser(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listReservationsResponse{Reservations: toReservationDTOs(reservations)})
}

func (h *ReservationHandler) Timetable(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	principal, ok := requirePrincipal(w, r, h.responder)
	if !ok {
		return
	}

	day := time.Now().In(h.location)
	if raw := strings.TrimSpace(r.URL.Query().Get("date")); raw != "" {
		parsed, err := time.ParseInLocation(dateLayout, raw, h.location)
		if err != nil {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, codeBadRequest, errInvalidDate)
			return
		}
		day = parsed
	}

	entries, err := h.service.Timetable(r.Context(), principal, ps.ByName("roomID"), day)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]timetableEntryDTO, 0, len(entries))
	for _, entry := range entries {
		out = append(out, timetableEntryDTO{
			Slot:          entry.Slot.Label(),
			Start:         entry.Start.Format(time.RFC3339),
			End:           entry.End.Format(time.RFC3339),
			Reserved:      entry.Reserved,
			ReservationID: entry.ReservationID,
			UserID:        entry.UserID,
		})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, timetableResponse{
		Date:    day.Format(dateLayout),
		RoomID:  ps.ByName("roomID"),
		Entries: out,
	})
}

type reservationRequest struct {
	Start string `json:"start" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	End   string `json:"end,omitempty" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

type reservationResponse struct {
	Reservation reservationDTO `json:"reservation"`
}

type listReservationsResponse struct {
	Reservations []reservationDTO `json:"reservations"`
}

type reservationDTO struct {
	ID        string `json:"id"`
	RoomID    string `json:"room_id"`
	UserID    string `json:"user_id"`
	Start     string `json:"start"`
	End       string `json:"end"`
	CreatedAt string `json:"created_at"`
}

func toReservationDTO(reservation application.Reservation) reservationDTO {
	return reservationDTO{
		ID:        reservation.ID,
		RoomID:    reservation.RoomID,
		UserID:    reservation.UserID,
		Start:     reservation.Start.Format(time.RFC3339),
		End:       reservation.End.Format(time.RFC3339),
		CreatedAt: reservation.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toReservationDTOs(reservations []application.Reservation) []reservationDTO {
	out := make([]reservationDTO, 0, len(reservations))
	for _, reservation := range reservations {
		out = append(out, toReservationDTO(reservation))
	}
	return out
}

type timetableResponse struct {
	Date    string              `json:"date"`
	RoomID  string              `json:"room_id"`
	Entries []timetableEntryDTO `json:"entries"`
}

type timetableEntryDTO struct {
	Slot          string `json:"slot"`
	Start         string `json:"start"`
	End           string `json:"end"`
	Reserved      bool   `json:"reserved"`
	ReservationID string `json:"reservation_id,omitempty"`
	UserID        string `json:"user_id,omitempty"`
}
