package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/example/office-reservations/internal/application"
	"github.com/example/office-reservations/internal/logging"
)

var (
	errBadRequestBody     = errors.New("invalid request body")
	errMissingPrincipal   = errors.New("authentication required")
	errInvalidDate        = errors.New("date must be formatted as YYYY-MM-DD")
	errInvalidCredentials = errors.New("invalid credentials")
)

// Error codes returned in the error_code field.
const (
	codeDuplicatedTime   = "DUPLICATED_TIME"
	codeRoomNotFound     = "ROOM_NOT_FOUND"
	codeNotFound         = "NOT_FOUND"
	codePermissionDenied = "PERMISSION_DENIED"
	codeAlreadyExists    = "ALREADY_EXISTS"
	codeValidation       = "VALIDATION_FAILED"
	codeUnauthenticated  = "UNAUTHENTICATED"
	codeBadRequest       = "BAD_REQUEST"
	codeInternal         = "INTERNAL"
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	return responder{logger: defaultLogger(logger)}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.Resolve(ctx, r.logger).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, code string, err error) {
	message := http.StatusText(status)
	if err != nil {
		message = err.Error()
		logging.Resolve(ctx, r.logger).WarnContext(ctx, "request rejected", "status", status, "error", err)
	}
	r.writeJSON(ctx, w, status, errorResponse{ErrorCode: code, Message: message})
}

// handleDecodeError answers a failed request decode with 400 or 422.
func (r responder) handleDecodeError(ctx context.Context, w http.ResponseWriter, err error) {
	var vErr *application.ValidationError
	if errors.As(err, &vErr) {
		r.handleServiceError(ctx, w, err)
		return
	}
	r.writeError(ctx, w, http.StatusBadRequest, codeBadRequest, errBadRequestBody)
}

func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	status, body := describeServiceError(err)
	if status >= http.StatusInternalServerError {
		logging.Resolve(ctx, r.logger).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}
	r.writeJSON(ctx, w, status, body)
}

func describeServiceError(err error) (int, errorResponse) {
	switch {
	case err == nil:
		return http.StatusInternalServerError, errorResponse{ErrorCode: codeInternal, Message: "unknown error"}
	case errors.Is(err, application.ErrDuplicatedTime):
		return http.StatusConflict, errorResponse{ErrorCode: codeDuplicatedTime, Message: "the room is already reserved for that time"}
	case errors.Is(err, application.ErrRoomNotFound):
		return http.StatusNotFound, errorResponse{ErrorCode: codeRoomNotFound, Message: "room not found"}
	case errors.Is(err, application.ErrNotFound):
		return http.StatusNotFound, errorResponse{ErrorCode: codeNotFound, Message: "resource not found"}
	case errors.Is(err, application.ErrUnauthorized):
		return http.StatusForbidden, errorResponse{ErrorCode: codePermissionDenied, Message: "you are not allowed to perform this action"}
	case errors.Is(err, application.ErrAlreadyExists):
		return http.StatusConflict, errorResponse{ErrorCode: codeAlreadyExists, Message: "resource already exists"}
	case errors.Is(err, application.ErrInvalidCredentials):
		return http.StatusUnauthorized, errorResponse{ErrorCode: codeUnauthenticated, Message: errInvalidCredentials.Error()}
	}

	var vErr *application.ValidationError
	if errors.As(err, &vErr) {
		return http.StatusUnprocessableEntity, errorResponse{
			ErrorCode: codeValidation,
			Message:   "validation failed",
			Errors:    vErr.FieldErrors,
		}
	}

	return http.StatusInternalServerError, errorResponse{ErrorCode: codeInternal, Message: "internal server error"}
}

func (r responder) loggerFor(req *http.Request) *slog.Logger {
	return logging.Resolve(req.Context(), r.logger)
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}
