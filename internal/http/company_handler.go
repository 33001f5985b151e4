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

type companyService interface {
	RegisterCompany(ctx context.Context, params application.RegisterCompanyParams) (application.CompanyRegistration, error)
	JoinCompany(ctx context.Context, params application.JoinCompanyParams) (application.User, error)
	CurrentCompany(ctx context.Context, principal application.Principal) (application.Company, error)
}

// CompanyHandler serves tenant sign-up and employee join.
type CompanyHandler struct {
	service   companyService
	validator *requestValidator
	responder responder
	logger    *slog.Logger
}

func NewCompanyHandler(service companyService, logger *slog.Logger) *CompanyHandler {
	base := defaultLogger(logger)
	return &CompanyHandler{service: service, validator: newRequestValidator(), responder: newResponder(base), logger: base}
}

func (h *CompanyHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "CompanyHandler", operation, attrs...)
}

func (h *CompanyHandler) Register(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req registerCompanyRequest
	if err := h.validator.decode(r, &req); err != nil {
		h.log(r.Context(), "Register", "error_kind", "bad_request").WarnContext(r.Context(), "invalid company registration", "error", err)
		h.responder.handleDecodeError(r.Context(), w, err)
		return
	}

	logger := h.log(r.Context(), "Register")
	registration, err := h.service.RegisterCompany(r.Context(), application.RegisterCompanyParams{
		Name:  strings.TrimSpace(req.Name),
		Admin: req.Admin.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "company registration failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("company_id", registration.Company.ID).InfoContext(r.Context(), "company registered")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, registrationResponse{
		Company: toCompanyDTO(registration.Company),
		Admin:   toUserDTO(registration.Admin),
	})
}

func (h *CompanyHandler) Join(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req joinCompanyRequest
	if err := h.validator.decode(r, &req); err != nil {
		h.log(r.Context(), "Join", "error_kind", "bad_request").WarnContext(r.Context(), "invalid join request", "error", err)
		h.responder.handleDecodeError(r.Context(), w, err)
		return
	}

	user, err := h.service.JoinCompany(r.Context(), application.JoinCompanyParams{
		Certification: strings.TrimSpace(req.Certification),
		Input: application.UserInput{
			Email:       strings.TrimSpace(req.Email),
			DisplayName: strings.TrimSpace(req.DisplayName),
			Password:    req.Password,
		},
	})
	if err != nil {
		h.log(r.Context(), "Join").ErrorContext(r.Context(), "join failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, userResponse{User: toUserDTO(user)})
}

func (h *CompanyHandler) Current(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	principal, ok := requirePrincipal(w, r, h.responder)
	if !ok {
		return
	}

	company, err := h.service.CurrentCompany(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, companyResponse{Company: toCompanyDTO(company)})
}

type registerCompanyRequest struct {
	Name  string      `json:"name" validate:"required,max=100"`
	Admin userRequest `json:"admin"`
}

type joinCompanyRequest struct {
	Certification string `json:"certification" validate:"required"`
	Email         string `json:"email" validate:"required,email"`
	DisplayName   string `json:"display_name" validate:"required,max=100"`
	Password      string `json:"password" validate:"required,min=8"`
}

type companyResponse struct {
	Company companyDTO `json:"company"`
}

type registrationResponse struct {
	Company companyDTO `json:"company"`
	Admin   userDTO    `json:"admin"`
}

type companyDTO struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Slug          string `json:"slug"`
	Certification string `json:"certification,omitempty"`
	CreatedAt     string `json:"created_at"`
}

func toCompanyDTO(company application.Company) companyDTO {
	return companyDTO{
		ID:            company.ID,
		Name:          company.Name,
		Slug:          company.Slug,
		Certification: company.Certification,
		CreatedAt:     company.CreatedAt.UTC().Format(time.RFC3339),
	}
}
