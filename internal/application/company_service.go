package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/example/office-reservations/internal/persistence"
)

const (
	certificationAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	certificationLength   = 10
)

// CompanyRepository captures the persistence operations needed by the company service.
type CompanyRepository interface {
	// CreateCompanyWithAdmin stores the company and its first administrator atomically.
	CreateCompanyWithAdmin(ctx context.Context, company Company, admin UserCredentials) (Company, User, error)
	GetCompany(ctx context.Context, id string) (Company, error)
	GetCompanyByCertification(ctx context.Context, certification string) (Company, error)
}

// CompanyServiceConfig wires the company service. Companies and Users are required.
type CompanyServiceConfig struct {
	Companies     CompanyRepository
	Users         UserRepository
	Hasher        PasswordHasher
	Certification func() (string, error)
	IDGenerator   func() string
	Now           func() time.Time
	Logger        *slog.Logger
}

// CompanyService registers tenants and lets employees join them.
type CompanyService struct {
	companies     CompanyRepository
	users         UserRepository
	hash          PasswordHasher
	certification func() (string, error)
	idGenerator   func() string
	now           func() time.Time
	logger        *slog.Logger
}

// NewCompanyService constructs a company service.
func NewCompanyService(cfg CompanyServiceConfig) *CompanyService {
	s := &CompanyService{
		companies:     cfg.Companies,
		users:         cfg.Users,
		hash:          cfg.Hasher,
		certification: cfg.Certification,
		idGenerator:   cfg.IDGenerator,
		now:           cfg.Now,
		logger:        defaultLogger(cfg.Logger),
	}
	if s.hash == nil {
		s.hash = NewPasswordHasher(DefaultArgon2idParams)
	}
	if s.certification == nil {
		s.certification = NewCertificationCode
	}
	if s.idGenerator == nil {
		s.idGenerator = uuid.NewString
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// NewCertificationCode returns a random join code for a company.
func NewCertificationCode() (string, error) {
	return gonanoid.Generate(certificationAlphabet, certificationLength)
}

func (s *CompanyService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "CompanyService", operation, attrs...)
}

// RegisterCompany creates a tenant together with its first administrator.
func (s *CompanyService) RegisterCompany(ctx context.Context, params RegisterCompanyParams) (result CompanyRegistration, err error) {
	if s == nil {
		err = fmt.Errorf("CompanyService is nil")
		return
	}

	name := strings.TrimSpace(params.Name)
	logger := s.loggerWith(ctx, "RegisterCompany", "company_name", name)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to register company", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With(
			"company_id", result.Company.ID,
			"admin_id", result.Admin.ID,
		).InfoContext(ctx, "company registered")
	}()

	vErr := &ValidationError{}
	companySlug := slug.Make(name)
	if name == "" {
		vErr.add("name", "name is required")
	} else if companySlug == "" {
		vErr.add("name", "name must contain letters or digits")
	}

	admin := params.Admin
	admin.Role = RoleAdmin
	account, accountErr := newAccount("", admin, RoleAdmin, s.hash, s.idGenerator, s.now)
	if accountErr != nil {
		var fieldErrs *ValidationError
		if !errors.As(accountErr, &fieldErrs) {
			err = accountErr
			return
		}
		vErr.merge(fieldErrs)
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	code, codeErr := s.certification()
	if codeErr != nil {
		err = fmt.Errorf("generate certification code: %w", codeErr)
		return
	}

	company := Company{
		ID:            s.idGenerator(),
		Name:          name,
		Slug:          companySlug,
		Certification: code,
		CreatedAt:     s.now(),
	}
	account.CompanyID = company.ID

	result.Company, result.Admin, err = s.companies.CreateCompanyWithAdmin(ctx, company, account)
	if err != nil {
		result = CompanyRegistration{}
		err = mapUserRepoError(err)
	}
	return
}

// JoinCompany signs an employee up with the company's certification code.
// The account always starts with RoleUser.
func (s *CompanyService) JoinCompany(ctx context.Context, params JoinCompanyParams) (user User, err error) {
	if s == nil {
		err = fmt.Errorf("CompanyService is nil")
		return
	}

	logger := s.loggerWith(ctx, "JoinCompany")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to join company", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", user.ID, "company_id", user.CompanyID).InfoContext(ctx, "employee joined company")
	}()

	var company Company
	company, err = s.FindByCertification(ctx, params.Certification)
	if errors.Is(err, ErrNotFound) {
		vErr := &ValidationError{}
		vErr.add("certification", "certification code is invalid")
		err = vErr
		return
	}
	if err != nil {
		return
	}

	input := params.Input
	input.Role = RoleUser

	var account UserCredentials
	account, err = newAccount(company.ID, input, RoleUser, s.hash, s.idGenerator, s.now)
	if err != nil {
		return
	}

	user, err = s.users.CreateUser(ctx, account)
	if err != nil {
		err = mapUserRepoError(err)
	}
	return
}

// FindByCertification returns the company owning the join code.
func (s *CompanyService) FindByCertification(ctx context.Context, code string) (Company, error) {
	if s == nil {
		return Company{}, fmt.Errorf("CompanyService is nil")
	}

	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return Company{}, ErrNotFound
	}

	company, err := s.companies.GetCompanyByCertification(ctx, code)
	if err != nil {
		return Company{}, mapCompanyRepoError(err)
	}
	return company, nil
}

// CurrentCompany returns the principal's company.
func (s *CompanyService) CurrentCompany(ctx context.Context, principal Principal) (Company, error) {
	if s == nil {
		return Company{}, fmt.Errorf("CompanyService is nil")
	}

	company, err := s.companies.GetCompany(ctx, principal.CompanyID)
	if err != nil {
		return Company{}, mapCompanyRepoError(err)
	}
	if !Authorize(principal.Role, ActionManageUsers) {
		company.Certification = ""
	}
	return company, nil
}

func mapCompanyRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrAlreadyExists
	}
	return err
}
