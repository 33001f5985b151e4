package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/office-reservations/internal/persistence"
)

// UserRepository captures the persistence operations needed by the user service.
type UserRepository interface {
	CreateUser(ctx context.Context, user UserCredentials) (User, error)
	GetUser(ctx context.Context, id string) (User, error)
	GetUserCredentialsByEmail(ctx context.Context, email string) (UserCredentials, error)
	ListUsers(ctx context.Context, companyID string) ([]User, error)
	DeleteUser(ctx context.Context, id string) error
}

// UserCascade removes every reservation owned by a user.
type UserCascade interface {
	DeleteUserCascade(ctx context.Context, userID string) error
}

// UserService orchestrates validation, authorization, and persistence for users.
type UserService struct {
	users       UserRepository
	cascade     UserCascade
	hash        PasswordHasher
	verify      PasswordVerifier
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewUserService wires dependencies for the user service.
func NewUserService(users UserRepository, cascade UserCascade, hash PasswordHasher, idGenerator func() string, now func() time.Time) *UserService {
	return NewUserServiceWithLogger(users, cascade, hash, idGenerator, now, nil)
}

// NewUserServiceWithLogger wires dependencies for the user service with a specified logger.
func NewUserServiceWithLogger(users UserRepository, cascade UserCascade, hash PasswordHasher, idGenerator func() string, now func() time.Time, logger *slog.Logger) *UserService {
	if hash == nil {
		hash = NewPasswordHasher(DefaultArgon2idParams)
	}
	if idGenerator == nil {
		idGenerator = uuid.NewString
	}
	if now == nil {
		now = time.Now
	}
	return &UserService{
		users:       users,
		cascade:     cascade,
		hash:        hash,
		verify:      VerifyPassword,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *UserService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "UserService", operation, attrs...)
}

// CreateUser validates input and adds an employee to the administrator's company.
func (s *UserService) CreateUser(ctx context.Context, params CreateUserParams) (user User, err error) {
	if s == nil {
		err = fmt.Errorf("UserService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateUser",
		"principal_id", params.Principal.UserID,
		"company_id", params.Principal.CompanyID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create user", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", user.ID).InfoContext(ctx, "user created")
	}()

	if !Authorize(params.Principal.Role, ActionManageUsers) {
		err = ErrUnauthorized
		return
	}
	if s.users == nil {
		err = fmt.Errorf("user repository not configured")
		return
	}

	var account UserCredentials
	account, err = newAccount(params.Principal.CompanyID, params.Input, RoleUser, s.hash, s.idGenerator, s.now)
	if err != nil {
		return
	}

	user, err = s.users.CreateUser(ctx, account)
	if err != nil {
		err = mapUserRepoError(err)
	}
	return
}

// DeleteUser removes a user together with every reservation it owns.
// Administrators may delete anyone in their company; others only themselves.
func (s *UserService) DeleteUser(ctx context.Context, principal Principal, userID string) error {
	if s == nil {
		return fmt.Errorf("UserService is nil")
	}

	logger := s.loggerWith(ctx, "DeleteUser",
		"principal_id", principal.UserID,
		"user_id", userID,
	)
	fail := func(err error) error {
		logger.ErrorContext(ctx, "failed to delete user", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	if userID != principal.UserID && !Authorize(principal.Role, ActionManageUsers) {
		return fail(ErrUnauthorized)
	}
	if s.users == nil {
		return fail(fmt.Errorf("user repository not configured"))
	}

	target, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return fail(mapUserRepoError(err))
	}
	if target.CompanyID != principal.CompanyID {
		return fail(ErrNotFound)
	}

	if s.cascade != nil {
		if err := s.cascade.DeleteUserCascade(ctx, userID); err != nil {
			return fail(err)
		}
	}
	if err := s.users.DeleteUser(ctx, userID); err != nil {
		return fail(mapUserRepoError(err))
	}

	logger.InfoContext(ctx, "user deleted")
	return nil
}

// ListUsers returns the users of the administrator's company ordered by email.
func (s *UserService) ListUsers(ctx context.Context, principal Principal) ([]User, error) {
	if s == nil {
		return nil, fmt.Errorf("UserService is nil")
	}
	if !Authorize(principal.Role, ActionManageUsers) {
		return nil, ErrUnauthorized
	}
	if s.users == nil {
		return nil, nil
	}

	users, err := s.users.ListUsers(ctx, principal.CompanyID)
	if err != nil {
		return nil, err
	}

	out := make([]User, len(users))
	copy(out, users)

	sort.Slice(out, func(i, j int) bool {
		if out[i].Email == out[j].Email {
			return out[i].ID < out[j].ID
		}
		return out[i].Email < out[j].Email
	})

	return out, nil
}

// ResolvePrincipal returns the principal of an existing user.
func (s *UserService) ResolvePrincipal(ctx context.Context, userID string) (Principal, error) {
	if s == nil {
		return Principal{}, fmt.Errorf("UserService is nil")
	}
	if strings.TrimSpace(userID) == "" {
		return Principal{}, ErrInvalidCredentials
	}

	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(mapUserRepoError(err), ErrNotFound) {
			return Principal{}, ErrInvalidCredentials
		}
		return Principal{}, err
	}
	return user.Principal(), nil
}

// VerifyCredentials returns the user matching email and password.
func (s *UserService) VerifyCredentials(ctx context.Context, email, password string) (user User, err error) {
	if s == nil {
		err = fmt.Errorf("UserService is nil")
		return
	}

	email = strings.ToLower(strings.TrimSpace(email))
	logger := s.loggerWith(ctx, "VerifyCredentials", "email", email)
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "credential check failed", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	if email == "" || password == "" {
		err = ErrInvalidCredentials
		return
	}

	var creds UserCredentials
	creds, err = s.users.GetUserCredentialsByEmail(ctx, email)
	if err != nil {
		if errors.Is(mapUserRepoError(err), ErrNotFound) {
			err = ErrInvalidCredentials
		}
		return
	}

	if err = s.verify(creds.PasswordHash, password); err != nil {
		err = ErrInvalidCredentials
		return
	}

	user = creds.User
	return
}

// newAccount validates input and builds a credentialed user for companyID.
// fallbackRole applies when the input names no role.
func newAccount(companyID string, input UserInput, fallbackRole Role, hash PasswordHasher, idGenerator func() string, now func() time.Time) (UserCredentials, error) {
	normalized := normalizeUserInput(input)
	if normalized.Role == "" {
		normalized.Role = fallbackRole
	}

	vErr := validateUserInput(normalized)
	if vErr.HasErrors() {
		return UserCredentials{}, vErr
	}

	passwordHash, err := hash(normalized.Password)
	if err != nil {
		return UserCredentials{}, fmt.Errorf("hash password: %w", err)
	}

	createdAt := now()
	return UserCredentials{
		User: User{
			ID:          idGenerator(),
			CompanyID:   companyID,
			Email:       normalized.Email,
			DisplayName: normalized.DisplayName,
			Role:        normalized.Role,
			CreatedAt:   createdAt,
			UpdatedAt:   createdAt,
		},
		PasswordHash: passwordHash,
	}, nil
}

func normalizeUserInput(input UserInput) UserInput {
	normalized := UserInput{
		Email:       strings.ToLower(strings.TrimSpace(input.Email)),
		DisplayName: strings.TrimSpace(input.DisplayName),
		Password:    input.Password,
	}
	if input.Role != "" {
		if role, ok := ParseRole(string(input.Role)); ok {
			normalized.Role = role
		} else {
			normalized.Role = input.Role
		}
	}
	return normalized
}

func validateUserInput(input UserInput) *ValidationError {
	vErr := &ValidationError{}

	if input.Email == "" {
		vErr.add("email", "email is required")
	} else if _, err := mail.ParseAddress(input.Email); err != nil {
		vErr.add("email", "email is invalid")
	}

	if input.DisplayName == "" {
		vErr.add("display_name", "display name is required")
	}

	if len(input.Password) < minPasswordLength {
		vErr.add("password", fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	if _, ok := ParseRole(string(input.Role)); !ok {
		vErr.add("role", "role must be USER, MANAGER or ADMIN")
	}

	return vErr
}

func mapUserRepoError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrDuplicate):
		return ErrAlreadyExists
	case errors.Is(err, persistence.ErrForeignKeyViolation):
		return ErrNotFound
	}
	return err
}
