package sqlstore

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/example/office-reservations/internal/persistence"
)

// CompanyRepository implements persistence.CompanyRepository
type CompanyRepository struct {
	pool   *ConnectionPool
	mapper *ErrorMapper
}

// NewCompanyRepository creates a new company repository
func NewCompanyRepository(pool *ConnectionPool) *CompanyRepository {
	return &CompanyRepository{pool: pool, mapper: NewErrorMapper()}
}

type companyRow struct {
	ID            string `db:"id"`
	Name          string `db:"name"`
	Slug          string `db:"slug"`
	Certification string `db:"certification"`
	CreatedAt     string `db:"created_at"`
}

func (row companyRow) model() (persistence.Company, error) {
	createdAt, err := parseTime("created_at", row.CreatedAt)
	if err != nil {
		return persistence.Company{}, err
	}
	return persistence.Company{
		ID:            row.ID,
		Name:          row.Name,
		Slug:          row.Slug,
		Certification: row.Certification,
		CreatedAt:     createdAt,
	}, nil
}

const companyColumns = `id, name, slug, certification, created_at`

// CreateCompany inserts a new company
func (r *CompanyRepository) CreateCompany(ctx context.Context, company persistence.Company) error {
	return r.mapper.MapError(insertCompany(ctx, r.pool.DB(), company))
}

// CreateCompanyWithAdmin inserts a company and its first user in one transaction
func (r *CompanyRepository) CreateCompanyWithAdmin(ctx context.Context, company persistence.Company, admin persistence.User) error {
	if admin.CompanyID != company.ID {
		return persistence.ErrConstraintViolation
	}

	return r.pool.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		if err := insertCompany(ctx, tx, company); err != nil {
			return r.mapper.MapError(err)
		}
		return r.mapper.MapError(insertUser(ctx, tx, admin))
	})
}

func insertCompany(ctx context.Context, ext sqlx.ExtContext, company persistence.Company) error {
	if company.ID == "" || company.Certification == "" {
		return persistence.ErrConstraintViolation
	}

	_, err := ext.ExecContext(ctx, ext.Rebind(`INSERT INTO companies (`+companyColumns+`) VALUES (?, ?, ?, ?, ?)`),
		company.ID,
		company.Name,
		company.Slug,
		company.Certification,
		formatTime(company.CreatedAt),
	)
	return err
}

// GetCompany retrieves a company by ID
func (r *CompanyRepository) GetCompany(ctx context.Context, id string) (persistence.Company, error) {
	return r.getBy(ctx, "id", id)
}

// GetCompanyByCertification retrieves the company owning a join code
func (r *CompanyRepository) GetCompanyByCertification(ctx context.Context, certification string) (persistence.Company, error) {
	return r.getBy(ctx, "certification", certification)
}

func (r *CompanyRepository) getBy(ctx context.Context, column, value string) (persistence.Company, error) {
	if value == "" {
		return persistence.Company{}, persistence.ErrNotFound
	}

	db := r.pool.DB()
	var row companyRow
	err := db.GetContext(ctx, &row, db.Rebind(`SELECT `+companyColumns+` FROM companies WHERE `+column+` = ?`), value)
	if err != nil {
		mapped := r.mapper.MapError(err)
		if errors.Is(mapped, persistence.ErrNotFound) {
			return persistence.Company{}, persistence.ErrNotFound
		}
		return persistence.Company{}, mapped
	}
	return row.model()
}
