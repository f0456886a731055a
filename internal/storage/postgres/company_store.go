package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"circularity-lab/internal/domain"
	"circularity-lab/internal/storage"
)

// CompanyStore implements storage.CompanyStore using PostgreSQL.
type CompanyStore struct {
	pool *Pool
}

// NewCompanyStore creates a new CompanyStore.
func NewCompanyStore(pool *Pool) *CompanyStore {
	return &CompanyStore{pool: pool}
}

// Compile-time interface check.
var _ storage.CompanyStore = (*CompanyStore)(nil)

// Insert adds a new company. Returns ErrDuplicateKey if the id or slug exists.
func (s *CompanyStore) Insert(ctx context.Context, c *domain.Company) error {
	if c == nil || c.ID == "" || c.Slug == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO companies (id, name, slug, ticker, description)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := s.pool.Exec(ctx, query, c.ID, c.Name, c.Slug, c.Ticker, c.Description)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert company: %w", err)
	}
	return nil
}

// GetByID retrieves a company by id. Returns ErrNotFound if not exists.
func (s *CompanyStore) GetByID(ctx context.Context, id string) (*domain.Company, error) {
	query := `
		SELECT id, name, slug, ticker, description, created_at
		FROM companies
		WHERE id = $1
	`
	return s.getOne(ctx, query, id)
}

// GetBySlug retrieves a company by slug. Returns ErrNotFound if not exists.
func (s *CompanyStore) GetBySlug(ctx context.Context, slug string) (*domain.Company, error) {
	query := `
		SELECT id, name, slug, ticker, description, created_at
		FROM companies
		WHERE slug = $1
	`
	return s.getOne(ctx, query, slug)
}

// GetAll retrieves every company, ordered by slug ASC.
func (s *CompanyStore) GetAll(ctx context.Context) ([]*domain.Company, error) {
	query := `
		SELECT id, name, slug, ticker, description, created_at
		FROM companies
		ORDER BY slug ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all companies: %w", err)
	}
	defer rows.Close()

	var out []*domain.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, fmt.Errorf("scan company: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *CompanyStore) getOne(ctx context.Context, query string, arg any) (*domain.Company, error) {
	row := s.pool.QueryRow(ctx, query, arg)
	c, err := scanCompany(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get company: %w", err)
	}
	return c, nil
}

func scanCompany(row pgx.Row) (*domain.Company, error) {
	var c domain.Company
	err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Ticker, &c.Description, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
