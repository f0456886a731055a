package storage

import (
	"context"

	"circularity-lab/internal/domain"
)

// CompanyStore provides access to company records.
type CompanyStore interface {
	// Insert adds a new company. Returns ErrDuplicateKey if the id or
	// slug already exists.
	Insert(ctx context.Context, c *domain.Company) error

	// GetByID retrieves a company by id. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id string) (*domain.Company, error)

	// GetBySlug retrieves a company by slug. Returns ErrNotFound if not exists.
	GetBySlug(ctx context.Context, slug string) (*domain.Company, error)

	// GetAll retrieves every company, ordered by slug ASC.
	GetAll(ctx context.Context) ([]*domain.Company, error)
}

// DealStore provides access to deal records with their parties and
// sources attached.
type DealStore interface {
	// Insert adds a new deal. Returns ErrDuplicateKey if the id exists.
	Insert(ctx context.Context, d *domain.Deal) error

	// InsertBulk adds multiple deals atomically. Fails the entire
	// batch on any duplicate.
	InsertBulk(ctx context.Context, deals []*domain.Deal) error

	// GetByID retrieves a deal by id. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id string) (*domain.Deal, error)

	// GetByCompany retrieves all deals with the company among their
	// parties, ordered by AnnouncedAt ASC.
	GetByCompany(ctx context.Context, companyID string) ([]*domain.Deal, error)

	// GetAll retrieves every deal, ordered by AnnouncedAt ASC, then id ASC.
	GetAll(ctx context.Context) ([]*domain.Deal, error)
}

// TrialStore persists null-model trial counts for offline
// distribution analysis.
type TrialStore interface {
	// InsertTrials appends the trial counts of one run.
	InsertTrials(ctx context.Context, runID string, seed int64, trials []domain.TrialCounts) error
}
