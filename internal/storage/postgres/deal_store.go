package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"circularity-lab/internal/domain"
	"circularity-lab/internal/storage"
)

// DealStore implements storage.DealStore using PostgreSQL. Parties
// and sources live in child tables and are written in the same
// transaction as the deal row.
type DealStore struct {
	pool *Pool
}

// NewDealStore creates a new DealStore.
func NewDealStore(pool *Pool) *DealStore {
	return &DealStore{pool: pool}
}

// Compile-time interface check.
var _ storage.DealStore = (*DealStore)(nil)

// Insert adds a new deal with its parties and sources.
func (s *DealStore) Insert(ctx context.Context, d *domain.Deal) error {
	if d == nil || d.ID == "" {
		return storage.ErrInvalidInput
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin insert deal: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := insertDealTx(ctx, tx, d); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// InsertBulk adds multiple deals atomically. Fails entire batch on any duplicate.
func (s *DealStore) InsertBulk(ctx context.Context, deals []*domain.Deal) error {
	if len(deals) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin bulk insert: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, d := range deals {
		if d == nil || d.ID == "" {
			return storage.ErrInvalidInput
		}
		if err := insertDealTx(ctx, tx, d); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func insertDealTx(ctx context.Context, tx pgx.Tx, d *domain.Deal) error {
	query := `
		INSERT INTO deals (
			id, title, deal_type, flow_type, announced_at, data_status,
			amount_usd, amount_usd_min, amount_usd_max, amount_text, tags
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	tags := d.Tags
	if tags == nil {
		tags = []string{}
	}

	_, err := tx.Exec(ctx, query,
		d.ID,
		d.Title,
		string(d.DealType),
		string(d.FlowType),
		d.AnnouncedAt,
		string(d.DataStatus),
		d.AmountUSD,
		d.AmountUSDMin,
		d.AmountUSDMax,
		d.AmountText,
		tags,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert deal: %w", err)
	}

	for i, p := range d.Parties {
		_, err := tx.Exec(ctx,
			`INSERT INTO deal_parties (deal_id, company_id, role, direction, position) VALUES ($1, $2, $3, $4, $5)`,
			d.ID, p.CompanyID, string(p.Role), string(p.Direction), i,
		)
		if err != nil {
			return fmt.Errorf("insert deal party: %w", err)
		}
	}
	for i, src := range d.Sources {
		_, err := tx.Exec(ctx,
			`INSERT INTO deal_sources (deal_id, url, publisher, reliability, confidence, position) VALUES ($1, $2, $3, $4, $5, $6)`,
			d.ID, src.URL, src.Publisher, src.Reliability, src.Confidence, i,
		)
		if err != nil {
			return fmt.Errorf("insert deal source: %w", err)
		}
	}
	return nil
}

// GetByID retrieves a deal by id. Returns ErrNotFound if not exists.
func (s *DealStore) GetByID(ctx context.Context, id string) (*domain.Deal, error) {
	query := dealSelect + ` WHERE id = $1`

	row := s.pool.QueryRow(ctx, query, id)
	d, err := scanDeal(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get deal by id: %w", err)
	}
	if err := s.attachChildren(ctx, []*domain.Deal{d}); err != nil {
		return nil, err
	}
	return d, nil
}

// GetByCompany retrieves all deals naming the company among their
// parties, ordered by announced_at ASC, then id ASC.
func (s *DealStore) GetByCompany(ctx context.Context, companyID string) ([]*domain.Deal, error) {
	query := dealSelect + `
		WHERE id IN (SELECT deal_id FROM deal_parties WHERE company_id = $1)
		ORDER BY announced_at ASC, id ASC
	`
	return s.getMany(ctx, query, companyID)
}

// GetAll retrieves every deal, ordered by announced_at ASC, then id ASC.
func (s *DealStore) GetAll(ctx context.Context) ([]*domain.Deal, error) {
	query := dealSelect + ` ORDER BY announced_at ASC, id ASC`
	return s.getMany(ctx, query)
}

const dealSelect = `
	SELECT id, title, deal_type, flow_type, announced_at, data_status,
	       amount_usd, amount_usd_min, amount_usd_max, amount_text, tags, created_at
	FROM deals
`

func (s *DealStore) getMany(ctx context.Context, query string, args ...any) ([]*domain.Deal, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query deals: %w", err)
	}
	defer rows.Close()

	var out []*domain.Deal
	for rows.Next() {
		d, err := scanDeal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan deal: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := s.attachChildren(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func scanDeal(row pgx.Row) (*domain.Deal, error) {
	var d domain.Deal
	var dealType, flowType, dataStatus string
	err := row.Scan(
		&d.ID, &d.Title, &dealType, &flowType, &d.AnnouncedAt, &dataStatus,
		&d.AmountUSD, &d.AmountUSDMin, &d.AmountUSDMax, &d.AmountText, &d.Tags, &d.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	d.DealType = domain.DealType(dealType)
	d.FlowType = domain.FlowType(flowType)
	d.DataStatus = domain.DataStatus(dataStatus)
	return &d, nil
}

// attachChildren loads parties and sources for the given deals with
// two grouped queries.
func (s *DealStore) attachChildren(ctx context.Context, deals []*domain.Deal) error {
	if len(deals) == 0 {
		return nil
	}

	ids := make([]string, len(deals))
	byID := make(map[string]*domain.Deal, len(deals))
	for i, d := range deals {
		ids[i] = d.ID
		byID[d.ID] = d
	}

	rows, err := s.pool.Query(ctx,
		`SELECT deal_id, company_id, role, direction FROM deal_parties WHERE deal_id = ANY($1) ORDER BY deal_id, position`,
		ids,
	)
	if err != nil {
		return fmt.Errorf("query deal parties: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var dealID, companyID, role, direction string
		if err := rows.Scan(&dealID, &companyID, &role, &direction); err != nil {
			return fmt.Errorf("scan deal party: %w", err)
		}
		d := byID[dealID]
		d.Parties = append(d.Parties, domain.DealParty{
			CompanyID: companyID,
			Role:      domain.PartyRole(role),
			Direction: domain.PartyDirection(direction),
		})
	}
	if err := rows.Err(); err != nil {
		return err
	}

	srcRows, err := s.pool.Query(ctx,
		`SELECT deal_id, url, publisher, reliability, confidence FROM deal_sources WHERE deal_id = ANY($1) ORDER BY deal_id, position`,
		ids,
	)
	if err != nil {
		return fmt.Errorf("query deal sources: %w", err)
	}
	defer srcRows.Close()
	for srcRows.Next() {
		var dealID string
		var src domain.Source
		if err := srcRows.Scan(&dealID, &src.URL, &src.Publisher, &src.Reliability, &src.Confidence); err != nil {
			return fmt.Errorf("scan deal source: %w", err)
		}
		d := byID[dealID]
		d.Sources = append(d.Sources, src)
	}
	return srcRows.Err()
}
