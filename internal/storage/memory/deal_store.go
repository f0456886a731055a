package memory

import (
	"context"
	"sort"
	"sync"

	"circularity-lab/internal/domain"
	"circularity-lab/internal/storage"
)

// DealStore is an in-memory implementation of storage.DealStore.
type DealStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Deal
}

// NewDealStore creates a new in-memory deal store.
func NewDealStore() *DealStore {
	return &DealStore{data: make(map[string]*domain.Deal)}
}

// Insert adds a new deal. Returns ErrDuplicateKey if the id exists.
func (s *DealStore) Insert(_ context.Context, d *domain.Deal) error {
	if d == nil || d.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[d.ID]; exists {
		return storage.ErrDuplicateKey
	}
	s.data[d.ID] = cloneDeal(d)
	return nil
}

// InsertBulk adds multiple deals atomically. Fails entire batch on any duplicate.
func (s *DealStore) InsertBulk(_ context.Context, deals []*domain.Deal) error {
	if len(deals) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batch := make(map[string]struct{}, len(deals))
	for _, d := range deals {
		if d == nil || d.ID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[d.ID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batch[d.ID]; exists {
			return storage.ErrDuplicateKey
		}
		batch[d.ID] = struct{}{}
	}
	for _, d := range deals {
		s.data[d.ID] = cloneDeal(d)
	}
	return nil
}

// GetByID retrieves a deal by id.
func (s *DealStore) GetByID(_ context.Context, id string) (*domain.Deal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.data[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return cloneDeal(d), nil
}

// GetByCompany retrieves all deals naming the company among their
// parties, ordered by AnnouncedAt ASC, then id ASC.
func (s *DealStore) GetByCompany(_ context.Context, companyID string) ([]*domain.Deal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Deal
	for _, d := range s.data {
		for _, p := range d.Parties {
			if p.CompanyID == companyID {
				out = append(out, cloneDeal(d))
				break
			}
		}
	}
	sortDeals(out)
	return out, nil
}

// GetAll retrieves every deal, ordered by AnnouncedAt ASC, then id ASC.
func (s *DealStore) GetAll(_ context.Context) ([]*domain.Deal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Deal, 0, len(s.data))
	for _, d := range s.data {
		out = append(out, cloneDeal(d))
	}
	sortDeals(out)
	return out, nil
}

func sortDeals(deals []*domain.Deal) {
	sort.Slice(deals, func(i, j int) bool {
		if deals[i].AnnouncedAt != deals[j].AnnouncedAt {
			return deals[i].AnnouncedAt < deals[j].AnnouncedAt
		}
		return deals[i].ID < deals[j].ID
	})
}

// cloneDeal deep-copies a deal so callers never share slices with the
// store.
func cloneDeal(d *domain.Deal) *domain.Deal {
	copy := *d
	if d.AmountUSD != nil {
		v := *d.AmountUSD
		copy.AmountUSD = &v
	}
	if d.AmountUSDMin != nil {
		v := *d.AmountUSDMin
		copy.AmountUSDMin = &v
	}
	if d.AmountUSDMax != nil {
		v := *d.AmountUSDMax
		copy.AmountUSDMax = &v
	}
	copy.Tags = append([]string(nil), d.Tags...)
	copy.Parties = append([]domain.DealParty(nil), d.Parties...)
	copy.Sources = append([]domain.Source(nil), d.Sources...)
	return &copy
}
