package memory

import (
	"context"
	"sort"
	"sync"

	"circularity-lab/internal/domain"
	"circularity-lab/internal/storage"
)

// CompanyStore is an in-memory implementation of storage.CompanyStore.
type CompanyStore struct {
	mu     sync.RWMutex
	byID   map[string]*domain.Company
	bySlug map[string]string // slug -> id
}

// NewCompanyStore creates a new in-memory company store.
func NewCompanyStore() *CompanyStore {
	return &CompanyStore{
		byID:   make(map[string]*domain.Company),
		bySlug: make(map[string]string),
	}
}

// Insert adds a new company. Returns ErrDuplicateKey if the id or slug exists.
func (s *CompanyStore) Insert(_ context.Context, c *domain.Company) error {
	if c == nil || c.ID == "" || c.Slug == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[c.ID]; exists {
		return storage.ErrDuplicateKey
	}
	if _, exists := s.bySlug[c.Slug]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *c
	s.byID[c.ID] = &copy
	s.bySlug[c.Slug] = c.ID
	return nil
}

// GetByID retrieves a company by id.
func (s *CompanyStore) GetByID(_ context.Context, id string) (*domain.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.byID[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copy := *c
	return &copy, nil
}

// GetBySlug retrieves a company by slug.
func (s *CompanyStore) GetBySlug(_ context.Context, slug string) (*domain.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.bySlug[slug]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copy := *s.byID[id]
	return &copy, nil
}

// GetAll retrieves every company, ordered by slug ASC.
func (s *CompanyStore) GetAll(_ context.Context) ([]*domain.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Company, 0, len(s.byID))
	for _, c := range s.byID {
		copy := *c
		out = append(out, &copy)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}
