package invoices

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/freelanceflow/freelanceflow-api/errors"
	"github.com/freelanceflow/freelanceflow-api/model"
)

// ListFilter narrows List; empty fields match everything.
type ListFilter struct {
	ClientID string
	Status   model.InvoiceStatus
}

func (f ListFilter) match(inv *model.Invoice) bool {
	return (f.ClientID == "" || inv.ClientID == f.ClientID) &&
		(f.Status == "" || inv.Status == f.Status)
}

// Store is the record of every invoice and automation. Invoice workflows drive
// the lifecycle; the store is what listing, eligibility and reports read.
type Store interface {
	// Create fails with errors.ErrExists when a project of inv is already
	// covered by another invoice.
	Create(ctx context.Context, inv *model.Invoice) error
	Get(ctx context.Context, id string) (*model.Invoice, error)
	// Mutate applies fn to the stored invoice atomically. Nothing is written if fn fails.
	Mutate(ctx context.Context, id string, fn func(inv *model.Invoice) error) (*model.Invoice, error)
	Delete(ctx context.Context, id string) error
	// List returns invoices oldest first.
	List(ctx context.Context, filter ListFilter) ([]model.Invoice, error)

	CreateAutomation(ctx context.Context, a *model.Automation) error
	GetAutomation(ctx context.Context, id string) (*model.Automation, error)
	MutateAutomation(ctx context.Context, id string, fn func(a *model.Automation) error) (*model.Automation, error)
	DeleteAutomation(ctx context.Context, id string) error
	ListAutomations(ctx context.Context) ([]model.Automation, error)
}

// MemStore keeps invoices and automations in process memory.
type MemStore struct {
	mu          sync.Mutex
	invoices    map[string]model.Invoice
	billed      map[string]string // project id -> invoice id
	automations []model.Automation
}

func NewMemStore() *MemStore {
	return &MemStore{
		invoices: make(map[string]model.Invoice),
		billed:   make(map[string]string),
	}
}

func copyInvoice(inv model.Invoice) model.Invoice {
	inv.ProjectIDs = slices.Clone(inv.ProjectIDs)
	return inv
}

func (s *MemStore) Create(_ context.Context, inv *model.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.invoices[inv.ID]; ok {
		return errors.ErrExists
	}
	for _, pid := range inv.ProjectIDs {
		if _, ok := s.billed[pid]; ok {
			return errors.ErrExists
		}
	}

	for _, pid := range inv.ProjectIDs {
		s.billed[pid] = inv.ID
	}
	s.invoices[inv.ID] = copyInvoice(*inv)
	return nil
}

func (s *MemStore) Get(_ context.Context, id string) (*model.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.invoices[id]
	if !ok {
		return nil, errors.ErrNotFound
	}

	inv = copyInvoice(inv)
	return &inv, nil
}

func (s *MemStore) Mutate(_ context.Context, id string, fn func(inv *model.Invoice) error) (*model.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.invoices[id]
	if !ok {
		return nil, errors.ErrNotFound
	}

	working := copyInvoice(stored)
	if err := fn(&working); err != nil {
		return nil, err
	}

	// project coverage is fixed at creation
	working.ProjectIDs = stored.ProjectIDs
	s.invoices[id] = copyInvoice(working)
	return &working, nil
}

func (s *MemStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.invoices[id]
	if !ok {
		return errors.ErrNotFound
	}

	for _, pid := range inv.ProjectIDs {
		delete(s.billed, pid)
	}
	delete(s.invoices, id)
	return nil
}

func (s *MemStore) List(_ context.Context, filter ListFilter) ([]model.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Invoice, 0, len(s.invoices))
	for _, inv := range s.invoices {
		if filter.match(&inv) {
			out = append(out, copyInvoice(inv))
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	return out, nil
}

func (s *MemStore) automationIndex(id string) int {
	return slices.IndexFunc(s.automations, func(a model.Automation) bool { return a.ID == id })
}

func (s *MemStore) CreateAutomation(_ context.Context, a *model.Automation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.automationIndex(a.ID) >= 0 {
		return errors.ErrExists
	}

	s.automations = append(s.automations, *a)
	return nil
}

func (s *MemStore) GetAutomation(_ context.Context, id string) (*model.Automation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.automationIndex(id)
	if i < 0 {
		return nil, errors.ErrNotFound
	}

	a := s.automations[i]
	return &a, nil
}

func (s *MemStore) MutateAutomation(_ context.Context, id string, fn func(a *model.Automation) error) (*model.Automation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.automationIndex(id)
	if i < 0 {
		return nil, errors.ErrNotFound
	}

	working := s.automations[i]
	if err := fn(&working); err != nil {
		return nil, err
	}

	s.automations[i] = working
	return &working, nil
}

func (s *MemStore) DeleteAutomation(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.automationIndex(id)
	if i < 0 {
		return errors.ErrNotFound
	}

	s.automations = slices.Delete(s.automations, i, i+1)
	return nil
}

func (s *MemStore) ListAutomations(_ context.Context) ([]model.Automation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]model.Automation{}, s.automations...), nil
}
