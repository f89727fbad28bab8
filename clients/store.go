package clients

import (
	"context"
	"sort"
	"sync"

	"github.com/freelanceflow/freelanceflow-api/errors"
	"github.com/freelanceflow/freelanceflow-api/model"
)

// Store is the contract for client persistence.
type Store interface {
	Create(ctx context.Context, c *model.Client) error
	Get(ctx context.Context, id string) (*model.Client, error)
	Update(ctx context.Context, c *model.Client) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]model.Client, error)
}

// MemStore keeps clients in process memory.
type MemStore struct {
	mu      sync.RWMutex
	clients map[string]model.Client
}

func NewMemStore() *MemStore {
	return &MemStore{clients: make(map[string]model.Client)}
}

func (s *MemStore) Create(_ context.Context, c *model.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clients[c.ID] = *c
	return nil
}

func (s *MemStore) Get(_ context.Context, id string) (*model.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.clients[id]
	if !ok {
		return nil, errors.ErrNotFound
	}

	return &c, nil
}

func (s *MemStore) Update(_ context.Context, c *model.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.clients[c.ID]
	if !ok {
		return errors.ErrNotFound
	}

	c.CreatedAt = existing.CreatedAt
	s.clients[c.ID] = *c
	return nil
}

func (s *MemStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.clients[id]; !ok {
		return errors.ErrNotFound
	}

	delete(s.clients, id)
	return nil
}

// List returns clients oldest first.
func (s *MemStore) List(_ context.Context) ([]model.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Client, 0, len(s.clients))
	for _, c := range s.clients {
		out = append(out, c)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	return out, nil
}
