package projects

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/freelanceflow/freelanceflow-api/errors"
	"github.com/freelanceflow/freelanceflow-api/model"
)

// Store is the contract for project persistence. Tasks and expenses are part
// of the project record and change through Mutate.
type Store interface {
	Create(ctx context.Context, p *model.Project) error
	Get(ctx context.Context, id string) (*model.Project, error)
	// List returns projects oldest first; an empty clientID lists all of them.
	List(ctx context.Context, clientID string) ([]model.Project, error)
	// Mutate applies fn to the stored project atomically. Nothing is written if fn fails.
	Mutate(ctx context.Context, id string, fn func(p *model.Project) error) (*model.Project, error)
	Delete(ctx context.Context, id string) error
}

// MemStore keeps projects in process memory.
type MemStore struct {
	mu       sync.Mutex
	projects map[string]model.Project
}

func NewMemStore() *MemStore {
	return &MemStore{projects: make(map[string]model.Project)}
}

// clone deep-copies p so callers never share slices with the store.
func clone(p model.Project) (model.Project, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return model.Project{}, fmt.Errorf("clone project %s: %w", p.ID, err)
	}

	var out model.Project
	if err := json.Unmarshal(data, &out); err != nil {
		return model.Project{}, fmt.Errorf("clone project %s: %w", p.ID, err)
	}

	return out, nil
}

func (s *MemStore) Create(_ context.Context, p *model.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := clone(*p)
	if err != nil {
		return err
	}

	s.projects[p.ID] = c
	return nil
}

func (s *MemStore) Get(_ context.Context, id string) (*model.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[id]
	if !ok {
		return nil, errors.ErrNotFound
	}

	c, err := clone(p)
	if err != nil {
		return nil, err
	}

	return &c, nil
}

func (s *MemStore) List(_ context.Context, clientID string) ([]model.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Project, 0, len(s.projects))
	for _, p := range s.projects {
		if clientID != "" && p.ClientID != clientID {
			continue
		}

		c, err := clone(p)
		if err != nil {
			return nil, err
		}
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

func (s *MemStore) Mutate(_ context.Context, id string, fn func(p *model.Project) error) (*model.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.projects[id]
	if !ok {
		return nil, errors.ErrNotFound
	}

	working, err := clone(stored)
	if err != nil {
		return nil, err
	}

	if err := fn(&working); err != nil {
		return nil, err
	}

	saved, err := clone(working)
	if err != nil {
		return nil, err
	}
	s.projects[id] = saved

	return &working, nil
}

func (s *MemStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[id]; !ok {
		return errors.ErrNotFound
	}

	delete(s.projects, id)
	return nil
}
