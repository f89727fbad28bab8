package team

import (
	"context"
	stderrors "errors"
	"slices"
	"strings"
	"sync"

	"github.com/freelanceflow/freelanceflow-api/errors"
	"github.com/freelanceflow/freelanceflow-api/model"
)

// ErrOwnerTaken is returned by stores when a second member would hold the owner role.
var ErrOwnerTaken = stderrors.New("team already has an owner")

// Store is the contract for team persistence. Member emails and invite
// emails are unique; duplicates fail with errors.ErrExists. At most one
// member is the owner; a second one fails with ErrOwnerTaken.
type Store interface {
	CreateMember(ctx context.Context, m *model.TeamMember) error
	GetMember(ctx context.Context, id string) (*model.TeamMember, error)
	// MutateMember applies fn to the stored member atomically. Nothing is written if fn fails.
	MutateMember(ctx context.Context, id string, fn func(m *model.TeamMember) error) (*model.TeamMember, error)
	DeleteMember(ctx context.Context, id string) error
	ListMembers(ctx context.Context) ([]model.TeamMember, error)

	CreateInvite(ctx context.Context, inv model.Invite) error
	DeleteInvite(ctx context.Context, email string) error
	ListInvites(ctx context.Context) ([]model.Invite, error)
}

// MemStore keeps the team in process memory, in insertion order.
type MemStore struct {
	mu      sync.Mutex
	members []model.TeamMember
	invites []model.Invite
}

func NewMemStore() *MemStore {
	return &MemStore{}
}

func copyMember(m model.TeamMember) model.TeamMember {
	m.ProjectIDs = slices.Clone(m.ProjectIDs)
	if m.ProjectIDs == nil {
		m.ProjectIDs = []string{}
	}
	return m
}

func (s *MemStore) indexOf(id string) int {
	return slices.IndexFunc(s.members, func(m model.TeamMember) bool { return m.ID == id })
}

// ownerTaken reports whether a member other than the one at skip is the owner.
func (s *MemStore) ownerTaken(skip int) bool {
	for i, m := range s.members {
		if i != skip && m.Role == model.RoleOwner {
			return true
		}
	}
	return false
}

func (s *MemStore) CreateMember(_ context.Context, m *model.TeamMember) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.members {
		if strings.EqualFold(existing.Email, m.Email) {
			return errors.ErrExists
		}
	}

	if m.Role == model.RoleOwner && s.ownerTaken(-1) {
		return ErrOwnerTaken
	}

	s.members = append(s.members, copyMember(*m))
	return nil
}

func (s *MemStore) GetMember(_ context.Context, id string) (*model.TeamMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, errors.ErrNotFound
	}

	m := copyMember(s.members[i])
	return &m, nil
}

func (s *MemStore) MutateMember(_ context.Context, id string, fn func(m *model.TeamMember) error) (*model.TeamMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, errors.ErrNotFound
	}

	working := copyMember(s.members[i])
	if err := fn(&working); err != nil {
		return nil, err
	}

	for j, other := range s.members {
		if j != i && strings.EqualFold(other.Email, working.Email) {
			return nil, errors.ErrExists
		}
	}

	if working.Role == model.RoleOwner && s.ownerTaken(i) {
		return nil, ErrOwnerTaken
	}

	s.members[i] = copyMember(working)
	return &working, nil
}

func (s *MemStore) DeleteMember(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return errors.ErrNotFound
	}

	s.members = slices.Delete(s.members, i, i+1)
	return nil
}

func (s *MemStore) ListMembers(_ context.Context) ([]model.TeamMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.TeamMember, 0, len(s.members))
	for _, m := range s.members {
		out = append(out, copyMember(m))
	}
	return out, nil
}

func (s *MemStore) CreateInvite(_ context.Context, inv model.Invite) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.invites {
		if strings.EqualFold(existing.Email, inv.Email) {
			return errors.ErrExists
		}
	}

	s.invites = append(s.invites, inv)
	return nil
}

func (s *MemStore) DeleteInvite(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := slices.IndexFunc(s.invites, func(inv model.Invite) bool { return strings.EqualFold(inv.Email, email) })
	if i < 0 {
		return errors.ErrNotFound
	}

	s.invites = slices.Delete(s.invites, i, i+1)
	return nil
}

func (s *MemStore) ListInvites(_ context.Context) ([]model.Invite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]model.Invite{}, s.invites...), nil
}
