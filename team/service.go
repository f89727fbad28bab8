// Package team manages the people working on projects and the invitations
// sent to new ones.
package team

import (
	"context"
	stderrors "errors"
	"slices"

	"encore.dev/rlog"
	"encore.dev/storage/sqldb"
	"github.com/freelanceflow/freelanceflow-api/errors"
	"github.com/freelanceflow/freelanceflow-api/model"
	"github.com/freelanceflow/freelanceflow-api/projects"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

var db = sqldb.NewDatabase("team", sqldb.DatabaseConfig{
	Migrations: "./migrations",
})

// projectDirectory resolves projects members are assigned to.
type projectDirectory interface {
	GetProject(ctx context.Context, id string) (*model.Project, error)
}

type projectsService struct{}

func (projectsService) GetProject(ctx context.Context, id string) (*model.Project, error) {
	return projects.GetProject(ctx, id)
}

var (
	store     Store            = NewPgStore(sqldb.Driver[*pgxpool.Pool](db))
	directory projectDirectory = projectsService{}
)

func mutateMember(ctx context.Context, id string, fn func(m *model.TeamMember) error) (*model.TeamMember, error) {
	member, err := store.MutateMember(ctx, id, fn)
	if err != nil {
		if errors.IsAPIError(err) {
			return nil, err
		}
		if stderrors.Is(err, ErrOwnerTaken) {
			return nil, errors.PreconditionError("the team already has an owner")
		}
		return nil, errors.FromStore(err, "team member", "failed to update team member")
	}

	return member, nil
}

// AddMember adds a member to the team.
//
//encore:api public method=POST path=/team/members
func AddMember(ctx context.Context, params *MemberParams) (*model.TeamMember, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	member := &model.TeamMember{
		ID:         uuid.Must(uuid.NewV7()).String(),
		Email:      params.Email,
		Name:       params.Name,
		Role:       params.Role,
		ProjectIDs: []string{},
	}

	if err := store.CreateMember(ctx, member); err != nil {
		if stderrors.Is(err, ErrOwnerTaken) {
			return nil, errors.PreconditionError("the team already has an owner")
		}
		return nil, errors.FromStore(err, "team member", "failed to add team member")
	}

	rlog.Info("added team member", "member_id", member.ID, "role", member.Role)
	return member, nil
}

// GetMember retrieves a team member by ID.
//
//encore:api public method=GET path=/team/members/:id
func GetMember(ctx context.Context, id string) (*model.TeamMember, error) {
	member, err := store.GetMember(ctx, id)
	if err != nil {
		return nil, errors.FromStore(err, "team member", "failed to get team member")
	}

	return member, nil
}

// ListMembers lists the team in the order members joined.
//
//encore:api public method=GET path=/team/members
func ListMembers(ctx context.Context) (*ListMembersResponse, error) {
	members, err := store.ListMembers(ctx)
	if err != nil {
		return nil, errors.SafeInternalError(err, "failed to list team members")
	}

	return &ListMembersResponse{Members: members}, nil
}

// UpdateMember changes the details of a member. The owner keeps their role.
//
//encore:api public method=PATCH path=/team/members/:id
func UpdateMember(ctx context.Context, id string, params *UpdateMemberParams) (*model.TeamMember, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	return mutateMember(ctx, id, func(m *model.TeamMember) error {
		if params.Role != "" && params.Role != m.Role {
			if m.Role == model.RoleOwner {
				return errors.PreconditionError("the owner's role cannot be changed")
			}
			if params.Role == model.RoleOwner {
				return errors.PreconditionError("the team already has an owner")
			}
			m.Role = params.Role
		}
		if params.Name != "" {
			m.Name = params.Name
		}
		if params.Email != "" {
			m.Email = params.Email
		}
		return nil
	})
}

// RemoveMember removes a member from the team. The owner cannot be removed.
//
//encore:api public method=DELETE path=/team/members/:id
func RemoveMember(ctx context.Context, id string) error {
	member, err := store.GetMember(ctx, id)
	if err != nil {
		return errors.FromStore(err, "team member", "failed to get team member")
	}

	if member.Role == model.RoleOwner {
		return errors.PreconditionError("the owner cannot be removed")
	}

	if err := store.DeleteMember(ctx, id); err != nil {
		return errors.FromStore(err, "team member", "failed to remove team member")
	}

	rlog.Info("removed team member", "member_id", id)
	return nil
}

// AssignProject puts a member on a project. Assigning twice is a no-op.
//
//encore:api public method=PUT path=/team/members/:id/projects/:projectID
func AssignProject(ctx context.Context, id string, projectID string) (*model.TeamMember, error) {
	if _, err := directory.GetProject(ctx, projectID); err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.BadRequestError("project does not exist")
		}
		return nil, errors.SafeInternalError(err, "failed to resolve project")
	}

	return mutateMember(ctx, id, func(m *model.TeamMember) error {
		if !slices.Contains(m.ProjectIDs, projectID) {
			m.ProjectIDs = append(m.ProjectIDs, projectID)
		}
		return nil
	})
}

// UnassignProject takes a member off a project.
//
//encore:api public method=DELETE path=/team/members/:id/projects/:projectID
func UnassignProject(ctx context.Context, id string, projectID string) (*model.TeamMember, error) {
	return mutateMember(ctx, id, func(m *model.TeamMember) error {
		m.ProjectIDs = slices.DeleteFunc(m.ProjectIDs, func(p string) bool { return p == projectID })
		return nil
	})
}

// SendInvite records a pending invitation.
//
//encore:api public method=POST path=/team/invites
func SendInvite(ctx context.Context, params *InviteParams) (*model.Invite, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	members, err := store.ListMembers(ctx)
	if err != nil {
		return nil, errors.SafeInternalError(err, "failed to list team members")
	}
	for _, m := range members {
		if m.Email == params.Email {
			return nil, errors.ConflictError("already a team member")
		}
	}

	invite := model.Invite{Email: params.Email, Role: params.Role}
	if err := store.CreateInvite(ctx, invite); err != nil {
		return nil, errors.FromStore(err, "invite", "failed to send invite")
	}

	rlog.Info("sent team invite", "role", invite.Role)
	return &invite, nil
}

// ListInvites lists pending invitations.
//
//encore:api public method=GET path=/team/invites
func ListInvites(ctx context.Context) (*ListInvitesResponse, error) {
	invites, err := store.ListInvites(ctx)
	if err != nil {
		return nil, errors.SafeInternalError(err, "failed to list invites")
	}

	return &ListInvitesResponse{Invites: invites}, nil
}

// RemoveInvite withdraws a pending invitation.
//
//encore:api public method=DELETE path=/team/invites/:email
func RemoveInvite(ctx context.Context, email string) error {
	if err := store.DeleteInvite(ctx, normalizeEmail(email)); err != nil {
		return errors.FromStore(err, "invite", "failed to remove invite")
	}

	return nil
}

// AcceptInvite turns a pending invitation into a member with the invited role.
//
//encore:api public method=POST path=/team/invites/:email/accept
func AcceptInvite(ctx context.Context, email string, params *AcceptInviteParams) (*model.TeamMember, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	email = normalizeEmail(email)

	invites, err := store.ListInvites(ctx)
	if err != nil {
		return nil, errors.SafeInternalError(err, "failed to list invites")
	}

	i := slices.IndexFunc(invites, func(inv model.Invite) bool { return inv.Email == email })
	if i < 0 {
		return nil, errors.NotFoundError(nil, "invite")
	}

	member := &model.TeamMember{
		ID:         uuid.Must(uuid.NewV7()).String(),
		Email:      email,
		Name:       params.Name,
		Role:       invites[i].Role,
		ProjectIDs: []string{},
	}

	if err := store.CreateMember(ctx, member); err != nil {
		if stderrors.Is(err, ErrOwnerTaken) {
			return nil, errors.PreconditionError("the team already has an owner")
		}
		return nil, errors.FromStore(err, "team member", "failed to add team member")
	}

	if err := store.DeleteInvite(ctx, email); err != nil {
		rlog.Warn("failed to clear accepted invite", "error", err)
	}

	rlog.Info("accepted team invite", "member_id", member.ID, "role", member.Role)
	return member, nil
}
