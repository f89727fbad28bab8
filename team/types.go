package team

import (
	"strings"

	"github.com/freelanceflow/freelanceflow-api/errors"
	"github.com/freelanceflow/freelanceflow-api/model"
	"github.com/freelanceflow/freelanceflow-api/validate"
)

type MemberParams struct {
	Name  string     `json:"name"`
	Email string     `json:"email"`
	Role  model.Role `json:"role"`
}

// UpdateMemberParams merges into the stored member; empty fields are kept.
type UpdateMemberParams struct {
	Name  string     `json:"name,omitempty"`
	Email string     `json:"email,omitempty"`
	Role  model.Role `json:"role,omitempty"`
}

type InviteParams struct {
	Email string     `json:"email"`
	Role  model.Role `json:"role"`
}

type AcceptInviteParams struct {
	Name string `json:"name"`
}

type ListMembersResponse struct {
	Members []model.TeamMember `json:"members"`
}

type ListInvitesResponse struct {
	Invites []model.Invite `json:"invites"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validRole(r model.Role) error {
	if !r.Valid() {
		return errors.BadRequestError("role must be one of owner, admin, member")
	}
	return nil
}

func (p *MemberParams) Validate() error {
	p.Name = strings.TrimSpace(p.Name)
	p.Email = normalizeEmail(p.Email)

	return validate.First(
		validate.MinLength("name", p.Name, 2),
		validate.Email("email", p.Email),
		validRole(p.Role),
	)
}

func (p *UpdateMemberParams) Validate() error {
	p.Name = strings.TrimSpace(p.Name)
	p.Email = normalizeEmail(p.Email)

	var checks []error
	if p.Name != "" {
		checks = append(checks, validate.MinLength("name", p.Name, 2))
	}
	if p.Email != "" {
		checks = append(checks, validate.Email("email", p.Email))
	}
	if p.Role != "" {
		checks = append(checks, validRole(p.Role))
	}

	return validate.First(checks...)
}

// Validate only admits admin and member invites; ownership is never handed out.
func (p *InviteParams) Validate() error {
	p.Email = normalizeEmail(p.Email)

	if err := validate.Email("email", p.Email); err != nil {
		return err
	}
	if p.Role != model.RoleAdmin && p.Role != model.RoleMember {
		return errors.BadRequestError("role must be admin or member")
	}

	return nil
}

func (p *AcceptInviteParams) Validate() error {
	p.Name = strings.TrimSpace(p.Name)
	return validate.MinLength("name", p.Name, 2)
}
