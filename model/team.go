package model

type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleMember:
		return true
	}

	return false
}

type TeamMember struct {
	ID         string   `json:"id"`
	Email      string   `json:"email"`
	Name       string   `json:"name"`
	Role       Role     `json:"role"`
	ProjectIDs []string `json:"project_ids"`
}

type Invite struct {
	Email string `json:"email"`
	Role  Role   `json:"role"`
}
