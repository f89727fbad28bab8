package projects

import (
	"strings"

	"github.com/freelanceflow/freelanceflow-api/model"
	"github.com/freelanceflow/freelanceflow-api/validate"
	"github.com/shopspring/decimal"
)

const defaultActor = "system"

var minExpenseAmount = decimal.RequireFromString("0.01")

type ProjectParams struct {
	ClientID    string   `json:"client_id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	TeamMembers []string `json:"team_members"`
	ActingUser  string   `json:"acting_user"`
}

type ListProjectsParams struct {
	ClientID string `json:"client_id" query:"client_id,omitempty"`
}

type ListProjectsResponse struct {
	Projects []model.Project `json:"projects"`
}

type TaskParams struct {
	Description string          `json:"description"`
	Hours       decimal.Decimal `json:"hours"`
	Completed   bool            `json:"completed"`
	ActingUser  string          `json:"acting_user"`
}

type ExpenseParams struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Date        string          `json:"date"`
	ActingUser  string          `json:"acting_user"`
}

// ActorParams carries the acting user on requests without a body.
type ActorParams struct {
	ActingUser string `json:"acting_user" query:"acting_user,omitempty"`
}

func actor(user string) string {
	if user = strings.TrimSpace(user); user != "" {
		return user
	}

	return defaultActor
}

func (p *ProjectParams) Validate() error {
	p.Name = strings.TrimSpace(p.Name)
	p.ActingUser = actor(p.ActingUser)
	if p.TeamMembers == nil {
		p.TeamMembers = []string{}
	}

	return validate.First(
		validate.Required("client_id", p.ClientID),
		validate.MinLength("name", p.Name, 2),
	)
}

func (p *TaskParams) Validate() error {
	p.Description = strings.TrimSpace(p.Description)
	p.ActingUser = actor(p.ActingUser)

	return validate.First(
		validate.MinLength("description", p.Description, 2),
		validate.NonNegative("hours", p.Hours),
	)
}

func (p *ExpenseParams) Validate() error {
	p.Description = strings.TrimSpace(p.Description)
	p.ActingUser = actor(p.ActingUser)

	return validate.First(
		validate.MinLength("description", p.Description, 2),
		validate.AtLeast("amount", p.Amount, minExpenseAmount),
		validate.Date("date", p.Date),
	)
}
