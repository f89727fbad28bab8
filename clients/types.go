package clients

import (
	"strings"

	"github.com/freelanceflow/freelanceflow-api/model"
	"github.com/freelanceflow/freelanceflow-api/validate"
)

type ClientParams struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type ListClientsResponse struct {
	Clients []model.Client `json:"clients"`
}

func (p *ClientParams) Validate() error {
	p.Name = strings.TrimSpace(p.Name)
	p.Email = strings.TrimSpace(p.Email)

	return validate.First(
		validate.MinLength("name", p.Name, 2),
		validate.Email("email", p.Email),
	)
}
